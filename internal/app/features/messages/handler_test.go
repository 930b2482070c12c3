package messages_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/melbminds/studyhub/internal/app/features/messages"
	messagestore "github.com/melbminds/studyhub/internal/app/store/messages"
	"github.com/melbminds/studyhub/internal/app/system/moderation"
	"github.com/melbminds/studyhub/internal/domain/models"
	"github.com/melbminds/studyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []moderation.Job
	full bool
}

func (q *recordingQueue) Submit(j moderation.Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return false
	}
	q.jobs = append(q.jobs, j)
	return true
}

func setup(t *testing.T, q messages.Submitter) (*messages.Handler, *testutil.Fixtures, models.Group, models.User, models.User) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	outsider := fx.CreateUser(ctx, "Cat Ng", "cat@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Algorithms Crew", "COMP20003", ann.ID)
	return messages.NewHandler(db, q, zap.NewNop()), fx, g, ann, outsider
}

func post(h *messages.Handler, g models.Group, u models.User, text string) *testutil.ResponseRecorder {
	req := testutil.NewJSONRequest(http.MethodPost, "/api/groups/"+g.ID.Hex()+"/messages", map[string]string{"text": text})
	req = testutil.WithChiURLParam(testutil.WithUser(req, testutil.AsTestUser(u)), "id", g.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandlePost(rec, req)
	return rec
}

func TestHandlePost_StoresSanitizedAndQueues(t *testing.T) {
	q := &recordingQueue{}
	h, fx, g, ann, _ := setup(t, q)

	rec := post(h, g, ann, "<b>Meet</b> at the library")
	rec.AssertStatus(t, http.StatusCreated)

	var got models.Message
	rec.DecodeJSON(t, &got)
	if got.Text != "Meet at the library" {
		t.Errorf("text = %q, want tags stripped", got.Text)
	}
	if len(q.jobs) != 1 || q.jobs[0].ID != got.ID || q.jobs[0].GroupID != g.ID {
		t.Errorf("queued jobs = %+v", q.jobs)
	}

	n, err := fx.DB().Collection("messages").CountDocuments(context.Background(), bson.M{"_id": got.ID})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Error("message not stored")
	}
}

func TestHandlePost_Rejections(t *testing.T) {
	q := &recordingQueue{}
	h, _, g, ann, outsider := setup(t, q)

	post(h, g, ann, "   ").AssertStatus(t, http.StatusBadRequest)
	post(h, g, ann, "<script>alert(1)</script>").AssertStatus(t, http.StatusBadRequest)
	post(h, g, ann, strings.Repeat("a", messages.MaxMessageLength+1)).AssertStatus(t, http.StatusBadRequest)
	post(h, g, outsider, "hello").AssertStatus(t, http.StatusForbidden)

	if len(q.jobs) != 0 {
		t.Errorf("rejected messages were queued: %d", len(q.jobs))
	}
}

func TestHandlePost_QueueFullStillStores(t *testing.T) {
	h, _, g, ann, _ := setup(t, &recordingQueue{full: true})

	post(h, g, ann, "hello").AssertStatus(t, http.StatusCreated)
}

func TestHandlePost_FlaggedMessageIsRemoved(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pool := moderation.NewPool(
		moderation.NewModerator(moderation.NewFilter(0), nil, 0, zap.NewNop()),
		messagestore.New(db), 1, 8, zap.NewNop())
	defer pool.Stop()
	h := messages.NewHandler(db, pool, zap.NewNop())

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Algorithms Crew", "COMP20003", ann.ID)

	post(h, g, ann, "see you at 3").AssertStatus(t, http.StatusCreated)
	post(h, g, ann, "this is shit").AssertStatus(t, http.StatusCreated)
	pool.Wait()

	var left []models.Message
	cur, err := db.Collection("messages").Find(ctx, bson.M{"group_id": g.ID})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if err := cur.All(ctx, &left); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(left) != 1 || left[0].Text != "see you at 3" {
		t.Errorf("messages left = %+v, want only the clean one", left)
	}
}

func TestServeList(t *testing.T) {
	h, fx, g, ann, outsider := setup(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := messagestore.New(fx.DB())
	for _, text := range []string{"first", "second", "third"} {
		if _, err := store.Create(ctx, g.ID, ann.ID, text); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	list := func(u models.User, target string) *testutil.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest(http.MethodGet, target, testutil.AsTestUser(u))
		req = testutil.WithChiURLParam(req, "id", g.ID.Hex())
		rec := testutil.NewRecorder()
		h.ServeList(rec, req)
		return rec
	}

	list(outsider, "/api/groups/"+g.ID.Hex()+"/messages").AssertStatus(t, http.StatusForbidden)

	rec := list(ann, "/api/groups/"+g.ID.Hex()+"/messages?limit=2")
	rec.AssertStatus(t, http.StatusOK)
	var got struct {
		Messages []models.Message `json:"messages"`
	}
	rec.DecodeJSON(t, &got)
	if len(got.Messages) != 2 || got.Messages[0].Text != "second" || got.Messages[1].Text != "third" {
		t.Errorf("messages = %+v, want the last two oldest first", got.Messages)
	}
}
