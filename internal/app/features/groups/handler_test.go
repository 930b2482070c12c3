package groups_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/melbminds/studyhub/internal/app/features/groups"
	"github.com/melbminds/studyhub/internal/app/reconcile"
	sessionstore "github.com/melbminds/studyhub/internal/app/store/studysessions"
	"github.com/melbminds/studyhub/internal/app/system/indexes"
	"github.com/melbminds/studyhub/internal/app/system/timezones"
	"github.com/melbminds/studyhub/internal/domain/models"
	"github.com/melbminds/studyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const defaultTarget = 10

func newTestHandler(t *testing.T) (*groups.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	clock := timezones.NewFixedClock(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC))
	ref, err := timezones.NewReference("UTC", clock)
	if err != nil {
		t.Fatalf("NewReference: %v", err)
	}
	projector := &reconcile.Projector{
		Sessions:      sessionstore.New(db),
		Clock:         ref,
		DefaultTarget: defaultTarget,
		Log:           zap.NewNop(),
	}
	return groups.NewHandler(db, projector, nil, zap.NewNop()), testutil.NewFixtures(t, db)
}

func count(t *testing.T, db *mongo.Database, coll string, filter bson.M) int64 {
	t.Helper()
	n, err := db.Collection(coll).CountDocuments(context.Background(), filter)
	if err != nil {
		t.Fatalf("count %s: %v", coll, err)
	}
	return n
}

func TestHandleCreate_CreatorAutoJoins(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")

	req := testutil.NewJSONRequest(http.MethodPost, "/api/groups", map[string]any{
		"name":           "Algorithms Crew",
		"subject_code":   "comp20003",
		"meeting_format": "online",
		"tags":           []string{"Exam Prep"},
	})
	req = testutil.WithUser(req, testutil.AsTestUser(ann))
	rec := testutil.NewRecorder()

	h.HandleCreate(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	var got models.Group
	rec.DecodeJSON(t, &got)
	if got.SubjectCode != "COMP20003" {
		t.Errorf("subject_code = %q, want COMP20003", got.SubjectCode)
	}
	if got.ProgressHours != 0 {
		t.Errorf("progress_hours = %v, want 0", got.ProgressHours)
	}
	if n := count(t, fx.DB(), "group_memberships", bson.M{"group_id": got.ID, "user_id": ann.ID}); n != 1 {
		t.Errorf("creator memberships = %d, want 1", n)
	}
}

func TestHandleCreate_Validation(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")

	tests := []struct {
		name string
		body any
		want string
	}{
		{"missing name", map[string]any{"subject_code": "COMP20003"}, "Group name is required."},
		{"bad format", map[string]any{"name": "X Group", "subject_code": "C1", "meeting_format": "carrier pigeon"}, "Meeting format must be one of"},
		{"profane name", map[string]any{"name": "shit group", "subject_code": "C1"}, "inappropriate language"},
		{"unknown field", map[string]any{"name": "Ok", "subject_code": "C1", "owner": "me"}, "invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/api/groups", tt.body), testutil.AsTestUser(ann))
			rec := testutil.NewRecorder()
			h.HandleCreate(rec, req)
			rec.AssertStatus(t, http.StatusBadRequest)
			rec.AssertContains(t, tt.want)
		})
	}
	if n := count(t, fx.DB(), "groups", bson.M{}); n != 0 {
		t.Errorf("groups created = %d, want 0", n)
	}
}

func TestHandleCreate_DuplicateName(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	body := map[string]any{"name": "Algorithms Crew", "subject_code": "COMP20003"}

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/api/groups", body), testutil.AsTestUser(ann))
		rec := testutil.NewRecorder()
		h.HandleCreate(rec, req)
		if rec.Code != want {
			t.Errorf("attempt %d: status = %d, want %d (body %s)", i+1, rec.Code, want, rec.Body.String())
		}
	}
}

func TestServeView_ProjectsProgress(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Algorithms Crew", "COMP20003", ann.ID)
	fx.CreateMembership(ctx, g.ID, ann.ID)
	// Ended before the fixed clock (12:00) but not yet reconciled.
	fx.CreateSession(ctx, g.ID, ann.ID, "2025-03-14", "09:00:00", "11:30:00")
	// Not ended yet.
	fx.CreateSession(ctx, g.ID, ann.ID, "2025-03-14", "13:00:00", "14:00:00")

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/groups/"+g.ID.Hex(), testutil.AsTestUser(ann))
	req = testutil.WithChiURLParam(req, "id", g.ID.Hex())
	rec := testutil.NewRecorder()

	h.ServeView(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	var got struct {
		TotalHours  float64 `json:"total_study_hours"`
		TargetHours float64 `json:"target_hours"`
		Percentage  float64 `json:"progress_percentage"`
		MemberCount int64   `json:"member_count"`
		IsMember    bool    `json:"is_member"`
		IsCreator   bool    `json:"is_creator"`
	}
	rec.DecodeJSON(t, &got)
	if got.TotalHours != 2.5 {
		t.Errorf("total_study_hours = %v, want 2.5", got.TotalHours)
	}
	if got.TargetHours != defaultTarget {
		t.Errorf("target_hours = %v, want %d", got.TargetHours, defaultTarget)
	}
	if got.Percentage != 25 {
		t.Errorf("progress_percentage = %v, want 25", got.Percentage)
	}
	if got.MemberCount != 1 || !got.IsMember || !got.IsCreator {
		t.Errorf("membership fields = %+v", got)
	}
	// The read must not reconcile.
	if n := count(t, fx.DB(), "study_sessions", bson.M{"group_id": g.ID}); n != 2 {
		t.Errorf("sessions after view = %d, want 2", n)
	}
}

func TestServeView_NotFoundAndBadID(t *testing.T) {
	h, _ := newTestHandler(t)
	user := testutil.StudentUser()

	for _, tt := range []struct {
		id   string
		want int
	}{
		{"not-an-id", http.StatusBadRequest},
		{"0123456789abcdef01234567", http.StatusNotFound},
	} {
		req := testutil.WithChiURLParam(testutil.NewAuthenticatedRequest(http.MethodGet, "/api/groups/"+tt.id, user), "id", tt.id)
		rec := testutil.NewRecorder()
		h.ServeView(rec, req)
		rec.AssertStatus(t, tt.want)
	}
}

func TestHandleUpdateTarget(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	bob := fx.CreateUser(ctx, "Bob Tan", "bob@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Algorithms Crew", "COMP20003", ann.ID)
	if _, err := fx.DB().Collection("groups").UpdateOne(ctx, bson.M{"_id": g.ID}, bson.M{"$set": bson.M{"progress_hours": 4.0}}); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	patch := func(u models.User, hours float64) *testutil.ResponseRecorder {
		req := testutil.NewJSONRequest(http.MethodPatch, "/api/groups/"+g.ID.Hex()+"/target", map[string]any{"target_hours": hours})
		req = testutil.WithChiURLParam(testutil.WithUser(req, testutil.AsTestUser(u)), "id", g.ID.Hex())
		rec := testutil.NewRecorder()
		h.HandleUpdateTarget(rec, req)
		return rec
	}

	patch(bob, 20).AssertStatus(t, http.StatusForbidden)
	patch(ann, 0).AssertStatus(t, http.StatusBadRequest)

	rec := patch(ann, 8)
	rec.AssertStatus(t, http.StatusOK)
	var got reconcile.Progress
	rec.DecodeJSON(t, &got)
	if got.TotalHours != 4 || got.TargetHours != 8 || got.Percentage != 50 {
		t.Errorf("progress = %+v, want 4/8/50", got)
	}

	var stored models.Group
	if err := fx.DB().Collection("groups").FindOne(ctx, bson.M{"_id": g.ID}).Decode(&stored); err != nil {
		t.Fatalf("reload group: %v", err)
	}
	if stored.ProgressHours != 4 {
		t.Errorf("ledger changed to %v", stored.ProgressHours)
	}
}

func TestHandleDelete_Cascades(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	db := fx.DB()

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	bob := fx.CreateUser(ctx, "Bob Tan", "bob@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Algorithms Crew", "COMP20003", ann.ID)
	fx.CreateMembership(ctx, g.ID, ann.ID)
	fx.CreateMembership(ctx, g.ID, bob.ID)
	sess := fx.CreateSession(ctx, g.ID, ann.ID, "2025-04-01", "10:00:00", "12:00:00")
	if _, err := db.Collection("session_attendees").InsertOne(ctx, bson.M{"session_id": sess.ID, "user_id": bob.ID}); err != nil {
		t.Fatalf("seed attendee: %v", err)
	}
	if _, err := db.Collection("notifications").InsertOne(ctx, bson.M{"group_id": g.ID, "message": "hi", "created_at": time.Now()}); err != nil {
		t.Fatalf("seed notification: %v", err)
	}
	folderID := primitive.NewObjectID()
	if _, err := db.Collection("flashcard_folders").InsertOne(ctx, bson.M{"_id": folderID, "name": "Shared", "creator_id": ann.ID, "group_id": g.ID, "created_at": time.Now()}); err != nil {
		t.Fatalf("seed folder: %v", err)
	}
	if _, err := db.Collection("flashcards").InsertOne(ctx, bson.M{"folder_id": folderID, "question": "q", "answer": "a", "created_at": time.Now()}); err != nil {
		t.Fatalf("seed flashcard: %v", err)
	}

	del := func(u models.User) *testutil.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/api/groups/"+g.ID.Hex(), testutil.AsTestUser(u))
		req = testutil.WithChiURLParam(req, "id", g.ID.Hex())
		rec := testutil.NewRecorder()
		h.HandleDelete(rec, req)
		return rec
	}

	del(bob).AssertStatus(t, http.StatusForbidden)
	if n := count(t, db, "groups", bson.M{"_id": g.ID}); n != 1 {
		t.Fatalf("group deleted by non-creator")
	}

	del(ann).AssertStatus(t, http.StatusNoContent)
	for coll, filter := range map[string]bson.M{
		"groups":            {"_id": g.ID},
		"group_memberships": {"group_id": g.ID},
		"study_sessions":    {"group_id": g.ID},
		"session_attendees": {"session_id": sess.ID},
		"notifications":     {"group_id": g.ID},
		"flashcard_folders": {"group_id": g.ID},
		"flashcards":        {"folder_id": folderID},
	} {
		if n := count(t, db, coll, filter); n != 0 {
			t.Errorf("%s left after delete: %d", coll, n)
		}
	}
}

func TestHandleDelete_AdminAllowed(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Algorithms Crew", "COMP20003", ann.ID)

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/api/groups/"+g.ID.Hex(), testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", g.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleDelete(rec, req)

	rec.AssertStatus(t, http.StatusNoContent)
}

func TestJoinLeave(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	bob := fx.CreateUser(ctx, "Bob Tan", "bob@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Algorithms Crew", "COMP20003", ann.ID)
	fx.CreateMembership(ctx, g.ID, ann.ID)

	do := func(fn http.HandlerFunc, u models.User, path string) *testutil.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest(http.MethodPost, path, testutil.AsTestUser(u))
		req = testutil.WithChiURLParam(req, "id", g.ID.Hex())
		rec := testutil.NewRecorder()
		fn(rec, req)
		return rec
	}
	base := "/api/groups/" + g.ID.Hex()

	do(h.HandleJoin, bob, base+"/join").AssertStatus(t, http.StatusOK)
	do(h.HandleJoin, bob, base+"/join").AssertStatus(t, http.StatusConflict)
	do(h.HandleLeave, ann, base+"/leave").AssertStatus(t, http.StatusBadRequest)
	do(h.HandleLeave, bob, base+"/leave").AssertStatus(t, http.StatusOK)
	do(h.HandleLeave, bob, base+"/leave").AssertStatus(t, http.StatusBadRequest)

	if n := count(t, fx.DB(), "group_memberships", bson.M{"group_id": g.ID}); n != 1 {
		t.Errorf("memberships = %d, want 1", n)
	}
}

func TestHandleRate(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	bob := fx.CreateUser(ctx, "Bob Tan", "bob@student.unimelb.edu.au")
	cat := fx.CreateUser(ctx, "Cat Ng", "cat@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Algorithms Crew", "COMP20003", ann.ID)
	fx.CreateMembership(ctx, g.ID, bob.ID)

	rate := func(u models.User, score int) *testutil.ResponseRecorder {
		req := testutil.NewJSONRequest(http.MethodPost, "/api/groups/"+g.ID.Hex()+"/rating", map[string]any{"score": score})
		req = testutil.WithChiURLParam(testutil.WithUser(req, testutil.AsTestUser(u)), "id", g.ID.Hex())
		rec := testutil.NewRecorder()
		h.HandleRate(rec, req)
		return rec
	}

	rate(cat, 5).AssertStatus(t, http.StatusForbidden)
	rate(bob, 6).AssertStatus(t, http.StatusBadRequest)
	rate(bob, 2).AssertStatus(t, http.StatusOK)
	rate(bob, 3).AssertStatus(t, http.StatusOK)

	rec := rate(ann, 5)
	rec.AssertStatus(t, http.StatusOK)
	var got struct {
		Average float64 `json:"average_rating"`
		Count   int64   `json:"rating_count"`
	}
	rec.DecodeJSON(t, &got)
	if got.Average != 4 || got.Count != 2 {
		t.Errorf("summary = %+v, want avg 4 over 2", got)
	}
}

func TestServeSimilar(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	target := fx.CreateGroup(ctx, "Algorithms Crew", "COMP20003", ann.ID)
	fx.CreateGroup(ctx, "Algo Night Owls", "COMP20003", ann.ID)
	fx.CreateGroup(ctx, "Other Subject", "MAST10006", ann.ID)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/groups/"+target.ID.Hex()+"/similar", testutil.AsTestUser(ann))
	req = testutil.WithChiURLParam(req, "id", target.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeSimilar(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	var got struct {
		Similar []struct {
			Group struct {
				Name string `json:"name"`
			} `json:"group"`
			Score float64 `json:"similarity_score"`
		} `json:"similar_groups"`
	}
	rec.DecodeJSON(t, &got)
	if len(got.Similar) == 0 || got.Similar[0].Group.Name != "Algo Night Owls" {
		t.Fatalf("similar = %+v, want Algo Night Owls first", got.Similar)
	}
	for _, s := range got.Similar {
		if s.Group.Name == target.Name {
			t.Errorf("target listed as similar to itself")
		}
	}
}

func TestServeMembers(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	bob := fx.CreateUser(ctx, "Bob Tan", "bob@student.unimelb.edu.au")
	eve := fx.CreateUser(ctx, "Eve Wu", "eve@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Algorithms Crew", "COMP20003", ann.ID)
	fx.CreateMembership(ctx, g.ID, ann.ID)
	fx.CreateMembership(ctx, g.ID, bob.ID)

	serve := func(u models.User, id string) *testutil.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/groups/"+id+"/members", testutil.AsTestUser(u))
		req = testutil.WithChiURLParam(req, "id", id)
		rec := testutil.NewRecorder()
		h.ServeMembers(rec, req)
		return rec
	}

	rec := serve(bob, g.ID.Hex())
	rec.AssertStatus(t, http.StatusOK)
	var got struct {
		CreatorID string `json:"creator_id"`
		Members   []struct {
			User struct {
				ID       string `json:"id"`
				FullName string `json:"full_name"`
				Email    string `json:"email"`
			} `json:"user"`
			JoinedAt  time.Time `json:"joined_at"`
			IsCreator bool      `json:"is_creator"`
		} `json:"members"`
	}
	rec.DecodeJSON(t, &got)
	if got.CreatorID != ann.ID.Hex() {
		t.Errorf("creator_id = %q, want %q", got.CreatorID, ann.ID.Hex())
	}
	if len(got.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(got.Members))
	}
	if got.Members[0].User.FullName != "Ann Lee" || !got.Members[0].IsCreator {
		t.Errorf("first member = %+v, want creator Ann", got.Members[0])
	}
	if got.Members[1].User.Email != "bob@student.unimelb.edu.au" || got.Members[1].IsCreator {
		t.Errorf("second member = %+v, want Bob", got.Members[1])
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("member list leaks password fields")
	}

	serve(eve, g.ID.Hex()).AssertStatus(t, http.StatusForbidden)
	serve(ann, "0123456789abcdef01234567").AssertStatus(t, http.StatusNotFound)
	serve(ann, "not-an-id").AssertStatus(t, http.StatusBadRequest)
}

func TestServeList_Filters(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	algo := fx.CreateGroup(ctx, "Algorithms Crew", "COMP20003", ann.ID)
	fx.CreateGroup(ctx, "Data Structures", "COMP20003", ann.ID)
	fx.CreateGroup(ctx, "Algebra Club", "MAST10007", ann.ID)
	fx.CreateMembership(ctx, algo.ID, ann.ID)

	list := func(target string) []string {
		t.Helper()
		req := testutil.NewAuthenticatedRequest(http.MethodGet, target, testutil.AsTestUser(ann))
		rec := testutil.NewRecorder()
		h.ServeList(rec, req)
		rec.AssertStatus(t, http.StatusOK)
		var got struct {
			Groups []struct {
				Name        string `json:"name"`
				MemberCount int64  `json:"member_count"`
			} `json:"groups"`
		}
		rec.DecodeJSON(t, &got)
		var names []string
		for _, g := range got.Groups {
			names = append(names, g.Name)
		}
		return names
	}

	tests := []struct {
		target string
		want   []string
	}{
		{"/api/groups", []string{"Algorithms Crew", "Data Structures", "Algebra Club"}},
		{"/api/groups?q=+alg+", []string{"Algorithms Crew", "Algebra Club"}},
		{"/api/groups?subject=%20comp20003%20", []string{"Algorithms Crew", "Data Structures"}},
		{"/api/groups?q=alg&subject=MAST10007", []string{"Algebra Club"}},
		{"/api/groups?limit=1", []string{"Algorithms Crew"}},
	}
	for _, tt := range tests {
		got := list(tt.target)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("GET %s = %v, want %v", tt.target, got, tt.want)
		}
	}
}
