package flashcards_test

import (
	"net/http"
	"testing"

	"github.com/melbminds/studyhub/internal/app/features/flashcards"
	flashcardstore "github.com/melbminds/studyhub/internal/app/store/flashcards"
	"github.com/melbminds/studyhub/internal/domain/models"
	"github.com/melbminds/studyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type env struct {
	h     *flashcards.Handler
	fx    *testutil.Fixtures
	store *flashcardstore.Store
	group models.Group
	ann   models.User // group creator and member
	bob   models.User // member
	cat   models.User // outsider
}

func setup(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	bob := fx.CreateUser(ctx, "Bob Tan", "bob@student.unimelb.edu.au")
	cat := fx.CreateUser(ctx, "Cat Ng", "cat@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Algorithms Crew", "COMP20003", ann.ID)
	fx.CreateMembership(ctx, g.ID, ann.ID)
	fx.CreateMembership(ctx, g.ID, bob.ID)

	return &env{
		h:     flashcards.NewHandler(db, nil, zap.NewNop()),
		fx:    fx,
		store: flashcardstore.New(db),
		group: g,
		ann:   ann,
		bob:   bob,
		cat:   cat,
	}
}

// call runs fn with u signed in, an optional JSON body, and an optional {id}.
func call(fn http.HandlerFunc, method, target string, u testutil.TestUser, id string, body any) *testutil.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = testutil.WithUser(testutil.NewJSONRequest(method, target, body), u)
	} else {
		req = testutil.NewAuthenticatedRequest(method, target, u)
	}
	if id != "" {
		req = testutil.WithChiURLParam(req, "id", id)
	}
	rec := testutil.NewRecorder()
	fn(rec, req)
	return rec
}

func (e *env) createFolder(t *testing.T, u models.User, body map[string]any) flashcardstore.FolderSummary {
	t.Helper()
	rec := call(e.h.HandleCreateFolder, http.MethodPost, "/api/flashcards/folders", testutil.AsTestUser(u), "", body)
	rec.AssertStatus(t, http.StatusCreated)
	var f flashcardstore.FolderSummary
	rec.DecodeJSON(t, &f)
	return f
}

func TestCreateFolder(t *testing.T) {
	e := setup(t)

	f := e.createFolder(t, e.ann, map[string]any{"name": "<b>Graphs</b>"})
	if f.Name != "Graphs" || f.CreatorID != e.ann.ID || f.GroupID != nil {
		t.Errorf("created folder = %+v", f)
	}

	shared := e.createFolder(t, e.bob, map[string]any{"name": "Shared", "group_id": e.group.ID.Hex()})
	if shared.GroupID == nil || *shared.GroupID != e.group.ID {
		t.Errorf("shared folder group = %v, want %s", shared.GroupID, e.group.ID.Hex())
	}

	for _, tt := range []struct {
		name string
		u    models.User
		body map[string]any
		want int
	}{
		{"blank name", e.ann, map[string]any{"name": "   "}, http.StatusBadRequest},
		{"bad group id", e.ann, map[string]any{"name": "X", "group_id": "nope"}, http.StatusBadRequest},
		{"outsider sharing", e.cat, map[string]any{"name": "X", "group_id": e.group.ID.Hex()}, http.StatusForbidden},
		{"unknown group", e.ann, map[string]any{"name": "X", "group_id": "0123456789abcdef01234567"}, http.StatusForbidden},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(e.h.HandleCreateFolder, http.MethodPost, "/api/flashcards/folders", testutil.AsTestUser(tt.u), "", tt.body)
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestServeFolders(t *testing.T) {
	e := setup(t)
	mine := e.createFolder(t, e.ann, map[string]any{"name": "Mine"})
	shared := e.createFolder(t, e.ann, map[string]any{"name": "Shared", "group_id": e.group.ID.Hex()})
	e.createFolder(t, e.cat, map[string]any{"name": "Cat's"})

	list := func(u models.User, target string, want int) []flashcardstore.FolderSummary {
		t.Helper()
		rec := call(e.h.ServeFolders, http.MethodGet, target, testutil.AsTestUser(u), "", nil)
		rec.AssertStatus(t, want)
		if want != http.StatusOK {
			return nil
		}
		var got struct {
			Folders []flashcardstore.FolderSummary `json:"folders"`
		}
		rec.DecodeJSON(t, &got)
		return got.Folders
	}

	own := list(e.ann, "/api/flashcards/folders", http.StatusOK)
	if len(own) != 2 || own[0].ID != shared.ID || own[1].ID != mine.ID {
		t.Errorf("own folders = %+v", own)
	}
	if none := list(e.bob, "/api/flashcards/folders", http.StatusOK); len(none) != 0 {
		t.Errorf("bob's own folders = %+v, want none", none)
	}
	group := list(e.bob, "/api/flashcards/folders?group="+e.group.ID.Hex(), http.StatusOK)
	if len(group) != 1 || group[0].ID != shared.ID {
		t.Errorf("group folders = %+v", group)
	}
	list(e.cat, "/api/flashcards/folders?group="+e.group.ID.Hex(), http.StatusForbidden)
	list(e.ann, "/api/flashcards/folders?group=zzz", http.StatusBadRequest)
}

func TestServeFolder_Access(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	private := e.createFolder(t, e.ann, map[string]any{"name": "Private"})
	shared := e.createFolder(t, e.ann, map[string]any{"name": "Shared", "group_id": e.group.ID.Hex()})
	if _, err := e.store.CreateCard(ctx, shared.ID, "BFS uses?", "A queue"); err != nil {
		t.Fatalf("CreateCard: %v", err)
	}

	view := func(u models.User, id string) *testutil.ResponseRecorder {
		return call(e.h.ServeFolder, http.MethodGet, "/api/flashcards/folders/"+id, testutil.AsTestUser(u), id, nil)
	}

	rec := view(e.bob, shared.ID.Hex())
	rec.AssertStatus(t, http.StatusOK)
	var got struct {
		Folder     flashcardstore.FolderSummary `json:"folder"`
		Flashcards []models.Flashcard           `json:"flashcards"`
		CanEdit    bool                         `json:"can_edit"`
	}
	rec.DecodeJSON(t, &got)
	if got.Folder.CardCount != 1 || len(got.Flashcards) != 1 || got.Flashcards[0].Answer != "A queue" {
		t.Errorf("folder view = %+v", got)
	}
	if got.CanEdit {
		t.Error("member should not be able to edit another user's folder")
	}

	view(e.cat, shared.ID.Hex()).AssertStatus(t, http.StatusNotFound)
	view(e.bob, private.ID.Hex()).AssertStatus(t, http.StatusNotFound)
	view(e.ann, private.ID.Hex()).AssertStatus(t, http.StatusOK)
	view(e.ann, "bad").AssertStatus(t, http.StatusBadRequest)
}

func TestCardLifecycle(t *testing.T) {
	e := setup(t)
	f := e.createFolder(t, e.ann, map[string]any{"name": "Sorting", "group_id": e.group.ID.Hex()})
	fid := f.ID.Hex()
	ann := testutil.AsTestUser(e.ann)
	bob := testutil.AsTestUser(e.bob)

	rec := call(e.h.HandleCreateCard, http.MethodPost, "/api/flashcards/folders/"+fid+"/cards", ann, fid,
		map[string]any{"question": "Quicksort worst case?", "answer": "O(n^2)"})
	rec.AssertStatus(t, http.StatusCreated)
	var card models.Flashcard
	rec.DecodeJSON(t, &card)
	if card.FolderID != f.ID || card.Question != "Quicksort worst case?" {
		t.Errorf("created card = %+v", card)
	}
	cid := card.ID.Hex()

	call(e.h.HandleCreateCard, http.MethodPost, "/api/flashcards/folders/"+fid+"/cards", ann, fid,
		map[string]any{"question": "Q", "answer": ""}).AssertStatus(t, http.StatusBadRequest)
	call(e.h.HandleCreateCard, http.MethodPost, "/api/flashcards/folders/"+fid+"/cards", bob, fid,
		map[string]any{"question": "Q", "answer": "A"}).AssertStatus(t, http.StatusForbidden)

	rec = call(e.h.HandleUpdateCard, http.MethodPatch, "/api/flashcards/cards/"+cid, ann, cid,
		map[string]any{"question": "Quicksort worst case?", "answer": "O(n^2) with a bad pivot"})
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "bad pivot")

	call(e.h.HandleUpdateCard, http.MethodPatch, "/api/flashcards/cards/"+cid, bob, cid,
		map[string]any{"question": "x", "answer": "y"}).AssertStatus(t, http.StatusForbidden)
	call(e.h.HandleDeleteCard, http.MethodDelete, "/api/flashcards/cards/"+cid, bob, cid, nil).AssertStatus(t, http.StatusForbidden)

	call(e.h.HandleDeleteCard, http.MethodDelete, "/api/flashcards/cards/"+cid, ann, cid, nil).AssertStatus(t, http.StatusNoContent)
	call(e.h.HandleDeleteCard, http.MethodDelete, "/api/flashcards/cards/"+cid, ann, cid, nil).AssertStatus(t, http.StatusNotFound)
}

func TestRenameAndDeleteFolder(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := e.createFolder(t, e.ann, map[string]any{"name": "Old", "group_id": e.group.ID.Hex()})
	fid := f.ID.Hex()
	if _, err := e.store.CreateCard(ctx, f.ID, "q", "a"); err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	ann := testutil.AsTestUser(e.ann)
	bob := testutil.AsTestUser(e.bob)

	rec := call(e.h.HandleRenameFolder, http.MethodPatch, "/api/flashcards/folders/"+fid, ann, fid, map[string]any{"name": "New"})
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"name":"New"`)
	call(e.h.HandleRenameFolder, http.MethodPatch, "/api/flashcards/folders/"+fid, bob, fid, map[string]any{"name": "Mine"}).
		AssertStatus(t, http.StatusForbidden)

	call(e.h.HandleDeleteFolder, http.MethodDelete, "/api/flashcards/folders/"+fid, bob, fid, nil).AssertStatus(t, http.StatusForbidden)
	call(e.h.HandleDeleteFolder, http.MethodDelete, "/api/flashcards/folders/"+fid, ann, fid, nil).AssertStatus(t, http.StatusNoContent)

	n, err := e.fx.DB().Collection("flashcards").CountDocuments(ctx, bson.M{"folder_id": f.ID})
	if err != nil || n != 0 {
		t.Errorf("cards after folder delete = %d, %v; want 0", n, err)
	}
	call(e.h.HandleDeleteFolder, http.MethodDelete, "/api/flashcards/folders/"+fid, ann, fid, nil).AssertStatus(t, http.StatusNotFound)
}

func TestDeleteFolder_AdminAllowed(t *testing.T) {
	e := setup(t)
	f := e.createFolder(t, e.ann, map[string]any{"name": "Private"})
	fid := f.ID.Hex()

	call(e.h.HandleDeleteFolder, http.MethodDelete, "/api/flashcards/folders/"+fid, testutil.AdminUser(), fid, nil).
		AssertStatus(t, http.StatusNoContent)
}
