package notifications_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/melbminds/studyhub/internal/app/features/notifications"
	"github.com/melbminds/studyhub/internal/domain/models"
	"github.com/melbminds/studyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func seed(t *testing.T, fx *testutil.Fixtures, groupID primitive.ObjectID, msg string, at time.Time) {
	t.Helper()
	if _, err := fx.DB().Collection("notifications").InsertOne(context.Background(), models.Notification{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		Message:   msg,
		CreatedAt: at,
	}); err != nil {
		t.Fatalf("seed notification: %v", err)
	}
}

func TestNotifications_ListAndClear(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	h := notifications.NewHandler(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	bob := fx.CreateUser(ctx, "Bob Tan", "bob@student.unimelb.edu.au")
	cat := fx.CreateUser(ctx, "Cat Ng", "cat@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Algorithms Crew", "COMP20003", ann.ID)
	fx.CreateMembership(ctx, g.ID, bob.ID)

	now := time.Now().UTC()
	seed(t, fx, g.ID, "older", now.Add(-time.Hour))
	seed(t, fx, g.ID, "newer", now)

	do := func(fn http.HandlerFunc, method string, u models.User) *testutil.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest(method, "/api/groups/"+g.ID.Hex()+"/notifications", testutil.AsTestUser(u))
		req = testutil.WithChiURLParam(req, "id", g.ID.Hex())
		rec := testutil.NewRecorder()
		fn(rec, req)
		return rec
	}

	do(h.ServeList, http.MethodGet, cat).AssertStatus(t, http.StatusForbidden)

	rec := do(h.ServeList, http.MethodGet, bob)
	rec.AssertStatus(t, http.StatusOK)
	var got struct {
		Notifications []models.Notification `json:"notifications"`
	}
	rec.DecodeJSON(t, &got)
	if len(got.Notifications) != 2 || got.Notifications[0].Message != "newer" {
		t.Fatalf("notifications = %+v, want newest first", got.Notifications)
	}

	do(h.HandleClear, http.MethodDelete, cat).AssertStatus(t, http.StatusForbidden)
	rec = do(h.HandleClear, http.MethodDelete, ann)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"deleted_count":2`)

	n, err := db.Collection("notifications").CountDocuments(ctx, bson.M{"group_id": g.ID})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("notifications left = %d", n)
	}
}
