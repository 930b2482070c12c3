package metricsstore_test

import (
	"context"
	"testing"

	counterstore "github.com/melbminds/studyhub/internal/app/store/counters"
	metricsstore "github.com/melbminds/studyhub/internal/app/store/metrics"
	"github.com/melbminds/studyhub/internal/app/system/timezones"
	"github.com/melbminds/studyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var cutoff = timezones.Cutoff{Date: "2025-03-14", Time: "12:00:00"}

func TestFetchSummary_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	got := metricsstore.FetchSummary(ctx, db, cutoff)
	if got != (metricsstore.Summary{}) {
		t.Errorf("empty database: got %+v, want all zero", got)
	}
}

func TestFetchSummary_WithData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ann := fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")
	fx.CreateUser(ctx, "Bob Ng", "bob@student.unimelb.edu.au")
	g := fx.CreateGroup(ctx, "Algorithms", "COMP20003", ann.ID)
	fx.CreateGroup(ctx, "Calculus", "MAST10006", ann.ID)

	fx.CreateSession(ctx, g.ID, ann.ID, "2025-03-14", "11:00:00", "12:00:00") // ends at the cutoff: past
	fx.CreateSession(ctx, g.ID, ann.ID, "2025-03-14", "11:00:00", "12:30:00") // later today
	fx.CreateSession(ctx, g.ID, ann.ID, "2025-03-20", "10:00:00", "11:00:00")

	if _, err := db.Collection("messages").InsertOne(ctx, bson.M{
		"_id": primitive.NewObjectID(), "group_id": g.ID, "user_id": ann.ID, "text": "hi",
	}); err != nil {
		t.Fatalf("insert message: %v", err)
	}
	if _, err := counterstore.New(db).Increment(ctx, 7); err != nil {
		t.Fatalf("Increment: %v", err)
	}

	got := metricsstore.FetchSummary(ctx, db, cutoff)
	want := metricsstore.Summary{
		Users:             2,
		Groups:            2,
		SessionsCompleted: 7,
		Messages:          1,
		UpcomingSessions:  2,
	}
	if got != want {
		t.Errorf("FetchSummary = %+v, want %+v", got, want)
	}
}

func TestFetchSummary_CancelledContext(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx.CreateUser(ctx, "Ann Lee", "ann@student.unimelb.edu.au")

	dead, stop := context.WithCancel(ctx)
	stop()

	// Counters that fail read as zero instead of failing the summary.
	got := metricsstore.FetchSummary(dead, db, cutoff)
	if got.Users != 0 {
		t.Errorf("Users = %d, want 0 on a cancelled context", got.Users)
	}
}
