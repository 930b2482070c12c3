package validators_test

import (
	"context"
	"testing"
	"time"

	"github.com/melbminds/studyhub/internal/app/system/validators"
	"github.com/melbminds/studyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) (*mongo.Database, context.Context) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db, ctx
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db, ctx := setup(t)

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db, ctx := setup(t)

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := make(map[string]bool)
	for _, n := range names {
		have[n] = true
	}
	for _, want := range validators.Collections {
		if !have[want] {
			t.Errorf("expected collection %q to exist", want)
		}
	}
}

func TestUsersValidator(t *testing.T) {
	db, ctx := setup(t)
	users := db.Collection("users")

	valid := bson.M{
		"full_name":     "Ann Lee",
		"email":         "ann@student.unimelb.edu.au",
		"email_ci":      "ann@student.unimelb.edu.au",
		"password_hash": "$2a$10$abc",
		"role":          "student",
	}
	if _, err := users.InsertOne(ctx, valid); err != nil {
		t.Errorf("insert valid user failed: %v", err)
	}

	if _, err := users.InsertOne(ctx, bson.M{"full_name": "No Email"}); err == nil {
		t.Error("expected validation error for missing required fields")
	}

	bad := bson.M{}
	for k, v := range valid {
		bad[k] = v
	}
	bad["role"] = "superadmin"
	if _, err := users.InsertOne(ctx, bad); err == nil {
		t.Error("expected validation error for unknown role")
	}
}

func TestGroupsValidator_NegativeProgress(t *testing.T) {
	db, ctx := setup(t)
	groups := db.Collection("groups")

	doc := func(progress float64) bson.M {
		return bson.M{
			"name":           "Algorithms",
			"name_ci":        "algorithms",
			"subject_code":   "COMP20003",
			"creator_id":     primitive.NewObjectID(),
			"progress_hours": progress,
		}
	}
	if _, err := groups.InsertOne(ctx, doc(1.5)); err != nil {
		t.Errorf("insert valid group failed: %v", err)
	}
	if _, err := groups.InsertOne(ctx, doc(-1)); err == nil {
		t.Error("expected validation error for negative progress_hours")
	}
}

func TestStudySessionsValidator_Formats(t *testing.T) {
	db, ctx := setup(t)
	sessions := db.Collection("study_sessions")

	doc := func(date, start, end string) bson.M {
		return bson.M{
			"group_id":   primitive.NewObjectID(),
			"creator_id": primitive.NewObjectID(),
			"date":       date,
			"start_time": start,
			"end_time":   end,
			"location":   "Baillieu Library",
		}
	}

	if _, err := sessions.InsertOne(ctx, doc("2025-03-14", "10:00:00", "12:00:00")); err != nil {
		t.Errorf("insert valid session failed: %v", err)
	}
	tests := []struct {
		name             string
		date, start, end string
	}{
		{"short time", "2025-03-14", "10:00", "12:00:00"},
		{"bad date", "14/03/2025", "10:00:00", "12:00:00"},
	}
	for _, tt := range tests {
		if _, err := sessions.InsertOne(ctx, doc(tt.date, tt.start, tt.end)); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestRatingsValidator_Range(t *testing.T) {
	db, ctx := setup(t)
	ratings := db.Collection("group_ratings")

	for _, score := range []int{1, 5} {
		if _, err := ratings.InsertOne(ctx, bson.M{
			"group_id": primitive.NewObjectID(),
			"user_id":  primitive.NewObjectID(),
			"score":    score,
		}); err != nil {
			t.Errorf("score %d rejected: %v", score, err)
		}
	}
	for _, score := range []int{0, 6} {
		if _, err := ratings.InsertOne(ctx, bson.M{
			"group_id": primitive.NewObjectID(),
			"user_id":  primitive.NewObjectID(),
			"score":    score,
		}); err == nil {
			t.Errorf("score %d accepted", score)
		}
	}
}

func TestMessagesValidator_BlankText(t *testing.T) {
	db, ctx := setup(t)

	_, err := db.Collection("messages").InsertOne(ctx, bson.M{
		"group_id":   primitive.NewObjectID(),
		"user_id":    primitive.NewObjectID(),
		"text":       "   ",
		"created_at": time.Now(),
	})
	if err == nil {
		t.Error("expected validation error for blank message text")
	}
}

func TestFlashcardsValidator_Required(t *testing.T) {
	db, ctx := setup(t)

	if _, err := db.Collection("flashcards").InsertOne(ctx, bson.M{
		"folder_id":  primitive.NewObjectID(),
		"question":   "What is a heap?",
		"answer":     "A tree with the heap property",
		"created_at": time.Now(),
	}); err != nil {
		t.Errorf("valid flashcard rejected: %v", err)
	}
	if _, err := db.Collection("flashcards").InsertOne(ctx, bson.M{
		"folder_id":  primitive.NewObjectID(),
		"question":   "What is a heap?",
		"answer":     " ",
		"created_at": time.Now(),
	}); err == nil {
		t.Error("expected validation error for blank answer")
	}
	if _, err := db.Collection("flashcard_folders").InsertOne(ctx, bson.M{
		"name":       "Heaps",
		"created_at": time.Now(),
	}); err == nil {
		t.Error("expected validation error for folder without creator")
	}
}

func TestLocks_NoValidator(t *testing.T) {
	db, ctx := setup(t)

	if _, err := db.Collection("locks").InsertOne(ctx, bson.M{"_id": "anything", "x": 1}); err != nil {
		t.Errorf("locks should accept any document: %v", err)
	}
}
