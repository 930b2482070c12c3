package txn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/melbminds/studyhub/internal/app/system/txn"
	"github.com/melbminds/studyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unrelated", errors.New("duplicate key"), false},
		{"code 20", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}, true},
		{"code 51", mongo.CommandError{Code: 51}, true},
		{"code 263", mongo.CommandError{Code: 263}, true},
		{"other code", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}, false},
		{"wrapped code", errors.Join(errors.New("claim session"), mongo.CommandError{Code: 20}), true},
		{"replica set wording", errors.New("Transaction requires a REPLICA SET"), true},
		{"session wording", errors.New("sessions are not supported by this deployment"), true},
		{"transaction alone", errors.New("transaction aborted"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := txn.IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func replicaSet(ctx context.Context, db *mongo.Database) bool {
	var hello bson.M
	if err := db.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return false
	}
	_, ok := hello["setName"]
	return ok
}

func TestRunner_CommitsBothWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r := txn.Runner{DB: db, Log: zap.NewNop()}
	err := r.Run(ctx, func(ctx context.Context) error {
		if _, err := db.Collection("notifications").InsertOne(ctx, bson.M{"message": "ended"}); err != nil {
			return err
		}
		_, err := db.Collection("counters").InsertOne(ctx, bson.M{"_id": "completed_sessions", "count": 1})
		return err
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, coll := range []string{"notifications", "counters"} {
		if n, _ := db.Collection(coll).CountDocuments(ctx, bson.M{}); n != 1 {
			t.Errorf("%s has %d documents, want 1", coll, n)
		}
	}
}

func TestRun_ErrorAbortsUnit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := db.CreateCollection(ctx, "notifications"); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
	boom := errors.New("ledger unavailable")
	err := txn.Run(ctx, db, zap.NewNop(), func(ctx context.Context) error {
		if _, err := db.Collection("notifications").InsertOne(ctx, bson.M{"message": "ended"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want %v", err, boom)
	}

	if !replicaSet(ctx, db) {
		t.Skip("standalone server: no rollback to observe")
	}
	if n, _ := db.Collection("notifications").CountDocuments(ctx, bson.M{}); n != 0 {
		t.Errorf("aborted unit left %d notifications", n)
	}
}
