// internal/app/store/counters/store.go
package counterstore

import (
	"context"
	"errors"

	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNegativeIncrement is returned for n < 0; counters only move forward.
var ErrNegativeIncrement = errors.New("counter increment must not be negative")

// Store manages named monotonic counters. The completed-sessions counter is
// a single document updated with an atomic upserting $inc.
type Store struct {
	c  *mongo.Collection
	id string
}

// New returns a Store bound to the completed-sessions counter.
func New(db *mongo.Database) *Store {
	return NewNamed(db, models.CompletedSessionsCounterID)
}

// NewNamed returns a Store bound to the counter with the given _id.
func NewNamed(db *mongo.Database, id string) *Store {
	return &Store{c: db.Collection("counters"), id: id}
}

// Increment adds n and returns the new value.
func (s *Store) Increment(ctx context.Context, n int64) (int64, error) {
	if n < 0 {
		return 0, ErrNegativeIncrement
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var out models.Counter
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": s.id},
		bson.M{"$inc": bson.M{"count": n}},
		opts,
	).Decode(&out)
	if err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Get returns the current value; a counter that was never incremented is 0.
func (s *Store) Get(ctx context.Context) (int64, error) {
	var out models.Counter
	err := s.c.FindOne(ctx, bson.M{"_id": s.id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return out.Count, nil
}
