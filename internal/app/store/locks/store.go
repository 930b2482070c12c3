// internal/app/store/locks/store.go
package lockstore

import (
	"context"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Lease is a named, expiring lock document.
type Lease struct {
	Name      string    `bson:"_id"`
	Holder    string    `bson:"holder"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// Store hands out leases so that only one process runs a job at a time.
// Leases expire on their own; a crashed holder blocks others for at most
// one TTL.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("locks"), now: time.Now}
}

// Acquire takes or renews the named lease for holder. It returns false,
// without error, when another holder owns an unexpired lease.
func (s *Store) Acquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	now := s.now().UTC()
	filter := bson.M{
		"_id": name,
		"$or": []bson.M{
			{"expires_at": bson.M{"$lte": now}},
			{"holder": holder},
		},
	}
	update := bson.M{"$set": bson.M{"holder": holder, "expires_at": now.Add(ttl)}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var got Lease
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&got)
	if err != nil {
		// The filter missed an existing live lease, so the upsert tried to
		// insert a second document with the same _id.
		if wafflemongo.IsDup(err) {
			return false, nil
		}
		return false, err
	}
	return got.Holder == holder, nil
}

// Release drops the lease if holder still owns it.
func (s *Store) Release(ctx context.Context, name, holder string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": name, "holder": holder})
	return err
}
