// internal/app/store/notifications/store.go
package notificationstore

import (
	"context"
	"time"

	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecentLimit caps how many notifications a read returns.
const RecentLimit = 50

// Store is the append-only per-group notification log.
type Store struct {
	c *mongo.Collection
}

// New creates a new notifications Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// Create appends a notification to a group's feed.
func (s *Store) Create(ctx context.Context, groupID primitive.ObjectID, message string) (models.Notification, error) {
	n := models.Notification{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// Delete removes one notification. Deleting a missing notification is not an
// error; the reconciler uses this to undo an emitted notification.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListRecent returns the group's newest notifications, newest first, capped at
// RecentLimit.
func (s *Store) ListRecent(ctx context.Context, groupID primitive.ObjectID) ([]models.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(RecentLimit)

	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClearGroup deletes every notification of a group.
func (s *Store) ClearGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
