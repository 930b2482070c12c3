// internal/app/store/ratings/store.go
package ratingstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Score bounds.
const (
	MinScore = 1
	MaxScore = 5
)

var ErrScoreOutOfRange = errors.New("rating must be between 1 and 5")

// Summary is the aggregate rating of one group.
type Summary struct {
	Average float64
	Count   int64
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_ratings")}
}

// Upsert records a user's score for a group, replacing any earlier score.
func (s *Store) Upsert(ctx context.Context, groupID, userID primitive.ObjectID, score int) error {
	if score < MinScore || score > MaxScore {
		return ErrScoreOutOfRange
	}
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"group_id": groupID, "user_id": userID},
		bson.M{
			"$set":         bson.M{"score": score, "updated_at": now},
			"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// SummaryFor returns the average score of one group. A group with no ratings
// has a zero Summary.
func (s *Store) SummaryFor(ctx context.Context, groupID primitive.ObjectID) (Summary, error) {
	all, err := s.summaries(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return Summary{}, err
	}
	return all[groupID], nil
}

// Summaries returns rating summaries for every rated group.
func (s *Store) Summaries(ctx context.Context) (map[primitive.ObjectID]Summary, error) {
	return s.summaries(ctx, bson.M{})
}

func (s *Store) summaries(ctx context.Context, match bson.M) (map[primitive.ObjectID]Summary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id": "$group_id",
			"avg": bson.M{"$avg": "$score"},
			"n":   bson.M{"$sum": 1},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[primitive.ObjectID]Summary)
	for cur.Next(ctx) {
		var row struct {
			ID  primitive.ObjectID `bson:"_id"`
			Avg float64            `bson:"avg"`
			N   int64              `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = Summary{Average: row.Avg, Count: row.N}
	}
	return out, cur.Err()
}

// DeleteByGroup removes every rating of a group.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
