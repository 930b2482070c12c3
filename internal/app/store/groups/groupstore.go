// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/melbminds/studyhub/internal/app/system/normalize"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound           = errors.New("group not found")
	ErrDuplicateGroupName = errors.New("a group with this name already exists for this subject")
	ErrNotCreator         = errors.New("only the group creator can do this")
	ErrNegativeHours      = errors.New("hours must not be negative")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Group{}, ErrNotFound
	}
	if err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// Create inserts a group. The progress ledger always starts at zero.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.Name = normalize.Name(g.Name)
	g.NameCI = text.Fold(g.Name)
	g.SubjectCode = normalize.SubjectCode(g.SubjectCode)
	g.Tags = normalize.Tags(g.Tags)
	g.PersonalityTags = normalize.Tags(g.PersonalityTags)
	g.ProgressHours = 0
	if g.TargetHours < 0 {
		g.TargetHours = 0
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Group{}, ErrDuplicateGroupName
		}
		return models.Group{}, err
	}
	return g, nil
}

// List returns groups in creation order (oldest first).
func (s *Store) List(ctx context.Context, limit int64) ([]models.Group, error) {
	return s.Search(ctx, ListFilter{}, limit)
}

// ListFilter narrows Search. Empty fields match everything.
type ListFilter struct {
	NamePrefix  string // case-insensitive, matched against name_ci
	SubjectCode string // exact, after normalization
}

// Search returns the groups matching f in creation order (oldest first).
func (s *Store) Search(ctx context.Context, f ListFilter, limit int64) ([]models.Group, error) {
	filter := bson.M{}
	if f.NamePrefix != "" {
		filter["name_ci"] = bson.M{"$regex": "^" + regexp.QuoteMeta(text.Fold(f.NamePrefix))}
	}
	if f.SubjectCode != "" {
		filter["subject_code"] = normalize.SubjectCode(f.SubjectCode)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateTarget sets the group's target hours. The ledger is not touched.
func (s *Store) UpdateTarget(ctx context.Context, id, actorID primitive.ObjectID, hours float64) error {
	if hours < 0 {
		return ErrNegativeHours
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "creator_id": actorID},
		bson.M{"$set": bson.M{"target_hours": hours, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrNotCreator
	}
	return nil
}

// AddHours credits hours to the group's progress ledger. The update is a
// single $inc so concurrent credits never lose each other.
func (s *Store) AddHours(ctx context.Context, id primitive.ObjectID, hours float64) error {
	if hours < 0 {
		return ErrNegativeHours
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"progress_hours": hours},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("credit %v hours to group %s: %w", hours, id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a group by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
