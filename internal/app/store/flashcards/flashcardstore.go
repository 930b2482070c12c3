// internal/app/store/flashcards/flashcardstore.go
package flashcardstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrFolderNotFound = errors.New("flashcard folder not found")
	ErrCardNotFound   = errors.New("flashcard not found")
	ErrBlankName      = errors.New("folder name is required")
	ErrBlankCard      = errors.New("question and answer are required")
)

// FolderSummary is a folder with the number of cards in it.
type FolderSummary struct {
	models.FlashcardFolder `bson:",inline"`
	CardCount              int64 `bson:"card_count" json:"flashcard_count"`
}

// FolderFilter selects folders for ListFolders. Exactly one field is
// expected to be set.
type FolderFilter struct {
	CreatorID primitive.ObjectID
	GroupID   primitive.ObjectID
}

// Store reads and writes flashcard_folders and the flashcards inside them.
type Store struct {
	folders *mongo.Collection
	cards   *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		folders: db.Collection("flashcard_folders"),
		cards:   db.Collection("flashcards"),
	}
}

/* -------------------------------- folders --------------------------------- */

// CreateFolder inserts a folder. ID and timestamps are assigned here.
func (s *Store) CreateFolder(ctx context.Context, f models.FlashcardFolder) (models.FlashcardFolder, error) {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return models.FlashcardFolder{}, ErrBlankName
	}
	now := time.Now().UTC()
	f.ID = primitive.NewObjectID()
	f.CreatedAt = now
	f.UpdatedAt = now
	if _, err := s.folders.InsertOne(ctx, f); err != nil {
		return models.FlashcardFolder{}, err
	}
	return f, nil
}

func (s *Store) GetFolder(ctx context.Context, id primitive.ObjectID) (models.FlashcardFolder, error) {
	var f models.FlashcardFolder
	err := s.folders.FindOne(ctx, bson.M{"_id": id}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.FlashcardFolder{}, ErrFolderNotFound
	}
	return f, err
}

// ListFolders returns the matching folders, newest first, with card counts.
func (s *Store) ListFolders(ctx context.Context, f FolderFilter) ([]FolderSummary, error) {
	match := bson.M{}
	if !f.CreatorID.IsZero() {
		match["creator_id"] = f.CreatorID
	}
	if !f.GroupID.IsZero() {
		match["group_id"] = f.GroupID
	}

	pipe := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "flashcards",
			"localField":   "_id",
			"foreignField": "folder_id",
			"as":           "cards",
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{"card_count": bson.M{"$size": "$cards"}}}},
		bson.D{{Key: "$project", Value: bson.M{"cards": 0}}},
	}
	cur, err := s.folders.Aggregate(ctx, pipe)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []FolderSummary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RenameFolder sets a folder's name.
func (s *Store) RenameFolder(ctx context.Context, id primitive.ObjectID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrBlankName
	}
	res, err := s.folders.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"name": name, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrFolderNotFound
	}
	return nil
}

// DeleteFolder removes a folder and its cards. Cards go first so a failure
// never leaves cards pointing at a missing folder.
func (s *Store) DeleteFolder(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.cards.DeleteMany(ctx, bson.M{"folder_id": id}); err != nil {
		return err
	}
	res, err := s.folders.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrFolderNotFound
	}
	return nil
}

// DeleteByGroup removes every folder shared with a group, with their cards.
func (s *Store) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	ids, err := s.folders.Distinct(ctx, "_id", bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if _, err := s.cards.DeleteMany(ctx, bson.M{"folder_id": bson.M{"$in": ids}}); err != nil {
		return 0, err
	}
	res, err := s.folders.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

/* --------------------------------- cards ---------------------------------- */

// CreateCard adds a card to a folder. The caller checks the folder exists.
func (s *Store) CreateCard(ctx context.Context, folderID primitive.ObjectID, question, answer string) (models.Flashcard, error) {
	question, answer = strings.TrimSpace(question), strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return models.Flashcard{}, ErrBlankCard
	}
	now := time.Now().UTC()
	c := models.Flashcard{
		ID:        primitive.NewObjectID(),
		FolderID:  folderID,
		Question:  question,
		Answer:    answer,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.cards.InsertOne(ctx, c); err != nil {
		return models.Flashcard{}, err
	}
	return c, nil
}

func (s *Store) GetCard(ctx context.Context, id primitive.ObjectID) (models.Flashcard, error) {
	var c models.Flashcard
	err := s.cards.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Flashcard{}, ErrCardNotFound
	}
	return c, err
}

// ListCards returns a folder's cards in creation order.
func (s *Store) ListCards(ctx context.Context, folderID primitive.ObjectID) ([]models.Flashcard, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.cards.Find(ctx, bson.M{"folder_id": folderID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Flashcard{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateCard replaces a card's question and answer and returns the result.
func (s *Store) UpdateCard(ctx context.Context, id primitive.ObjectID, question, answer string) (models.Flashcard, error) {
	question, answer = strings.TrimSpace(question), strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return models.Flashcard{}, ErrBlankCard
	}
	var c models.Flashcard
	err := s.cards.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"question": question, "answer": answer, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Flashcard{}, ErrCardNotFound
	}
	return c, err
}

func (s *Store) DeleteCard(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.cards.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrCardNotFound
	}
	return nil
}
