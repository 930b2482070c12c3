// internal/domain/models/flashcard.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FlashcardFolder groups a user's cards. A folder may be shared with a study
// group, in which case the group's members can read it.
type FlashcardFolder struct {
	ID        primitive.ObjectID  `bson:"_id" json:"id"`
	Name      string              `bson:"name" json:"name"`
	CreatorID primitive.ObjectID  `bson:"creator_id" json:"creator_id"`
	GroupID   *primitive.ObjectID `bson:"group_id,omitempty" json:"group_id,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}

// Flashcard is one question/answer pair inside a folder.
type Flashcard struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	FolderID  primitive.ObjectID `bson:"folder_id" json:"folder_id"`
	Question  string             `bson:"question" json:"question"`
	Answer    string             `bson:"answer" json:"answer"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
