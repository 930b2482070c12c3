// internal/app/features/flashcards/handler.go
package flashcards

import (
	"github.com/melbminds/studyhub/internal/app/system/moderation"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves flashcard folders and the cards inside them. A folder
// belongs to its creator; one shared with a group is readable by the group's
// members, but only the creator changes it.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Filter *moderation.Filter
}

func NewHandler(db *mongo.Database, filter *moderation.Filter, logger *zap.Logger) *Handler {
	if filter == nil {
		filter = moderation.NewFilter(moderation.DefaultMinConfidence)
	}
	return &Handler{
		DB:     db,
		Log:    logger,
		Filter: filter,
	}
}

type createFolderRequest struct {
	Name    string `json:"name" validate:"required,max=255" label:"Folder name"`
	GroupID string `json:"group_id" validate:"omitempty,objectid" label:"Group"`
}

type renameFolderRequest struct {
	Name string `json:"name" validate:"required,max=255" label:"Folder name"`
}

type cardRequest struct {
	Question string `json:"question" validate:"required,max=4000" label:"Question"`
	Answer   string `json:"answer" validate:"required,max=4000" label:"Answer"`
}
