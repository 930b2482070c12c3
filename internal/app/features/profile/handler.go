// internal/app/features/profile/handler.go
package profile

import (
	"github.com/melbminds/studyhub/internal/app/system/moderation"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns all user profile handlers.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Filter *moderation.Filter
}

// NewHandler constructs a Handler bound to the given Mongo database and logger.
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
