// internal/app/features/messages/handler.go
package messages

import (
	"github.com/melbminds/studyhub/internal/app/system/moderation"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MaxMessageLength caps a chat message after sanitizing, in runes.
const MaxMessageLength = 2000

// Submitter queues a stored message for moderation without blocking.
type Submitter interface {
	Submit(job moderation.Job) bool
}

// Handler serves group chat. Messages are stored first and moderated in the
// background; flagged ones are removed by the moderation pool.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	Moderation Submitter
}

func NewHandler(db *mongo.Database, moderationPool Submitter, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		Moderation: moderationPool,
	}
}
