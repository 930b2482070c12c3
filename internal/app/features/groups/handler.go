// internal/app/features/groups/handler.go
package groups

import (
	"github.com/melbminds/studyhub/internal/app/reconcile"
	"github.com/melbminds/studyhub/internal/app/system/moderation"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the groups feature.
// It holds references to the Mongo database and the logger so that
// the various handlers (list, view, membership, rating, similar)
// can all share the same core dependencies.
type Handler struct {
	DB        *mongo.Database
	Log       *zap.Logger
	Projector *reconcile.Projector
	Filter    *moderation.Filter
}

// NewHandler constructs a new groups Handler. It is typically called
// from the bootstrap BuildHandler function, where the application's
// DB, logger and progress projector are already initialized.
func NewHandler(db *mongo.Database, projector *reconcile.Projector, filter *moderation.Filter, logger *zap.Logger) *Handler {
	if filter == nil {
		filter = moderation.NewFilter(moderation.DefaultMinConfidence)
	}
	return &Handler{
		DB:        db,
		Log:       logger,
		Projector: projector,
		Filter:    filter,
	}
}
