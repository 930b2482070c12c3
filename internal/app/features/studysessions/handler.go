// internal/app/features/studysessions/handler.go
package studysessions

import (
	"context"

	"github.com/melbminds/studyhub/internal/app/system/timezones"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// PassRunner runs one reconciliation pass and reports how many sessions it
// processed.
type PassRunner interface {
	Reconcile(ctx context.Context) (int, error)
}

// Handler serves the study-session endpoints, both the ones nested under a
// group and the ones addressed by session id.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	Clock      *timezones.Reference
	Reconciler PassRunner
}

func NewHandler(db *mongo.Database, clock *timezones.Reference, reconciler PassRunner, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		Clock:      clock,
		Reconciler: reconciler,
	}
}
