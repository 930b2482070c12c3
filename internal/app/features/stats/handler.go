// internal/app/features/stats/handler.go
package stats

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	metricsstore "github.com/melbminds/studyhub/internal/app/store/metrics"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"github.com/melbminds/studyhub/internal/app/system/timezones"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB    *mongo.Database
	Clock *timezones.Reference
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, clock *timezones.Reference, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Clock: clock, Log: logger}
}

// Routes is mounted at /api/stats. The summary is public.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/summary", h.ServeSummary)
	return r
}

// ServeSummary returns platform totals. Counters that fail read as zero.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "stats summary")
	defer cancel()

	jsonutil.OK(w, metricsstore.FetchSummary(ctx, h.DB, h.Clock.Cutoff()))
}
