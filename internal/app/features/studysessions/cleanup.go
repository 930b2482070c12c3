// internal/app/features/studysessions/cleanup.go
package studysessions

import (
	"net/http"

	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleCleanup handles POST /api/sessions/cleanup (admins only). It runs a
// reconciliation pass now instead of waiting for the worker.
func (h *Handler) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "cleanup sessions")
	defer cancel()

	n, err := h.Reconciler.Reconcile(ctx)
	if err != nil {
		h.Log.Error("manual reconcile failed", zap.Int("processed", n), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "cleanup failed")
		return
	}

	h.Log.Info("manual reconcile", zap.Int("processed", n))
	jsonutil.OK(w, map[string]int{"processed_count": n})
}
