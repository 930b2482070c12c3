// internal/app/features/groups/similar.go
package groups

import (
	"net/http"

	groupstore "github.com/melbminds/studyhub/internal/app/store/groups"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/paging"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"github.com/melbminds/studyhub/internal/domain/scoring"
	"go.uber.org/zap"
)

// ServeSimilar handles GET /api/groups/{id}/similar?limit=N.
func (h *Handler) ServeSimilar(w http.ResponseWriter, r *http.Request) {
	gid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return
	}
	target, ok := h.loadGroup(w, r, gid)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "similar groups")
	defer cancel()

	all, err := groupstore.New(h.DB).List(ctx, 0)
	if err != nil {
		h.Log.Error("database error listing groups", zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	k := int(paging.ParseLimit(r, scoring.DefaultSimilarLimit))
	similar := scoring.TopSimilar(target, all, k, scoring.DefaultMinSimilarity)
	if similar == nil {
		similar = []scoring.Similar{}
	}
	jsonutil.OK(w, map[string]any{"similar_groups": similar})
}
