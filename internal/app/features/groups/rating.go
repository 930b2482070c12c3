// internal/app/features/groups/rating.go
package groups

import (
	"net/http"

	"github.com/melbminds/studyhub/internal/app/policy/grouppolicy"
	ratingstore "github.com/melbminds/studyhub/internal/app/store/ratings"
	"github.com/melbminds/studyhub/internal/app/system/authz"
	"github.com/melbminds/studyhub/internal/app/system/inputval"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleRate handles POST /api/groups/{id}/rating. Members (and the creator)
// may rate; a second rating replaces the first.
func (h *Handler) HandleRate(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	gid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return
	}

	var req ratingRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.Error(w, http.StatusBadRequest, res.First())
		return
	}

	g, ok := h.loadGroup(w, r, gid)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "rate group")
	defer cancel()

	allowed, err := grouppolicy.CanParticipate(ctx, h.DB, r, g)
	if err != nil {
		h.Log.Error("database error checking membership", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if !allowed {
		jsonutil.Error(w, http.StatusForbidden, "only group members can rate this group")
		return
	}

	store := ratingstore.New(h.DB)
	if err := store.Upsert(ctx, gid, uid, req.Score); err != nil {
		h.Log.Error("database error saving rating", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	sum, err := store.SummaryFor(ctx, gid)
	if err != nil {
		h.Log.Error("database error loading rating", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	jsonutil.OK(w, map[string]any{
		"score":          req.Score,
		"average_rating": round2(sum.Average),
		"rating_count":   sum.Count,
	})
}
