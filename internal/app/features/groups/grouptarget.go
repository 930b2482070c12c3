// internal/app/features/groups/grouptarget.go
package groups

import (
	"errors"
	"net/http"

	groupstore "github.com/melbminds/studyhub/internal/app/store/groups"
	"github.com/melbminds/studyhub/internal/app/system/authz"
	"github.com/melbminds/studyhub/internal/app/system/inputval"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleUpdateTarget handles PATCH /api/groups/{id}/target. Only the creator
// may change the target; the credited hours are left alone.
func (h *Handler) HandleUpdateTarget(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	gid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return
	}

	var req targetRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.Error(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update target")
	defer cancel()

	store := groupstore.New(h.DB)
	err := store.UpdateTarget(ctx, gid, uid, req.TargetHours)
	switch {
	case err == nil:
	case errors.Is(err, groupstore.ErrNotFound):
		jsonutil.Error(w, http.StatusNotFound, "group not found")
		return
	case errors.Is(err, groupstore.ErrNotCreator):
		jsonutil.Error(w, http.StatusForbidden, err.Error())
		return
	default:
		h.Log.Error("database error updating target", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	g, err := store.GetByID(ctx, gid)
	if err != nil {
		h.Log.Error("database error reloading group", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	progress, err := h.Projector.Project(ctx, g)
	if err != nil {
		h.Log.Error("project progress failed", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	jsonutil.OK(w, progress)
}
