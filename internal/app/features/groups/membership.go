// internal/app/features/groups/membership.go
package groups

import (
	"errors"
	"net/http"

	"github.com/melbminds/studyhub/internal/app/policy/grouppolicy"
	membershipstore "github.com/melbminds/studyhub/internal/app/store/memberships"
	"github.com/melbminds/studyhub/internal/app/system/authz"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleJoin handles POST /api/groups/{id}/join.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	gid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return
	}
	if _, ok := h.loadGroup(w, r, gid); !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "join group")
	defer cancel()

	err := membershipstore.New(h.DB).Add(ctx, gid, uid)
	switch {
	case err == nil:
	case errors.Is(err, membershipstore.ErrDuplicateMembership):
		jsonutil.Error(w, http.StatusConflict, err.Error())
		return
	default:
		h.Log.Error("database error joining group", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.Log.Info("member joined", zap.String("group_id", gid.Hex()), zap.String("user_id", uid.Hex()))
	jsonutil.OK(w, map[string]any{"joined": true})
}

// HandleLeave handles POST /api/groups/{id}/leave. The creator cannot leave
// their own group.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	gid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return
	}
	g, ok := h.loadGroup(w, r, gid)
	if !ok {
		return
	}
	if grouppolicy.IsCreator(r, g) {
		jsonutil.Error(w, http.StatusBadRequest, "the group creator cannot leave the group")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "leave group")
	defer cancel()

	err := membershipstore.New(h.DB).Remove(ctx, gid, uid)
	switch {
	case err == nil:
	case errors.Is(err, membershipstore.ErrNotMember):
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	default:
		h.Log.Error("database error leaving group", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.Log.Info("member left", zap.String("group_id", gid.Hex()), zap.String("user_id", uid.Hex()))
	jsonutil.OK(w, map[string]any{"left": true})
}
