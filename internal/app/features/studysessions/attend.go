// internal/app/features/studysessions/attend.go
package studysessions

import (
	"errors"
	"net/http"

	"github.com/melbminds/studyhub/internal/app/policy/grouppolicy"
	groupstore "github.com/melbminds/studyhub/internal/app/store/groups"
	sessionstore "github.com/melbminds/studyhub/internal/app/store/studysessions"
	"github.com/melbminds/studyhub/internal/app/system/authz"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleAttend handles POST /api/sessions/{id}/attend. Only members of the
// session's group (or its creator) may sign up.
func (h *Handler) HandleAttend(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "attend session")
	defer cancel()

	store := sessionstore.New(h.DB)
	sess, err := store.GetByID(ctx, sid)
	if errors.Is(err, sessionstore.ErrNotFound) {
		jsonutil.Error(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		h.Log.Error("database error loading session", zap.String("session_id", sid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	g, err := groupstore.New(h.DB).GetByID(ctx, sess.GroupID)
	if err != nil {
		h.Log.Error("database error loading group", zap.String("group_id", sess.GroupID.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	allowed, err := grouppolicy.CanParticipate(ctx, h.DB, r, g)
	if err != nil {
		h.Log.Error("database error checking membership", zap.String("group_id", g.ID.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if !allowed {
		jsonutil.Error(w, http.StatusForbidden, "only group members can attend this session")
		return
	}

	err = store.AddAttendee(ctx, sid, uid)
	switch {
	case err == nil:
	case errors.Is(err, sessionstore.ErrAlreadyAttending):
		jsonutil.Error(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, sessionstore.ErrNotFound):
		// Reconciled or deleted since we loaded it.
		jsonutil.Error(w, http.StatusNotFound, "session not found")
		return
	default:
		h.Log.Error("database error adding attendee", zap.String("session_id", sid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	jsonutil.OK(w, map[string]any{"attending": true})
}
