// internal/app/features/studysessions/sessionedit.go
package studysessions

import (
	"errors"
	"net/http"

	sessionstore "github.com/melbminds/studyhub/internal/app/store/studysessions"
	"github.com/melbminds/studyhub/internal/app/system/authz"
	"github.com/melbminds/studyhub/internal/app/system/inputval"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.uber.org/zap"
)

// HandleUpdate handles PATCH /api/sessions/{id}. The body carries the whole
// schedule.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return
	}

	var req sessionRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	req.normalize()
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.Error(w, http.StatusBadRequest, res.First())
		return
	}
	if h.Clock.Cutoff().IsPast(req.Date, req.EndTime) {
		jsonutil.Error(w, http.StatusBadRequest, "session must end in the future")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "reschedule session")
	defer cancel()

	sess, err := sessionstore.New(h.DB).Reschedule(ctx, sid, uid, sessionstore.Schedule{
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		Description: req.Description,
	})
	switch {
	case err == nil:
	case errors.Is(err, sessionstore.ErrNotFound):
		jsonutil.Error(w, http.StatusNotFound, "session not found")
		return
	case errors.Is(err, sessionstore.ErrNotCreator):
		jsonutil.Error(w, http.StatusForbidden, err.Error())
		return
	case errors.Is(err, models.ErrInvalidSessionWindow):
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	default:
		h.Log.Error("database error rescheduling session", zap.String("session_id", sid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.Log.Info("session rescheduled", zap.String("session_id", sid.Hex()))
	jsonutil.OK(w, sess)
}

// HandleDelete handles DELETE /api/sessions/{id}. A deleted session is never
// credited to the group.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete session")
	defer cancel()

	err := sessionstore.New(h.DB).Delete(ctx, sid, uid)
	switch {
	case err == nil:
	case errors.Is(err, sessionstore.ErrNotFound):
		jsonutil.Error(w, http.StatusNotFound, "session not found")
		return
	case errors.Is(err, sessionstore.ErrNotCreator):
		jsonutil.Error(w, http.StatusForbidden, err.Error())
		return
	default:
		h.Log.Error("database error deleting session", zap.String("session_id", sid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.Log.Info("session deleted", zap.String("session_id", sid.Hex()))
	w.WriteHeader(http.StatusNoContent)
}
