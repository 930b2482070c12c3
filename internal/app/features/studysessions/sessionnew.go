// internal/app/features/studysessions/sessionnew.go
package studysessions

import (
	"errors"
	"net/http"

	"github.com/melbminds/studyhub/internal/app/policy/grouppolicy"
	groupstore "github.com/melbminds/studyhub/internal/app/store/groups"
	sessionstore "github.com/melbminds/studyhub/internal/app/store/studysessions"
	"github.com/melbminds/studyhub/internal/app/system/authz"
	"github.com/melbminds/studyhub/internal/app/system/inputval"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.uber.org/zap"
)

// HandleCreate handles POST /api/groups/{id}/sessions. Only the group
// creator schedules sessions, and a new session must not have ended already.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	gid, ok := jsonutil.PathID(w, r, "id")
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create session")
	defer cancel()

	g, err := groupstore.New(h.DB).GetByID(ctx, gid)
	if errors.Is(err, groupstore.ErrNotFound) {
		jsonutil.Error(w, http.StatusNotFound, "group not found")
		return
	}
	if err != nil {
		h.Log.Error("database error loading group", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if !grouppolicy.IsCreator(r, g) {
		jsonutil.Error(w, http.StatusForbidden, "only the group creator can schedule sessions")
		return
	}

	sess := models.StudySession{
		GroupID:     gid,
		CreatorID:   uid,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		Description: req.Description,
	}
	if err := sess.Validate(); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.Clock.Cutoff().IsPast(sess.Date, sess.EndTime) {
		jsonutil.Error(w, http.StatusBadRequest, "session must end in the future")
		return
	}

	created, err := sessionstore.New(h.DB).Create(ctx, sess)
	if err != nil {
		h.Log.Error("database error creating session", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.Log.Info("session scheduled",
		zap.String("session_id", created.ID.Hex()),
		zap.String("group_id", gid.Hex()))
	jsonutil.Write(w, http.StatusCreated, created)
}
