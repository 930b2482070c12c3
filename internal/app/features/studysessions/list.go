// internal/app/features/studysessions/list.go
package studysessions

import (
	"errors"
	"net/http"

	groupstore "github.com/melbminds/studyhub/internal/app/store/groups"
	sessionstore "github.com/melbminds/studyhub/internal/app/store/studysessions"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ServeUpcoming handles GET /api/groups/{id}/sessions. Only sessions that
// have not ended yet are listed, ordered by date then start time.
func (h *Handler) ServeUpcoming(w http.ResponseWriter, r *http.Request) {
	gid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list sessions")
	defer cancel()

	if _, err := groupstore.New(h.DB).GetByID(ctx, gid); err != nil {
		if errors.Is(err, groupstore.ErrNotFound) {
			jsonutil.Error(w, http.StatusNotFound, "group not found")
			return
		}
		h.Log.Error("database error loading group", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	store := sessionstore.New(h.DB)
	sessions, err := store.ListUpcoming(ctx, h.Clock.Cutoff(), &gid)
	if err != nil {
		h.Log.Error("database error listing sessions", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	out := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		n, err := store.CountAttendees(ctx, s.ID)
		if err != nil {
			h.Log.Error("database error counting attendees", zap.String("session_id", s.ID.Hex()), zap.Error(err))
			jsonutil.Error(w, http.StatusInternalServerError, "database error")
			return
		}
		out = append(out, sessionView{StudySession: s, AttendeeCount: n})
	}
	jsonutil.OK(w, map[string]any{"sessions": out})
}
