// internal/app/features/notifications/handler.go
package notifications

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/melbminds/studyhub/internal/app/policy/grouppolicy"
	groupstore "github.com/melbminds/studyhub/internal/app/store/groups"
	notificationstore "github.com/melbminds/studyhub/internal/app/store/notifications"
	"github.com/melbminds/studyhub/internal/app/system/auth"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves a group's notification feed.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger}
}

// Routes is mounted at /api/groups/{id}/notifications.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Delete("/", h.HandleClear)
	return r
}

// ServeList handles GET: the newest notifications first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	g, ok := h.participantGroup(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list notifications")
	defer cancel()

	list, err := notificationstore.New(h.DB).ListRecent(ctx, g.ID)
	if err != nil {
		h.Log.Error("database error listing notifications", zap.String("group_id", g.ID.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	jsonutil.OK(w, map[string]any{"notifications": list})
}

// HandleClear handles DELETE: removes every notification of the group.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	g, ok := h.participantGroup(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "clear notifications")
	defer cancel()

	n, err := notificationstore.New(h.DB).ClearGroup(ctx, g.ID)
	if err != nil {
		h.Log.Error("database error clearing notifications", zap.String("group_id", g.ID.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	jsonutil.OK(w, map[string]int64{"deleted_count": n})
}

// participantGroup loads the {id} group and checks the caller belongs to it.
func (h *Handler) participantGroup(w http.ResponseWriter, r *http.Request) (models.Group, bool) {
	gid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return models.Group{}, false
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load group")
	defer cancel()

	g, err := groupstore.New(h.DB).GetByID(ctx, gid)
	if errors.Is(err, groupstore.ErrNotFound) {
		jsonutil.Error(w, http.StatusNotFound, "group not found")
		return models.Group{}, false
	}
	if err != nil {
		h.Log.Error("database error loading group", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return models.Group{}, false
	}
	allowed, err := grouppolicy.CanParticipate(ctx, h.DB, r, g)
	if err != nil {
		h.Log.Error("database error checking membership", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return models.Group{}, false
	}
	if !allowed {
		jsonutil.Error(w, http.StatusForbidden, "only group members can see notifications")
		return models.Group{}, false
	}
	return g, true
}
