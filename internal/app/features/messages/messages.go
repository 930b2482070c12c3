// internal/app/features/messages/messages.go
package messages

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/melbminds/studyhub/internal/app/policy/grouppolicy"
	groupstore "github.com/melbminds/studyhub/internal/app/store/groups"
	messagestore "github.com/melbminds/studyhub/internal/app/store/messages"
	"github.com/melbminds/studyhub/internal/app/system/authz"
	"github.com/melbminds/studyhub/internal/app/system/htmlsanitize"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/moderation"
	"github.com/melbminds/studyhub/internal/app/system/paging"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.uber.org/zap"
)

type postRequest struct {
	Text string `json:"text"`
}

// ServeList handles GET /api/groups/{id}/messages?limit=N, oldest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	g, ok := h.participantGroup(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list messages")
	defer cancel()

	list, err := messagestore.New(h.DB).ListByGroup(ctx, g.ID, paging.ParseLimit(r, messagestore.DefaultLimit))
	if err != nil {
		h.Log.Error("database error listing messages", zap.String("group_id", g.ID.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if list == nil {
		list = []models.Message{}
	}
	jsonutil.OK(w, map[string]any{"messages": list})
}

// HandlePost handles POST /api/groups/{id}/messages. The message is stored
// and returned right away; moderation runs afterwards.
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req postRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	text := htmlsanitize.PlainText(req.Text)
	if text == "" {
		jsonutil.Error(w, http.StatusBadRequest, "message text is required")
		return
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		jsonutil.Error(w, http.StatusBadRequest, fmt.Sprintf("message must be at most %d characters", MaxMessageLength))
		return
	}

	g, ok := h.participantGroup(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "post message")
	defer cancel()

	msg, err := messagestore.New(h.DB).Create(ctx, g.ID, uid, text)
	if err != nil {
		h.Log.Error("database error storing message", zap.String("group_id", g.ID.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	if h.Moderation != nil {
		if !h.Moderation.Submit(moderation.Job{ID: msg.ID, GroupID: g.ID, Text: msg.Text}) {
			h.Log.Warn("moderation queue full; message left unmoderated",
				zap.String("message_id", msg.ID.Hex()),
				zap.String("group_id", g.ID.Hex()))
		}
	}

	jsonutil.Write(w, http.StatusCreated, msg)
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
		jsonutil.Error(w, http.StatusForbidden, "only group members can use the group chat")
		return models.Group{}, false
	}
	return g, true
}
