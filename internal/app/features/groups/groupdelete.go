// internal/app/features/groups/groupdelete.go
package groups

import (
	"context"
	"fmt"
	"net/http"

	"github.com/melbminds/studyhub/internal/app/policy/grouppolicy"
	flashcardstore "github.com/melbminds/studyhub/internal/app/store/flashcards"
	groupstore "github.com/melbminds/studyhub/internal/app/store/groups"
	membershipstore "github.com/melbminds/studyhub/internal/app/store/memberships"
	messagestore "github.com/melbminds/studyhub/internal/app/store/messages"
	notificationstore "github.com/melbminds/studyhub/internal/app/store/notifications"
	ratingstore "github.com/melbminds/studyhub/internal/app/store/ratings"
	sessionstore "github.com/melbminds/studyhub/internal/app/store/studysessions"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"github.com/melbminds/studyhub/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleDelete handles DELETE /api/groups/{id}. Admins or the creator may
// delete; everything hanging off the group goes with it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	gid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return
	}
	g, ok := h.loadGroup(w, r, gid)
	if !ok {
		return
	}
	if !grouppolicy.CanDelete(r, g) {
		jsonutil.Error(w, http.StatusForbidden, "only the group creator can delete this group")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete group")
	defer cancel()

	if err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		return h.cascadeDelete(ctx, gid)
	}); err != nil {
		h.Log.Error("database error deleting group", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.Log.Info("group deleted", zap.String("group_id", gid.Hex()))
	w.WriteHeader(http.StatusNoContent)
}

// cascadeDelete removes the group's dependents before the group itself so a
// partial failure never leaves orphans pointing at a missing group.
func (h *Handler) cascadeDelete(ctx context.Context, gid primitive.ObjectID) error {
	steps := []struct {
		name string
		fn   func(context.Context, primitive.ObjectID) (int64, error)
	}{
		{"sessions", sessionstore.New(h.DB).DeleteByGroup},
		{"notifications", notificationstore.New(h.DB).ClearGroup},
		{"ratings", ratingstore.New(h.DB).DeleteByGroup},
		{"messages", messagestore.New(h.DB).DeleteByGroup},
		{"flashcards", flashcardstore.New(h.DB).DeleteByGroup},
		{"memberships", membershipstore.New(h.DB).DeleteByGroup},
		{"group", groupstore.New(h.DB).Delete},
	}
	for _, s := range steps {
		if _, err := s.fn(ctx, gid); err != nil {
			return fmt.Errorf("delete %s: %w", s.name, err)
		}
	}
	return nil
}
