// internal/app/features/groups/members.go
package groups

import (
	"net/http"

	"github.com/melbminds/studyhub/internal/app/policy/grouppolicy"
	membershipstore "github.com/melbminds/studyhub/internal/app/store/memberships"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// memberRow is one entry of GET /api/groups/{id}/members.
type memberRow struct {
	membershipstore.Member
	IsCreator bool `json:"is_creator"`
}

// ServeMembers handles GET /api/groups/{id}/members. Only the creator and
// members may see who else is in the group.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	gid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return
	}
	g, ok := h.loadGroup(w, r, gid)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list members")
	defer cancel()

	allowed, err := grouppolicy.CanParticipate(ctx, h.DB, r, g)
	if err != nil {
		h.Log.Error("database error checking membership", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if !allowed {
		jsonutil.Error(w, http.StatusForbidden, "only group members can view the member list")
		return
	}

	members, err := membershipstore.New(h.DB).ListMembers(ctx, gid)
	if err != nil {
		h.Log.Error("database error listing members", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	rows := make([]memberRow, 0, len(members))
	for _, m := range members {
		rows = append(rows, memberRow{Member: m, IsCreator: m.User.ID == g.CreatorID})
	}
	jsonutil.OK(w, map[string]any{
		"creator_id": g.CreatorID,
		"members":    rows,
	})
}
