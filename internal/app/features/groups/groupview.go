// internal/app/features/groups/groupview.go
package groups

import (
	"errors"
	"net/http"

	"github.com/melbminds/studyhub/internal/app/policy/grouppolicy"
	groupstore "github.com/melbminds/studyhub/internal/app/store/groups"
	membershipstore "github.com/melbminds/studyhub/internal/app/store/memberships"
	ratingstore "github.com/melbminds/studyhub/internal/app/store/ratings"
	"github.com/melbminds/studyhub/internal/app/system/authz"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeView handles GET /api/groups/{id}. Progress is projected from the
// ledger plus ended-but-unreconciled sessions; the read never writes.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	gid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "view group")
	defer cancel()

	g, ok := h.loadGroup(w, r, gid)
	if !ok {
		return
	}

	progress, err := h.Projector.Project(ctx, g)
	if err != nil {
		h.Log.Error("project progress failed", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	members := membershipstore.New(h.DB)
	count, err := members.CountByGroup(ctx, gid)
	if err != nil {
		h.Log.Error("database error counting members", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	sum, err := ratingstore.New(h.DB).SummaryFor(ctx, gid)
	if err != nil {
		h.Log.Error("database error loading rating", zap.String("group_id", gid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	isMember := false
	if uid, ok := authz.UserID(r); ok {
		if isMember, err = members.IsMember(ctx, gid, uid); err != nil {
			h.Log.Error("database error checking membership", zap.String("group_id", gid.Hex()), zap.Error(err))
			jsonutil.Error(w, http.StatusInternalServerError, "database error")
			return
		}
	}

	jsonutil.OK(w, groupDetail{
		groupSummary: groupSummary{
			Group:         g,
			MemberCount:   count,
			AverageRating: round2(sum.Average),
			RatingCount:   sum.Count,
		},
		Progress:  progress,
		IsMember:  isMember,
		IsCreator: grouppolicy.IsCreator(r, g),
	})
}

// loadGroup fetches the group or writes 404/500.
func (h *Handler) loadGroup(w http.ResponseWriter, r *http.Request, gid primitive.ObjectID) (models.Group, bool) {
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
	return g, true
}
