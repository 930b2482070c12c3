// internal/app/features/groups/list.go
package groups

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"

	groupstore "github.com/melbminds/studyhub/internal/app/store/groups"
	membershipstore "github.com/melbminds/studyhub/internal/app/store/memberships"
	ratingstore "github.com/melbminds/studyhub/internal/app/store/ratings"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/normalize"
	"github.com/melbminds/studyhub/internal/app/system/paging"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ServeList handles GET /api/groups. Groups come back oldest first with
// their member counts and rating summaries. ?q= matches the start of the
// group name and ?subject= the subject code.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list groups")
	defer cancel()

	limit := paging.ParseLimit(r, paging.MaxPageSize)

	f := groupstore.ListFilter{
		NamePrefix:  normalize.QueryParam(query.Get(r, "q")),
		SubjectCode: normalize.QueryParam(query.Get(r, "subject")),
	}

	groups, err := groupstore.New(h.DB).Search(ctx, f, limit)
	if err != nil {
		h.Log.Error("database error listing groups", zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	counts, err := membershipstore.New(h.DB).CountsByGroup(ctx)
	if err != nil {
		h.Log.Error("database error counting members", zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	sums, err := ratingstore.New(h.DB).Summaries(ctx)
	if err != nil {
		h.Log.Error("database error loading ratings", zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	out := make([]groupSummary, 0, len(groups))
	for _, g := range groups {
		s := sums[g.ID]
		out = append(out, groupSummary{
			Group:         g,
			MemberCount:   counts[g.ID],
			AverageRating: round2(s.Average),
			RatingCount:   s.Count,
		})
	}
	jsonutil.OK(w, map[string]any{"groups": out})
}
