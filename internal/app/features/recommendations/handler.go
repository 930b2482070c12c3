// internal/app/features/recommendations/handler.go
package recommendations

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	groupstore "github.com/melbminds/studyhub/internal/app/store/groups"
	membershipstore "github.com/melbminds/studyhub/internal/app/store/memberships"
	ratingstore "github.com/melbminds/studyhub/internal/app/store/ratings"
	userstore "github.com/melbminds/studyhub/internal/app/store/users"
	"github.com/melbminds/studyhub/internal/app/system/auth"
	"github.com/melbminds/studyhub/internal/app/system/authz"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/paging"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"github.com/melbminds/studyhub/internal/domain/models"
	"github.com/melbminds/studyhub/internal/domain/scoring"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger}
}

// Routes is mounted at /api/recommendations.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.Serve)
	return r
}

// Serve handles GET /api/recommendations?limit=N. Groups the user created or
// joined are never recommended.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "recommendations")
	defer cancel()

	u, err := userstore.New(h.DB).GetByID(ctx, uid)
	if errors.Is(err, userstore.ErrNotFound) {
		jsonutil.Error(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.Log.Error("database error loading user", zap.String("user_id", uid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	members := membershipstore.New(h.DB)
	joinedIDs, err := members.GroupIDsForUser(ctx, uid)
	if err != nil {
		h.Log.Error("database error loading memberships", zap.String("user_id", uid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	all, err := groupstore.New(h.DB).List(ctx, 0)
	if err != nil {
		h.Log.Error("database error listing groups", zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	counts, err := members.CountsByGroup(ctx)
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

	isJoined := make(map[primitive.ObjectID]bool, len(joinedIDs))
	for _, id := range joinedIDs {
		isJoined[id] = true
	}
	var joined []models.Group
	cands := make([]scoring.Candidate, 0, len(all))
	for _, g := range all {
		if isJoined[g.ID] || g.CreatorID == uid {
			joined = append(joined, g)
			continue
		}
		cands = append(cands, scoring.Candidate{
			Group:         g,
			MemberCount:   counts[g.ID],
			AverageRating: sums[g.ID].Average,
		})
	}

	n := int(paging.ParseLimit(r, scoring.DefaultRecommendLimit))
	recs := scoring.Recommend(scoring.ProfileFor(*u, joined), cands, n)
	jsonutil.OK(w, map[string]any{"recommendations": recs})
}
