// internal/app/policy/grouppolicy/grouppolicy.go
package grouppolicy

import (
	"context"
	"net/http"

	membershipstore "github.com/melbminds/studyhub/internal/app/store/memberships"
	"github.com/melbminds/studyhub/internal/app/system/authz"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// IsCreator reports whether the request user created g.
func IsCreator(r *http.Request, g models.Group) bool {
	uid, ok := authz.UserID(r)
	return ok && uid == g.CreatorID
}

// CanDelete reports whether the request user may delete g:
// - Admins always can
// - Otherwise only the creator
func CanDelete(r *http.Request, g models.Group) bool {
	return authz.IsAdmin(r) || IsCreator(r, g)
}

// CanParticipate reports whether the request user may read the group's feed,
// chat, or rate it: the creator, or any member according to the
// authoritative group_memberships collection.
// Returns an error if the database check fails, allowing callers to distinguish
// between "not authorized" (false, nil) and "database error" (false, err).
func CanParticipate(ctx context.Context, db *mongo.Database, r *http.Request, g models.Group) (bool, error) {
	uid, ok := authz.UserID(r)
	if !ok {
		return false, nil
	}
	if uid == g.CreatorID {
		return true, nil
	}
	return membershipstore.New(db).IsMember(ctx, g.ID, uid)
}
