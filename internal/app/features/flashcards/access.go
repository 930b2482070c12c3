// internal/app/features/flashcards/access.go
package flashcards

import (
	"context"
	"errors"
	"net/http"

	"github.com/melbminds/studyhub/internal/app/policy/grouppolicy"
	flashcardstore "github.com/melbminds/studyhub/internal/app/store/flashcards"
	groupstore "github.com/melbminds/studyhub/internal/app/store/groups"
	"github.com/melbminds/studyhub/internal/app/system/authz"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// canRead reports whether the caller may see f: its creator, or a
// participant of the group it is shared with.
func (h *Handler) canRead(ctx context.Context, r *http.Request, f models.FlashcardFolder) (bool, error) {
	uid, ok := authz.UserID(r)
	if !ok {
		return false, nil
	}
	if uid == f.CreatorID {
		return true, nil
	}
	if f.GroupID == nil {
		return false, nil
	}
	return h.canUseGroup(ctx, r, *f.GroupID)
}

// canUseGroup reports whether the caller participates in the group. A
// missing group grants nothing.
func (h *Handler) canUseGroup(ctx context.Context, r *http.Request, gid primitive.ObjectID) (bool, error) {
	g, err := groupstore.New(h.DB).GetByID(ctx, gid)
	if errors.Is(err, groupstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return grouppolicy.CanParticipate(ctx, h.DB, r, g)
}

// isOwner reports whether the caller created f.
func isOwner(r *http.Request, f models.FlashcardFolder) bool {
	uid, ok := authz.UserID(r)
	return ok && uid == f.CreatorID
}

// loadFolder fetches the folder with the given id and checks the caller can
// read it. Folders the caller cannot see are reported as missing.
func (h *Handler) loadFolder(w http.ResponseWriter, r *http.Request, fid primitive.ObjectID) (models.FlashcardFolder, bool) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load folder")
	defer cancel()

	f, err := flashcardstore.New(h.DB).GetFolder(ctx, fid)
	if errors.Is(err, flashcardstore.ErrFolderNotFound) {
		jsonutil.Error(w, http.StatusNotFound, "folder not found")
		return models.FlashcardFolder{}, false
	}
	if err != nil {
		h.Log.Error("database error loading folder", zap.String("folder_id", fid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return models.FlashcardFolder{}, false
	}
	ok, err := h.canRead(ctx, r, f)
	if err != nil {
		h.Log.Error("database error checking folder access", zap.String("folder_id", fid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return models.FlashcardFolder{}, false
	}
	if !ok {
		jsonutil.Error(w, http.StatusNotFound, "folder not found")
		return models.FlashcardFolder{}, false
	}
	return f, true
}

// ownedFolder is loadFolder plus a creator check.
func (h *Handler) ownedFolder(w http.ResponseWriter, r *http.Request, fid primitive.ObjectID) (models.FlashcardFolder, bool) {
	f, ok := h.loadFolder(w, r, fid)
	if !ok {
		return models.FlashcardFolder{}, false
	}
	if !isOwner(r, f) {
		jsonutil.Error(w, http.StatusForbidden, "only the folder creator can change it")
		return models.FlashcardFolder{}, false
	}
	return f, true
}

// checkText runs the content filter over user text fields.
func (h *Handler) checkText(w http.ResponseWriter, fields [][2]string) bool {
	for _, f := range fields {
		if res := h.Filter.CheckField(f[0], f[1]); !res.Valid {
			jsonutil.Error(w, http.StatusBadRequest, res.Message)
			return false
		}
	}
	return true
}
