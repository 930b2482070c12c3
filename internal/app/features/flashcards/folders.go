// internal/app/features/flashcards/folders.go
package flashcards

import (
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	flashcardstore "github.com/melbminds/studyhub/internal/app/store/flashcards"
	"github.com/melbminds/studyhub/internal/app/system/authz"
	"github.com/melbminds/studyhub/internal/app/system/htmlsanitize"
	"github.com/melbminds/studyhub/internal/app/system/inputval"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/normalize"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeFolders handles GET /api/flashcards/folders. Without ?group= it lists
// the caller's own folders; with it, the folders shared with that group.
func (h *Handler) ServeFolders(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list folders")
	defer cancel()

	filter := flashcardstore.FolderFilter{CreatorID: uid}
	if raw := normalize.QueryParam(query.Get(r, "group")); raw != "" {
		gid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			jsonutil.Error(w, http.StatusBadRequest, "invalid group id")
			return
		}
		allowed, err := h.canUseGroup(ctx, r, gid)
		if err != nil {
			h.Log.Error("database error checking membership", zap.String("group_id", gid.Hex()), zap.Error(err))
			jsonutil.Error(w, http.StatusInternalServerError, "database error")
			return
		}
		if !allowed {
			jsonutil.Error(w, http.StatusForbidden, "only group members can view shared folders")
			return
		}
		filter = flashcardstore.FolderFilter{GroupID: gid}
	}

	folders, err := flashcardstore.New(h.DB).ListFolders(ctx, filter)
	if err != nil {
		h.Log.Error("database error listing folders", zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	jsonutil.OK(w, map[string]any{"folders": folders})
}

// HandleCreateFolder handles POST /api/flashcards/folders. A folder may be
// shared with a group the caller participates in.
func (h *Handler) HandleCreateFolder(w http.ResponseWriter, r *http.Request) {
	uid, ok := authz.UserID(r)
	if !ok {
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createFolderRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = htmlsanitize.PlainText(req.Name)
	req.GroupID = normalize.QueryParam(req.GroupID)
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.Error(w, http.StatusBadRequest, res.First())
		return
	}
	if !h.checkText(w, [][2]string{{"folder name", req.Name}}) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create folder")
	defer cancel()

	folder := models.FlashcardFolder{Name: req.Name, CreatorID: uid}
	if req.GroupID != "" {
		gid, _ := primitive.ObjectIDFromHex(req.GroupID)
		allowed, err := h.canUseGroup(ctx, r, gid)
		if err != nil {
			h.Log.Error("database error checking membership", zap.String("group_id", gid.Hex()), zap.Error(err))
			jsonutil.Error(w, http.StatusInternalServerError, "database error")
			return
		}
		if !allowed {
			jsonutil.Error(w, http.StatusForbidden, "only group members can share folders with a group")
			return
		}
		folder.GroupID = &gid
	}

	created, err := flashcardstore.New(h.DB).CreateFolder(ctx, folder)
	if errors.Is(err, flashcardstore.ErrBlankName) {
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.Log.Error("database error creating folder", zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.Log.Info("flashcard folder created", zap.String("folder_id", created.ID.Hex()), zap.String("user_id", uid.Hex()))
	jsonutil.Write(w, http.StatusCreated, flashcardstore.FolderSummary{FlashcardFolder: created})
}

// ServeFolder handles GET /api/flashcards/folders/{id}: the folder and its
// cards in creation order.
func (h *Handler) ServeFolder(w http.ResponseWriter, r *http.Request) {
	fid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return
	}
	f, ok := h.loadFolder(w, r, fid)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "view folder")
	defer cancel()

	cards, err := flashcardstore.New(h.DB).ListCards(ctx, fid)
	if err != nil {
		h.Log.Error("database error listing flashcards", zap.String("folder_id", fid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	jsonutil.OK(w, map[string]any{
		"folder": flashcardstore.FolderSummary{
			FlashcardFolder: f,
			CardCount:       int64(len(cards)),
		},
		"flashcards": cards,
		"can_edit":   isOwner(r, f),
	})
}

// HandleRenameFolder handles PATCH /api/flashcards/folders/{id}.
func (h *Handler) HandleRenameFolder(w http.ResponseWriter, r *http.Request) {
	fid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return
	}
	var req renameFolderRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = htmlsanitize.PlainText(req.Name)
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.Error(w, http.StatusBadRequest, res.First())
		return
	}
	if !h.checkText(w, [][2]string{{"folder name", req.Name}}) {
		return
	}
	if _, ok := h.ownedFolder(w, r, fid); !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "rename folder")
	defer cancel()

	store := flashcardstore.New(h.DB)
	if err := store.RenameFolder(ctx, fid, req.Name); err != nil {
		if errors.Is(err, flashcardstore.ErrFolderNotFound) {
			jsonutil.Error(w, http.StatusNotFound, "folder not found")
			return
		}
		h.Log.Error("database error renaming folder", zap.String("folder_id", fid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	f, err := store.GetFolder(ctx, fid)
	if err != nil {
		h.Log.Error("database error reloading folder", zap.String("folder_id", fid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	jsonutil.OK(w, f)
}

// HandleDeleteFolder handles DELETE /api/flashcards/folders/{id}. The
// creator or an admin may delete; the cards go with the folder.
func (h *Handler) HandleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	fid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return
	}
	if !authz.IsAdmin(r) {
		if _, ok := h.ownedFolder(w, r, fid); !ok {
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete folder")
	defer cancel()

	err := flashcardstore.New(h.DB).DeleteFolder(ctx, fid)
	if errors.Is(err, flashcardstore.ErrFolderNotFound) {
		jsonutil.Error(w, http.StatusNotFound, "folder not found")
		return
	}
	if err != nil {
		h.Log.Error("database error deleting folder", zap.String("folder_id", fid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	h.Log.Info("flashcard folder deleted", zap.String("folder_id", fid.Hex()))
	w.WriteHeader(http.StatusNoContent)
}
