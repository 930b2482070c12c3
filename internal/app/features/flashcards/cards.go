// internal/app/features/flashcards/cards.go
package flashcards

import (
	"errors"
	"net/http"

	flashcardstore "github.com/melbminds/studyhub/internal/app/store/flashcards"
	"github.com/melbminds/studyhub/internal/app/system/htmlsanitize"
	"github.com/melbminds/studyhub/internal/app/system/inputval"
	"github.com/melbminds/studyhub/internal/app/system/jsonutil"
	"github.com/melbminds/studyhub/internal/app/system/timeouts"
	"github.com/melbminds/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// decodeCard reads and validates a card body. It writes 400 and returns
// false on bad input.
func (h *Handler) decodeCard(w http.ResponseWriter, r *http.Request) (cardRequest, bool) {
	var req cardRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return cardRequest{}, false
	}
	req.Question = htmlsanitize.PlainText(req.Question)
	req.Answer = htmlsanitize.PlainText(req.Answer)
	if res := inputval.Validate(req); res.HasErrors() {
		jsonutil.Error(w, http.StatusBadRequest, res.First())
		return cardRequest{}, false
	}
	if !h.checkText(w, [][2]string{{"question", req.Question}, {"answer", req.Answer}}) {
		return cardRequest{}, false
	}
	return req, true
}

// HandleCreateCard handles POST /api/flashcards/folders/{id}/cards.
func (h *Handler) HandleCreateCard(w http.ResponseWriter, r *http.Request) {
	fid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return
	}
	req, ok := h.decodeCard(w, r)
	if !ok {
		return
	}
	if _, ok := h.ownedFolder(w, r, fid); !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create flashcard")
	defer cancel()

	card, err := flashcardstore.New(h.DB).CreateCard(ctx, fid, req.Question, req.Answer)
	if errors.Is(err, flashcardstore.ErrBlankCard) {
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.Log.Error("database error creating flashcard", zap.String("folder_id", fid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	jsonutil.Write(w, http.StatusCreated, card)
}

// HandleUpdateCard handles PATCH /api/flashcards/cards/{id}.
func (h *Handler) HandleUpdateCard(w http.ResponseWriter, r *http.Request) {
	cid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return
	}
	req, ok := h.decodeCard(w, r)
	if !ok {
		return
	}
	if _, ok := h.ownedCard(w, r, cid); !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update flashcard")
	defer cancel()

	card, err := flashcardstore.New(h.DB).UpdateCard(ctx, cid, req.Question, req.Answer)
	switch {
	case err == nil:
	case errors.Is(err, flashcardstore.ErrCardNotFound):
		jsonutil.Error(w, http.StatusNotFound, "flashcard not found")
		return
	case errors.Is(err, flashcardstore.ErrBlankCard):
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	default:
		h.Log.Error("database error updating flashcard", zap.String("card_id", cid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	jsonutil.OK(w, card)
}

// HandleDeleteCard handles DELETE /api/flashcards/cards/{id}.
func (h *Handler) HandleDeleteCard(w http.ResponseWriter, r *http.Request) {
	cid, ok := jsonutil.PathID(w, r, "id")
	if !ok {
		return
	}
	if _, ok := h.ownedCard(w, r, cid); !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete flashcard")
	defer cancel()

	err := flashcardstore.New(h.DB).DeleteCard(ctx, cid)
	if errors.Is(err, flashcardstore.ErrCardNotFound) {
		jsonutil.Error(w, http.StatusNotFound, "flashcard not found")
		return
	}
	if err != nil {
		h.Log.Error("database error deleting flashcard", zap.String("card_id", cid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ownedCard loads a card and checks the caller owns its folder.
func (h *Handler) ownedCard(w http.ResponseWriter, r *http.Request, cid primitive.ObjectID) (models.Flashcard, bool) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load flashcard")
	defer cancel()

	card, err := flashcardstore.New(h.DB).GetCard(ctx, cid)
	if errors.Is(err, flashcardstore.ErrCardNotFound) {
		jsonutil.Error(w, http.StatusNotFound, "flashcard not found")
		return models.Flashcard{}, false
	}
	if err != nil {
		h.Log.Error("database error loading flashcard", zap.String("card_id", cid.Hex()), zap.Error(err))
		jsonutil.Error(w, http.StatusInternalServerError, "database error")
		return models.Flashcard{}, false
	}
	if _, ok := h.ownedFolder(w, r, card.FolderID); !ok {
		return models.Flashcard{}, false
	}
	return card, true
}
