// internal/app/features/flashcards/routes.go
package flashcards

import (
	"github.com/go-chi/chi/v5"
	"github.com/melbminds/studyhub/internal/app/system/auth"
)

// Routes is mounted at /api/flashcards.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/folders", h.ServeFolders)
	r.Post("/folders", h.HandleCreateFolder)
	r.Get("/folders/{id}", h.ServeFolder)
	r.Patch("/folders/{id}", h.HandleRenameFolder)
	r.Delete("/folders/{id}", h.HandleDeleteFolder)
	r.Post("/folders/{id}/cards", h.HandleCreateCard)

	r.Patch("/cards/{id}", h.HandleUpdateCard)
	r.Delete("/cards/{id}", h.HandleDeleteCard)
	return r
}
