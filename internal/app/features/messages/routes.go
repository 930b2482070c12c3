// internal/app/features/messages/routes.go
package messages

import (
	"github.com/go-chi/chi/v5"
	"github.com/melbminds/studyhub/internal/app/system/auth"
)

// Routes is mounted at /api/groups/{id}/messages.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Post("/", h.HandlePost)
	return r
}
