// internal/app/features/groups/routes.go
package groups

import (
	"github.com/go-chi/chi/v5"
	"github.com/melbminds/studyhub/internal/app/system/auth"
)

// Routes returns the /api/groups subrouter. Everything requires a signed-in
// user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)

		pr.Get("/{id}", h.ServeView)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Patch("/{id}/target", h.HandleUpdateTarget)

		pr.Post("/{id}/join", h.HandleJoin)
		pr.Post("/{id}/leave", h.HandleLeave)
		pr.Post("/{id}/rating", h.HandleRate)

		pr.Get("/{id}/members", h.ServeMembers)
		pr.Get("/{id}/similar", h.ServeSimilar)
	})

	return r
}
