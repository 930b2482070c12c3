// internal/app/features/studysessions/routes.go
package studysessions

import (
	"github.com/go-chi/chi/v5"
	"github.com/melbminds/studyhub/internal/app/system/auth"
	"github.com/melbminds/studyhub/internal/domain/models"
)

// GroupRoutes is mounted at /api/groups/{id}/sessions.
func GroupRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeUpcoming)
	r.Post("/", h.HandleCreate)
	return r
}

// Routes is mounted at /api/sessions.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.With(sm.RequireRole(models.RoleAdmin)).Post("/cleanup", h.HandleCleanup)

	r.Patch("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Post("/{id}/attend", h.HandleAttend)
	return r
}
