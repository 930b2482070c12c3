// internal/app/features/register/routes.go
package register

import (
	"github.com/go-chi/chi/v5"
	"github.com/melbminds/studyhub/internal/app/system/ratelimit"
)

// Routes mounts POST /api/register behind a per-IP limiter.
func Routes(h *Handler, limiter *ratelimit.Limiter) chi.Router {
	r := chi.NewRouter()
	if limiter != nil {
		r.Use(ratelimit.Middleware(limiter))
	}
	r.Post("/", h.HandleRegister)
	return r
}
