// internal/app/features/volunteers/routes.go
package volunteers

import (
	"github.com/dalemusser/mansiuk/internal/app/system/auth"
	"github.com/dalemusser/mansiuk/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the volunteer review endpoints (typically under
// "/volunteers"). Admins only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleAdmin))

		pr.Get("/", h.List)
		pr.Get("/{id}", h.Get)
		pr.Patch("/{id}", h.Review)
	})

	return r
}
