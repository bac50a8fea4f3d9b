// internal/app/features/applications/routes.go
package applications

import (
	"github.com/dalemusser/mansiuk/internal/app/system/auth"
	"github.com/dalemusser/mansiuk/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the application endpoints (typically under "/applications").
// Ownership rules are enforced per call by the application policy.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleAdmin, models.RoleVolunteer))

		pr.Get("/", h.List)
		pr.Post("/", h.Create)
		pr.Get("/{id}", h.Get)
		pr.Patch("/{id}", h.Update)
		pr.Delete("/{id}", h.Delete)
	})

	return r
}
