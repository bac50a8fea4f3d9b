// internal/app/features/activitylogs/routes.go
package activitylogs

import (
	"github.com/dalemusser/mansiuk/internal/app/system/auth"
	"github.com/dalemusser/mansiuk/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the activity log routes (typically "/activity-logs").
// Access is restricted to admins.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleAdmin))

		pr.Get("/", h.List)
		pr.Post("/", h.Create)
	})

	return r
}
