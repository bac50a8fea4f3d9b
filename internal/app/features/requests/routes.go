// internal/app/features/requests/routes.go
package requests

import (
	"net/http"

	"github.com/dalemusser/mansiuk/internal/app/system/auth"
	"github.com/dalemusser/mansiuk/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the request endpoints (typically under "/requests").
//
// POST /submit is public and passes through submitLimit. Reads are open
// to admins and volunteers; everything else is admin-only.
func Routes(h *Handler, sm *auth.SessionManager, submitLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	if submitLimit != nil {
		r.With(submitLimit).Post("/submit", h.Submit)
	} else {
		r.Post("/submit", h.Submit)
	}

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleAdmin, models.RoleVolunteer))
		pr.Get("/", h.List)
		pr.Get("/{id}", h.Get)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleAdmin))
		pr.Post("/", h.Create)
		pr.Post("/merge", h.Merge)
		pr.Patch("/{id}", h.Update)
		pr.Delete("/{id}", h.Delete)
		pr.Post("/{id}/follow-ups", h.AddFollowUp)
	})

	return r
}
