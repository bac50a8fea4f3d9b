// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/mansiuk/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts GET and PUT on "/" (typically "/me"). A verified identity
// is enough; the user document may not exist yet.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeProfile)
	r.Put("/", h.HandleUpdate)
	return r
}
