// internal/app/features/applications/list.go
package applications

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/mansiuk/internal/app/policy/applicationpolicy"
	applicationstore "github.com/dalemusser/mansiuk/internal/app/store/applications"
	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/dalemusser/mansiuk/internal/app/system/authz"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"github.com/dalemusser/mansiuk/internal/app/system/jsonio"
	"github.com/dalemusser/mansiuk/internal/app/system/paging"
	"github.com/dalemusser/mansiuk/internal/app/system/timeouts"
	"github.com/dalemusser/mansiuk/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type listResponse struct {
	Applications []models.Application `json:"applications"`
	Count        int                  `json:"count"`
}

// present hides admin notes from everyone but admins.
func present(actor models.Actor, a models.Application) models.Application {
	if !actor.IsAdmin() {
		a.AdminNotes = ""
	}
	return a
}

// List handles GET /applications?requestId=&volunteerId=&status=&limit=.
// Volunteers are always scoped to their own applications.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		jsonio.WriteError(w, apperr.Unauthenticated("sign-in required"))
		return
	}

	q := r.URL.Query()
	volunteerID, err := applicationpolicy.ScopeList(actor, strings.TrimSpace(q.Get("volunteerId")))
	if err != nil {
		jsonio.WriteError(w, apperr.From(err))
		return
	}
	filter := applicationstore.ListFilter{
		RequestID:   strings.TrimSpace(q.Get("requestId")),
		VolunteerID: volunteerID,
	}
	if raw := q.Get("status"); raw != "" {
		st, ok := models.ParseApplicationStatus(raw)
		if !ok {
			jsonio.WriteError(w, apperr.BadRequest("invalid status %q", raw))
			return
		}
		filter.Status = st
	}
	if filter.Limit, err = paging.Limit(r); err != nil {
		jsonio.WriteError(w, apperr.From(err))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list applications")
	defer cancel()

	apps, err := h.Apps.List(ctx, filter)
	if err != nil {
		h.ErrLog.Respond(w, r, "list applications", err)
		return
	}
	for i := range apps {
		apps[i] = present(actor, apps[i])
	}
	jsonio.Write(w, http.StatusOK, listResponse{Applications: apps, Count: len(apps)})
}

// Get handles GET /applications/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		jsonio.WriteError(w, apperr.Unauthenticated("sign-in required"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get application")
	defer cancel()

	a, err := h.Apps.GetByID(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, docstore.ErrNotFound) {
		jsonio.WriteError(w, apperr.NotFound("application not found"))
		return
	}
	if err != nil {
		h.ErrLog.Respond(w, r, "get application", err)
		return
	}
	if err := applicationpolicy.CheckView(actor, a); err != nil {
		jsonio.WriteError(w, apperr.From(err))
		return
	}
	jsonio.Write(w, http.StatusOK, present(actor, a))
}
