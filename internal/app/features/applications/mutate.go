// internal/app/features/applications/mutate.go
package applications

import (
	"net/http"

	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/dalemusser/mansiuk/internal/app/system/authz"
	"github.com/dalemusser/mansiuk/internal/app/system/jsonio"
	"github.com/dalemusser/mansiuk/internal/app/system/timeouts"
	"github.com/dalemusser/mansiuk/internal/app/workflow"
	"github.com/go-chi/chi/v5"
)

// Create handles POST /applications. The body's volunteerId must be the
// caller's own.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		jsonio.WriteError(w, apperr.Unauthenticated("sign-in required"))
		return
	}
	var in workflow.NewApplication
	if err := jsonio.Decode(w, r, &in); err != nil {
		jsonio.WriteError(w, apperr.From(err))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create application")
	defer cancel()

	a, err := h.Svc.CreateApplication(ctx, actor, in)
	if err != nil {
		h.ErrLog.Respond(w, r, "create application", err)
		return
	}
	jsonio.Write(w, http.StatusCreated, present(actor, a))
}

// Update handles PATCH /applications/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		jsonio.WriteError(w, apperr.Unauthenticated("sign-in required"))
		return
	}
	var upd workflow.ApplicationUpdate
	if err := jsonio.Decode(w, r, &upd); err != nil {
		jsonio.WriteError(w, apperr.From(err))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update application")
	defer cancel()

	a, err := h.Svc.UpdateApplication(ctx, actor, chi.URLParam(r, "id"), upd)
	if err != nil {
		h.ErrLog.Respond(w, r, "update application", err)
		return
	}
	jsonio.Write(w, http.StatusOK, present(actor, a))
}

// Delete handles DELETE /applications/{id}: a volunteer withdrawing a
// pending application, or an admin removing any application.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		jsonio.WriteError(w, apperr.Unauthenticated("sign-in required"))
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete application")
	defer cancel()

	if err := h.Svc.WithdrawApplication(ctx, actor, id); err != nil {
		h.ErrLog.Respond(w, r, "delete application", err)
		return
	}
	jsonio.Write(w, http.StatusOK, jsonio.Message("application %s deleted", id))
}
