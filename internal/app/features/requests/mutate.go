// internal/app/features/requests/mutate.go
package requests

import (
	"net/http"

	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/dalemusser/mansiuk/internal/app/system/authz"
	"github.com/dalemusser/mansiuk/internal/app/system/jsonio"
	"github.com/dalemusser/mansiuk/internal/app/system/timeouts"
	"github.com/dalemusser/mansiuk/internal/app/workflow"
	"github.com/go-chi/chi/v5"
)

type submitResponse struct {
	ID             string `json:"id"`
	TrackingNumber string `json:"trackingNumber"`
	Status         string `json:"status"`
}

// Submit handles the public POST /requests/submit. The response only echoes
// the id and tracking number, never the stored document.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var in workflow.NewRequest
	if err := jsonio.Decode(w, r, &in); err != nil {
		jsonio.WriteError(w, apperr.From(err))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "submit request")
	defer cancel()

	req, err := h.Svc.SubmitRequest(ctx, in)
	if err != nil {
		h.ErrLog.Respond(w, r, "submit request", err)
		return
	}
	jsonio.Write(w, http.StatusCreated, submitResponse{
		ID:             req.ID,
		TrackingNumber: req.TrackingNumber(),
		Status:         string(req.Status),
	})
}

// Create handles POST /requests (admin).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		jsonio.WriteError(w, apperr.Unauthenticated("sign-in required"))
		return
	}
	var in workflow.NewRequest
	if err := jsonio.Decode(w, r, &in); err != nil {
		jsonio.WriteError(w, apperr.From(err))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create request")
	defer cancel()

	req, err := h.Svc.CreateRequest(ctx, actor, in)
	if err != nil {
		h.ErrLog.Respond(w, r, "create request", err)
		return
	}
	jsonio.Write(w, http.StatusCreated, req)
}

// Update handles PATCH /requests/{id}: field edits and/or a status change.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		jsonio.WriteError(w, apperr.Unauthenticated("sign-in required"))
		return
	}
	var upd workflow.RequestUpdate
	if err := jsonio.Decode(w, r, &upd); err != nil {
		jsonio.WriteError(w, apperr.From(err))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update request")
	defer cancel()

	req, err := h.Svc.UpdateRequest(ctx, actor, chi.URLParam(r, "id"), upd)
	if err != nil {
		h.ErrLog.Respond(w, r, "update request", err)
		return
	}
	jsonio.Write(w, http.StatusOK, req)
}

// Delete handles DELETE /requests/{id}; the request's applications go with it.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		jsonio.WriteError(w, apperr.Unauthenticated("sign-in required"))
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete request")
	defer cancel()

	if err := h.Svc.DeleteRequest(ctx, actor, id); err != nil {
		h.ErrLog.Respond(w, r, "delete request", err)
		return
	}
	jsonio.Write(w, http.StatusOK, jsonio.Message("request %s deleted", id))
}

type mergeBody struct {
	MainRequestID   string   `json:"mainRequestId"`
	MergeRequestIDs []string `json:"mergeRequestIds"`
}

// Merge handles POST /requests/merge and returns the surviving request.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		jsonio.WriteError(w, apperr.Unauthenticated("sign-in required"))
		return
	}
	var body mergeBody
	if err := jsonio.Decode(w, r, &body); err != nil {
		jsonio.WriteError(w, apperr.From(err))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "merge requests")
	defer cancel()

	main, err := h.Svc.MergeRequests(ctx, actor, body.MainRequestID, body.MergeRequestIDs)
	if err != nil {
		h.ErrLog.Respond(w, r, "merge requests", err)
		return
	}
	jsonio.Write(w, http.StatusOK, main)
}

// AddFollowUp handles POST /requests/{id}/follow-ups.
func (h *Handler) AddFollowUp(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		jsonio.WriteError(w, apperr.Unauthenticated("sign-in required"))
		return
	}
	var in workflow.FollowUpInput
	if err := jsonio.Decode(w, r, &in); err != nil {
		jsonio.WriteError(w, apperr.From(err))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "add follow-up")
	defer cancel()

	fu, err := h.Svc.AddFollowUp(ctx, actor, chi.URLParam(r, "id"), in)
	if err != nil {
		h.ErrLog.Respond(w, r, "add follow-up", err)
		return
	}
	jsonio.Write(w, http.StatusCreated, fu)
}
