// internal/app/features/requests/list.go
package requests

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/dalemusser/mansiuk/internal/app/policy/requestpolicy"
	requeststore "github.com/dalemusser/mansiuk/internal/app/store/requests"
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
	Requests []models.Request `json:"requests"`
	Count    int              `json:"count"`
}

// List handles GET /requests?status=a,b&includeMerged=true&limit=n.
//
// Volunteers only ever see open and published requests, masked; asking for
// any other status is forbidden. Merged requests are hidden unless an admin
// asks for them.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		jsonio.WriteError(w, apperr.Unauthenticated("sign-in required"))
		return
	}

	q := r.URL.Query()
	filter := requeststore.ListFilter{}

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			st, ok := models.ParseRequestStatus(s)
			if !ok {
				jsonio.WriteError(w, apperr.BadRequest("invalid status %q", s))
				return
			}
			filter.Statuses = append(filter.Statuses, st)
		}
	}
	if allowed := requestpolicy.ListableStatuses(actor); allowed != nil {
		if len(filter.Statuses) == 0 {
			filter.Statuses = allowed
		}
		for _, st := range filter.Statuses {
			if !slices.Contains(allowed, st) {
				jsonio.WriteError(w, apperr.Forbidden("volunteers can only list open and published requests"))
				return
			}
		}
	}

	if v := q.Get("includeMerged"); v != "" {
		inc, err := strconv.ParseBool(v)
		if err != nil {
			jsonio.WriteError(w, apperr.BadRequest("includeMerged must be true or false"))
			return
		}
		filter.IncludeMerged = inc && actor.IsAdmin()
	}
	limit, err := paging.Limit(r)
	if err != nil {
		jsonio.WriteError(w, apperr.From(err))
		return
	}
	filter.Limit = limit

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list requests")
	defer cancel()

	rs, err := h.Requests.List(ctx, filter)
	if err != nil {
		h.ErrLog.Respond(w, r, "list requests", err)
		return
	}
	rs = requestpolicy.PresentAll(actor, rs)
	jsonio.Write(w, http.StatusOK, listResponse{Requests: rs, Count: len(rs)})
}

// Get handles GET /requests/{id}. A volunteer may read a request that is
// open or published, or one they applied to.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		jsonio.WriteError(w, apperr.Unauthenticated("sign-in required"))
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get request")
	defer cancel()

	req, err := h.Requests.GetByID(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		jsonio.WriteError(w, apperr.NotFound("request not found"))
		return
	}
	if err != nil {
		h.ErrLog.Respond(w, r, "get request", err)
		return
	}

	applied := false
	if !actor.IsAdmin() {
		existing, err := h.Apps.FindByPair(ctx, id, actor.ID)
		if err != nil {
			h.ErrLog.Respond(w, r, "get request", err)
			return
		}
		applied = existing != nil
	}
	if !requestpolicy.CanView(actor, req, applied) {
		jsonio.WriteError(w, apperr.Forbidden("you cannot view this request"))
		return
	}
	jsonio.Write(w, http.StatusOK, requestpolicy.Present(actor, req))
}
