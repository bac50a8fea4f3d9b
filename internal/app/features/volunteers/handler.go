// internal/app/features/volunteers/handler.go
package volunteers

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/mansiuk/internal/app/features/errors"
	userstore "github.com/dalemusser/mansiuk/internal/app/store/users"
	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/dalemusser/mansiuk/internal/app/system/authz"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"github.com/dalemusser/mansiuk/internal/app/system/jsonio"
	"github.com/dalemusser/mansiuk/internal/app/system/paging"
	"github.com/dalemusser/mansiuk/internal/app/system/timeouts"
	"github.com/dalemusser/mansiuk/internal/app/workflow"
	"github.com/dalemusser/mansiuk/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves volunteer account review for admins.
type Handler struct {
	Svc    *workflow.Service
	Users  *userstore.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs a volunteers Handler.
func NewHandler(db docstore.DB, svc *workflow.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:    svc,
		Users:  userstore.New(db),
		Log:    logger,
		ErrLog: errLog,
	}
}

type listResponse struct {
	Volunteers []models.User `json:"volunteers"`
	Count      int           `json:"count"`
}

// List handles GET /volunteers?status=pending&limit=n.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := userstore.ListFilter{Role: models.RoleVolunteer}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := models.ParseUserStatus(raw)
		if !ok {
			jsonio.WriteError(w, apperr.BadRequest("invalid status %q", raw))
			return
		}
		filter.Status = st
	}
	limit, err := paging.Limit(r)
	if err != nil {
		jsonio.WriteError(w, apperr.From(err))
		return
	}
	filter.Limit = limit

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list volunteers")
	defer cancel()

	users, err := h.Users.List(ctx, filter)
	if err != nil {
		h.ErrLog.Respond(w, r, "list volunteers", err)
		return
	}
	jsonio.Write(w, http.StatusOK, listResponse{Volunteers: users, Count: len(users)})
}

// Get handles GET /volunteers/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get volunteer")
	defer cancel()

	u, err := h.Users.GetByID(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, docstore.ErrNotFound) || (err == nil && u.Role != models.RoleVolunteer) {
		jsonio.WriteError(w, apperr.NotFound("volunteer not found"))
		return
	}
	if err != nil {
		h.ErrLog.Respond(w, r, "get volunteer", err)
		return
	}
	jsonio.Write(w, http.StatusOK, u)
}

// Review handles PATCH /volunteers/{id}: status, interview notes and
// rejection reason.
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		jsonio.WriteError(w, apperr.Unauthenticated("sign-in required"))
		return
	}
	var review workflow.VolunteerReview
	if err := jsonio.Decode(w, r, &review); err != nil {
		jsonio.WriteError(w, apperr.From(err))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "review volunteer")
	defer cancel()

	u, err := h.Svc.ReviewVolunteer(ctx, actor, chi.URLParam(r, "id"), review)
	if err != nil {
		h.ErrLog.Respond(w, r, "review volunteer", err)
		return
	}
	jsonio.Write(w, http.StatusOK, u)
}
