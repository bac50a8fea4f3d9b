// internal/app/features/session/handler.go
package session

import (
	"net/http"

	uierrors "github.com/dalemusser/mansiuk/internal/app/features/errors"
	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/dalemusser/mansiuk/internal/app/system/auth"
	"github.com/dalemusser/mansiuk/internal/app/system/jsonio"
	"github.com/dalemusser/mansiuk/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler exchanges ID tokens for session cookies.
type Handler struct {
	SM     *auth.SessionManager
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(sm *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{SM: sm, Log: logger, ErrLog: errLog}
}

// Routes mounts POST and DELETE on "/" (typically "/session").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Delete("/", h.Destroy)
	return r
}

type createInput struct {
	IDToken string `json:"idToken" validate:"required"`
}

// Create handles POST /session.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if err := jsonio.Decode(w, r, &in); err != nil {
		jsonio.WriteError(w, apperr.From(err))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create session")
	defer cancel()

	if err := h.SM.IssueSession(w, r.WithContext(ctx), in.IDToken); err != nil {
		h.ErrLog.Respond(w, r, "create session", err)
		return
	}
	jsonio.Write(w, http.StatusOK, jsonio.Message("signed in"))
}

// Destroy handles DELETE /session. It succeeds whether or not the caller
// was signed in.
func (h *Handler) Destroy(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "clear session")
	defer cancel()

	h.SM.ClearSession(w, r.WithContext(ctx))
	jsonio.Write(w, http.StatusOK, jsonio.Message("signed out"))
}
