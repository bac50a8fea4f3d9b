// internal/app/features/profile/me.go
package profile

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/dalemusser/mansiuk/internal/app/system/auth"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"github.com/dalemusser/mansiuk/internal/app/system/htmlsanitize"
	"github.com/dalemusser/mansiuk/internal/app/system/jsonio"
	"github.com/dalemusser/mansiuk/internal/app/system/timeouts"
	"github.com/dalemusser/mansiuk/internal/domain/models"
	"go.uber.org/zap"
)

// profileInput is the part of the user document its owner may edit.
// Role, status and review fields are set by admins only.
type profileInput struct {
	DisplayName    string                `json:"displayName" validate:"required,max=100"`
	Phone          string                `json:"phone" validate:"max=30"`
	Age            string                `json:"age" validate:"max=10"`
	Fields         []models.ServiceField `json:"fields" validate:"omitempty,dive,oneof=生活助手 社區拍檔 街坊樹窿"`
	Skills         []string              `json:"skills" validate:"max=50,dive,max=100"`
	Availability   []string              `json:"availability" validate:"max=50,dive,max=100"`
	TargetAudience []string              `json:"targetAudience" validate:"max=50,dive,max=100"`
	Goals          string                `json:"goals" validate:"max=2000"`
}

// ServeProfile handles GET /me.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.CurrentIdentity(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get profile")
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.UID)
	if errors.Is(err, docstore.ErrNotFound) {
		jsonio.WriteError(w, apperr.NotFound("no profile for this account"))
		return
	}
	if err != nil {
		h.ErrLog.Respond(w, r, "get profile", err)
		return
	}
	jsonio.Write(w, http.StatusOK, u)
}

// HandleUpdate handles PUT /me. The first save creates a pending volunteer
// account; later saves keep role and status untouched.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.CurrentIdentity(r)

	var in profileInput
	if err := jsonio.Decode(w, r, &in); err != nil {
		jsonio.WriteError(w, apperr.From(err))
		return
	}
	name := htmlsanitize.Clean(in.DisplayName)
	if name == "" {
		jsonio.WriteError(w, apperr.BadRequest("displayName is required"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update profile")
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.UID)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		u = models.User{
			UID:    id.UID,
			Email:  id.Email,
			Role:   models.RoleVolunteer,
			Status: models.UserPending,
		}
		h.Log.Info("volunteer registered", zap.String("uid", id.UID))
	case err != nil:
		h.ErrLog.Respond(w, r, "update profile", err)
		return
	}

	u.DisplayName = name
	u.Phone = strings.TrimSpace(in.Phone)
	u.Age = strings.TrimSpace(in.Age)
	u.Fields = in.Fields
	u.Skills = htmlsanitize.CleanAll(in.Skills)
	u.Availability = htmlsanitize.CleanAll(in.Availability)
	u.TargetAudience = htmlsanitize.CleanAll(in.TargetAudience)
	u.Goals = htmlsanitize.Clean(in.Goals)

	saved, err := h.Users.Save(ctx, u)
	if err != nil {
		h.ErrLog.Respond(w, r, "update profile", err)
		return
	}
	jsonio.Write(w, http.StatusOK, saved)
}
