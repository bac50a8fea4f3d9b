// internal/app/features/activitylogs/create.go
package activitylogs

import (
	"net/http"

	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/dalemusser/mansiuk/internal/app/system/authz"
	"github.com/dalemusser/mansiuk/internal/app/system/htmlsanitize"
	"github.com/dalemusser/mansiuk/internal/app/system/jsonio"
	"github.com/dalemusser/mansiuk/internal/app/system/timeouts"
	"github.com/dalemusser/mansiuk/internal/domain/models"
)

type createInput struct {
	Action      string         `json:"action" validate:"required,max=100"`
	TargetType  string         `json:"targetType" validate:"required,oneof=user request application system"`
	TargetID    string         `json:"targetId" validate:"required"`
	Description string         `json:"description" validate:"required,max=2000"`
	Changes     map[string]any `json:"changes"`
}

// Create handles POST /activity-logs. The entry is attributed to the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := authz.Actor(r)
	if !ok {
		jsonio.WriteError(w, apperr.Unauthenticated("sign-in required"))
		return
	}
	var in createInput
	if err := jsonio.Decode(w, r, &in); err != nil {
		jsonio.WriteError(w, apperr.From(err))
		return
	}
	if !htmlsanitize.IsPlainText(in.Action) || !htmlsanitize.IsPlainText(in.TargetID) {
		jsonio.WriteError(w, apperr.BadRequest("action and targetId must be plain text"))
		return
	}
	in.Description = htmlsanitize.Clean(in.Description)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "activity log create")
	defer cancel()

	entry, err := h.Logs.Log(ctx, models.ActivityLog{
		UserID:      actor.ID,
		Action:      in.Action,
		TargetType:  in.TargetType,
		TargetID:    in.TargetID,
		Description: in.Description,
		Changes:     in.Changes,
	})
	if err != nil {
		h.ErrLog.Respond(w, r, "activity log create", err)
		return
	}
	jsonio.Write(w, http.StatusCreated, entry)
}
