// internal/app/features/activitylogs/list.go
package activitylogs

import (
	"net/http"
	"strings"
	"time"

	activitylogstore "github.com/dalemusser/mansiuk/internal/app/store/activitylog"
	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/dalemusser/mansiuk/internal/app/system/jsonio"
	"github.com/dalemusser/mansiuk/internal/app/system/paging"
	"github.com/dalemusser/mansiuk/internal/app/system/timeouts"
	"github.com/dalemusser/mansiuk/internal/domain/models"
)

type listResponse struct {
	Logs  []models.ActivityLog `json:"logs"`
	Count int                  `json:"count"`
}

// List handles GET /activity-logs with optional userId, action,
// targetType, targetId, startDate, endDate and limit filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := activitylogstore.QueryFilter{
		UserID:     strings.TrimSpace(q.Get("userId")),
		Action:     strings.TrimSpace(q.Get("action")),
		TargetType: strings.TrimSpace(q.Get("targetType")),
		TargetID:   strings.TrimSpace(q.Get("targetId")),
	}

	if raw := strings.TrimSpace(q.Get("startDate")); raw != "" {
		t, err := parseDate(raw, false)
		if err != nil {
			jsonio.WriteError(w, apperr.BadRequest("invalid startDate %q", raw))
			return
		}
		filter.StartDate = &t
	}
	if raw := strings.TrimSpace(q.Get("endDate")); raw != "" {
		t, err := parseDate(raw, true)
		if err != nil {
			jsonio.WriteError(w, apperr.BadRequest("invalid endDate %q", raw))
			return
		}
		filter.EndDate = &t
	}
	limit, err := paging.Limit(r)
	if err != nil {
		jsonio.WriteError(w, apperr.From(err))
		return
	}
	filter.Limit = limit

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "activity log list")
	defer cancel()

	logs, err := h.Logs.Query(ctx, filter)
	if err != nil {
		h.ErrLog.Respond(w, r, "activity log list", err)
		return
	}
	jsonio.Write(w, http.StatusOK, listResponse{Logs: logs, Count: len(logs)})
}

// parseDate accepts RFC 3339 timestamps or plain dates. A plain end date
// covers the whole day.
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
