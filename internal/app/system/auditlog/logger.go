// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"fmt"
	"strings"

	activitylogstore "github.com/dalemusser/mansiuk/internal/app/store/activitylog"
	"github.com/dalemusser/mansiuk/internal/app/system/timeouts"
	"github.com/dalemusser/mansiuk/internal/domain/models"
	"go.uber.org/zap"
)

// Actions recorded by the workflow.
const (
	ActionCreateRequest           = "create_request"
	ActionUpdateRequest           = "update_request"
	ActionUpdateRequestStatus     = "update_request_status"
	ActionDeleteRequest           = "delete_request"
	ActionMergeRequests           = "merge_requests"
	ActionAddFollowUp             = "add_follow_up"
	ActionUpdateApplicationStatus = "update_application_status"
	ActionDeleteApplication       = "delete_application"
	ActionUpdateVolunteerStatus   = "update_volunteer_status"
)

// Config holds audit logging configuration.
type Config struct {
	// Admin controls logging for administrative mutations.
	// Values: "all" (store + zap), "db" (store only), "log" (zap only), "off" (disabled)
	Admin string
}

// Logger records administrative actions to the activity log and to zap.
// Failures are logged and never returned: an audit write must not undo or
// fail the mutation it describes.
type Logger struct {
	store  *activitylogstore.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *activitylogstore.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(e models.ActivityLog) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("action", e.Action),
		zap.String("actor_id", e.UserID),
		zap.String("target_type", e.TargetType),
		zap.String("target_id", e.TargetID),
		zap.String("description", e.Description),
	}
	if len(e.Changes) > 0 {
		fields = append(fields, zap.Any("changes", e.Changes))
	}
	l.zapLog.Info("audit event", fields...)
}

// Log records e according to the configured destination.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, e models.ActivityLog) {
	if l == nil {
		return
	}

	setting := strings.ToLower(strings.TrimSpace(l.config.Admin))
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(e)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		// The caller's deadline may be nearly spent by the mutation itself.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
		defer cancel()
		if _, err := l.store.Log(ctx, e); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("action", e.Action),
				zap.String("target_id", e.TargetID),
			)
		}
	}
}

// --- Request events ---

// RequestCreated logs creation of a request by an admin.
func (l *Logger) RequestCreated(ctx context.Context, actor models.Actor, r models.Request) {
	l.Log(ctx, models.ActivityLog{
		UserID:      actor.ID,
		Action:      ActionCreateRequest,
		TargetType:  models.TargetRequest,
		TargetID:    r.ID,
		Description: fmt.Sprintf("created request %s", r.TrackingNumber()),
	})
}

// RequestUpdated logs field edits to a request.
func (l *Logger) RequestUpdated(ctx context.Context, actor models.Actor, requestID string, changes map[string]any) {
	l.Log(ctx, models.ActivityLog{
		UserID:      actor.ID,
		Action:      ActionUpdateRequest,
		TargetType:  models.TargetRequest,
		TargetID:    requestID,
		Description: "updated request details",
		Changes:     changes,
	})
}

// RequestStatusChanged logs a request status transition.
func (l *Logger) RequestStatusChanged(ctx context.Context, actor models.Actor, requestID string, from, to models.RequestStatus, cascaded int) {
	changes := map[string]any{"from": string(from), "to": string(to)}
	if cascaded > 0 {
		changes["applicationsUpdated"] = cascaded
	}
	l.Log(ctx, models.ActivityLog{
		UserID:      actor.ID,
		Action:      ActionUpdateRequestStatus,
		TargetType:  models.TargetRequest,
		TargetID:    requestID,
		Description: fmt.Sprintf("changed request status from %s to %s", from, to),
		Changes:     changes,
	})
}

// RequestDeleted logs deletion of a request and its applications.
func (l *Logger) RequestDeleted(ctx context.Context, actor models.Actor, requestID string, applications int) {
	l.Log(ctx, models.ActivityLog{
		UserID:      actor.ID,
		Action:      ActionDeleteRequest,
		TargetType:  models.TargetRequest,
		TargetID:    requestID,
		Description: "deleted request",
		Changes:     map[string]any{"applicationsDeleted": applications},
	})
}

// RequestsMerged logs a merge into mainID.
func (l *Logger) RequestsMerged(ctx context.Context, actor models.Actor, mainID string, mergedIDs []string) {
	l.Log(ctx, models.ActivityLog{
		UserID:      actor.ID,
		Action:      ActionMergeRequests,
		TargetType:  models.TargetRequest,
		TargetID:    mainID,
		Description: fmt.Sprintf("merged %d request(s) into %s", len(mergedIDs), mainID),
		Changes:     map[string]any{"mergedWith": mergedIDs},
	})
}

// FollowUpAdded logs a follow-up record.
func (l *Logger) FollowUpAdded(ctx context.Context, actor models.Actor, requestID, method string) {
	l.Log(ctx, models.ActivityLog{
		UserID:      actor.ID,
		Action:      ActionAddFollowUp,
		TargetType:  models.TargetRequest,
		TargetID:    requestID,
		Description: fmt.Sprintf("added %s follow-up", method),
	})
}

// --- Application events ---

// ApplicationStatusChanged logs an application status transition.
func (l *Logger) ApplicationStatusChanged(ctx context.Context, actor models.Actor, a models.Application, from models.ApplicationStatus) {
	l.Log(ctx, models.ActivityLog{
		UserID:      actor.ID,
		Action:      ActionUpdateApplicationStatus,
		TargetType:  models.TargetApplication,
		TargetID:    a.ID,
		Description: fmt.Sprintf("changed application status from %s to %s", from, a.Status),
		Changes: map[string]any{
			"requestId": a.RequestID,
			"from":      string(from),
			"to":        string(a.Status),
		},
	})
}

// ApplicationDeleted logs removal of an application by an admin.
func (l *Logger) ApplicationDeleted(ctx context.Context, actor models.Actor, a models.Application) {
	l.Log(ctx, models.ActivityLog{
		UserID:      actor.ID,
		Action:      ActionDeleteApplication,
		TargetType:  models.TargetApplication,
		TargetID:    a.ID,
		Description: "deleted application",
		Changes: map[string]any{
			"requestId":   a.RequestID,
			"volunteerId": a.VolunteerID,
			"status":      string(a.Status),
		},
	})
}

// --- Volunteer events ---

// VolunteerStatusChanged logs a volunteer review decision.
func (l *Logger) VolunteerStatusChanged(ctx context.Context, actor models.Actor, uid string, from, to models.UserStatus) {
	l.Log(ctx, models.ActivityLog{
		UserID:      actor.ID,
		Action:      ActionUpdateVolunteerStatus,
		TargetType:  models.TargetUser,
		TargetID:    uid,
		Description: fmt.Sprintf("changed volunteer status from %s to %s", from, to),
		Changes:     map[string]any{"from": string(from), "to": string(to)},
	})
}
