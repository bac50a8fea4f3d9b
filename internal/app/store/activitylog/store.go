// internal/app/store/activitylog/store.go
package activitylogstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"github.com/dalemusser/mansiuk/internal/domain/models"
	"github.com/google/uuid"
)

// Collection holds the append-only activity log.
const Collection = "activity_logs"

// DefaultLimit caps Query when no limit is given.
const DefaultLimit = 100

type Store struct {
	db docstore.DB
}

func New(db docstore.DB) *Store {
	return &Store{db: db}
}

// Log appends entry, filling in ID and CreatedAt when unset.
func (s *Store) Log(ctx context.Context, entry models.ActivityLog) (models.ActivityLog, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.db.Create(ctx, Collection, entry.ID, entry); err != nil {
		return models.ActivityLog{}, fmt.Errorf("log activity: %w", err)
	}
	return entry, nil
}

// QueryFilter selects log entries. Zero fields do not filter.
type QueryFilter struct {
	UserID     string
	Action     string
	TargetType string
	TargetID   string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
}

// Query returns matching entries newest first.
func (s *Store) Query(ctx context.Context, f QueryFilter) ([]models.ActivityLog, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := docstore.Query{OrderBy: "createdAt", Desc: true, Limit: limit}
	if f.UserID != "" {
		q.Filters = append(q.Filters, docstore.Where("userId", docstore.Eq, f.UserID))
	}
	if f.Action != "" {
		q.Filters = append(q.Filters, docstore.Where("action", docstore.Eq, f.Action))
	}
	if f.TargetType != "" {
		q.Filters = append(q.Filters, docstore.Where("targetType", docstore.Eq, f.TargetType))
	}
	if f.TargetID != "" {
		q.Filters = append(q.Filters, docstore.Where("targetId", docstore.Eq, f.TargetID))
	}
	if f.StartDate != nil {
		q.Filters = append(q.Filters, docstore.Where("createdAt", docstore.Gte, *f.StartDate))
	}
	if f.EndDate != nil {
		q.Filters = append(q.Filters, docstore.Where("createdAt", docstore.Lte, *f.EndDate))
	}

	var out []models.ActivityLog
	if err := s.db.Query(ctx, Collection, q, &out); err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	return out, nil
}
