// internal/app/store/requests/store.go
package requeststore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"github.com/dalemusser/mansiuk/internal/domain/models"
	"github.com/google/uuid"
)

// Collection holds help request documents.
const Collection = "requests"

// Store persists help requests.
type Store struct {
	db docstore.DB
}

func New(db docstore.DB) *Store {
	return &Store{db: db}
}

// GetByID loads a request. Missing ids return docstore.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (models.Request, error) {
	var r models.Request
	if err := s.db.Get(ctx, Collection, id, &r); err != nil {
		return models.Request{}, fmt.Errorf("get request %s: %w", id, err)
	}
	return r, nil
}

// Create inserts r with a fresh id. Status defaults to pending.
func (s *Store) Create(ctx context.Context, r models.Request) (models.Request, error) {
	now := time.Now().UTC()
	r.ID = uuid.NewString()
	if r.Status == "" {
		r.Status = models.RequestPending
	}
	r.IsMerged = false
	r.MergedWith = nil
	r.CreatedAt = now
	r.UpdatedAt = now

	if err := s.db.Create(ctx, Collection, r.ID, r); err != nil {
		return models.Request{}, fmt.Errorf("create request: %w", err)
	}
	return r, nil
}

// Save writes r in full.
func (s *Store) Save(ctx context.Context, r models.Request) error {
	if err := s.db.Set(ctx, Collection, r.ID, r); err != nil {
		return fmt.Errorf("save request %s: %w", r.ID, err)
	}
	return nil
}

// ListFilter selects requests for listings.
type ListFilter struct {
	Statuses      []models.RequestStatus // empty means any
	IncludeMerged bool
	Limit         int
}

// List returns requests newest first. Merged requests are excluded unless
// IncludeMerged is set.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Request, error) {
	q := docstore.Query{OrderBy: "createdAt", Desc: true, Limit: f.Limit}
	if !f.IncludeMerged {
		q.Filters = append(q.Filters, docstore.Where("isMerged", docstore.Eq, false))
	}
	switch len(f.Statuses) {
	case 0:
	case 1:
		q.Filters = append(q.Filters, docstore.Where("status", docstore.Eq, f.Statuses[0]))
	default:
		q.Filters = append(q.Filters, docstore.Where("status", docstore.In, f.Statuses))
	}

	var out []models.Request
	if err := s.db.Query(ctx, Collection, q, &out); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return out, nil
}

// Batch starts an atomic write group on the underlying store.
func (s *Store) Batch() docstore.Batch { return s.db.Batch() }

// StageSave adds a full write of r to b.
func (s *Store) StageSave(b docstore.Batch, r models.Request) {
	b.Set(Collection, r.ID, r)
}

// StageDelete adds a delete of id to b.
func (s *Store) StageDelete(b docstore.Batch, id string) {
	b.Delete(Collection, id)
}
