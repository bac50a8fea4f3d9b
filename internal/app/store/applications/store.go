// internal/app/store/applications/store.go
package applicationstore

import (
	"context"
	"fmt"

	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"github.com/dalemusser/mansiuk/internal/domain/models"
)

// Collection holds volunteer application documents.
const Collection = "applications"

// Store persists volunteer applications.
type Store struct {
	db docstore.DB
}

func New(db docstore.DB) *Store {
	return &Store{db: db}
}

// GetByID loads an application. Missing ids return docstore.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (models.Application, error) {
	var a models.Application
	if err := s.db.Get(ctx, Collection, id, &a); err != nil {
		return models.Application{}, fmt.Errorf("get application %s: %w", id, err)
	}
	return a, nil
}

// PairID is the document id of volunteerID's application to requestID.
// Keying on the pair lets the store reject a second application atomically.
func PairID(requestID, volunteerID string) string {
	return requestID + "_" + volunteerID
}

// Create inserts a. An existing document with the same id, or on MongoDB
// the same (requestId, volunteerId) pair, returns docstore.ErrAlreadyExists.
func (s *Store) Create(ctx context.Context, a models.Application) error {
	if err := s.db.Create(ctx, Collection, a.ID, a); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// ListByRequest returns every application for requestID.
func (s *Store) ListByRequest(ctx context.Context, requestID string) ([]models.Application, error) {
	return s.List(ctx, ListFilter{RequestID: requestID})
}

// FindByPair returns the application for (requestID, volunteerID), if any.
func (s *Store) FindByPair(ctx context.Context, requestID, volunteerID string) (*models.Application, error) {
	var out []models.Application
	q := docstore.Query{
		Filters: []docstore.Filter{
			docstore.Where("requestId", docstore.Eq, requestID),
			docstore.Where("volunteerId", docstore.Eq, volunteerID),
		},
		Limit: 1,
	}
	if err := s.db.Query(ctx, Collection, q, &out); err != nil {
		return nil, fmt.Errorf("find application: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

// ListFilter selects applications. Empty fields do not filter.
type ListFilter struct {
	RequestID   string
	VolunteerID string
	Status      models.ApplicationStatus
	Limit       int
}

// List returns applications newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Application, error) {
	q := docstore.Query{OrderBy: "createdAt", Desc: true, Limit: f.Limit}
	if f.RequestID != "" {
		q.Filters = append(q.Filters, docstore.Where("requestId", docstore.Eq, f.RequestID))
	}
	if f.VolunteerID != "" {
		q.Filters = append(q.Filters, docstore.Where("volunteerId", docstore.Eq, f.VolunteerID))
	}
	if f.Status != "" {
		q.Filters = append(q.Filters, docstore.Where("status", docstore.Eq, f.Status))
	}

	var out []models.Application
	if err := s.db.Query(ctx, Collection, q, &out); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return out, nil
}

// Delete removes an application outright.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.db.Delete(ctx, Collection, id); err != nil {
		return fmt.Errorf("delete application %s: %w", id, err)
	}
	return nil
}

// StageSave adds a full write of a to b.
func (s *Store) StageSave(b docstore.Batch, a models.Application) {
	b.Set(Collection, a.ID, a)
}

// StageDelete adds a delete of id to b.
func (s *Store) StageDelete(b docstore.Batch, id string) {
	b.Delete(Collection, id)
}
