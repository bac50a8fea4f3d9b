// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"github.com/dalemusser/mansiuk/internal/domain/models"
)

// Collection holds role documents keyed by identity-provider UID.
const Collection = "users"

type Store struct {
	db docstore.DB
}

func New(db docstore.DB) *Store {
	return &Store{db: db}
}

// GetByID loads a user by UID. Missing users return docstore.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, uid string) (models.User, error) {
	var u models.User
	if err := s.db.Get(ctx, Collection, uid, &u); err != nil {
		return models.User{}, fmt.Errorf("get user %s: %w", uid, err)
	}
	return u, nil
}

// Save writes u in full, stamping UpdatedAt (and CreatedAt when unset).
func (s *Store) Save(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if err := s.db.Set(ctx, Collection, u.UID, u); err != nil {
		return models.User{}, fmt.Errorf("save user %s: %w", u.UID, err)
	}
	return u, nil
}

// ListFilter selects users. Empty fields do not filter.
type ListFilter struct {
	Role   models.Role
	Status models.UserStatus
	Limit  int
}

// List returns users newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.User, error) {
	q := docstore.Query{OrderBy: "createdAt", Desc: true, Limit: f.Limit}
	if f.Role != "" {
		q.Filters = append(q.Filters, docstore.Where("role", docstore.Eq, f.Role))
	}
	if f.Status != "" {
		q.Filters = append(q.Filters, docstore.Where("status", docstore.Eq, f.Status))
	}
	var out []models.User
	if err := s.db.Query(ctx, Collection, q, &out); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// StageSave adds a full write of u to b.
func (s *Store) StageSave(b docstore.Batch, u models.User) {
	b.Set(Collection, u.UID, u)
}
