package userstore

import (
	"context"
	"errors"

	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"github.com/dalemusser/mansiuk/internal/app/system/timeouts"
	"github.com/dalemusser/mansiuk/internal/domain/models"
)

// Fetcher implements auth.UserFetcher to load fresh role data on each request.
type Fetcher struct {
	store *Store
}

// NewFetcher creates a UserFetcher over db.
func NewFetcher(db docstore.DB) *Fetcher {
	return &Fetcher{store: New(db)}
}

// FetchUser returns the user document for uid, or nil when none exists yet.
// Storage failures are returned so the caller can answer 503/500 instead of
// treating the caller as anonymous.
func (f *Fetcher) FetchUser(ctx context.Context, uid string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := f.store.GetByID(ctx, uid)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
