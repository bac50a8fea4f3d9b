// Package workflow implements the request and application lifecycles: status
// transitions with their cascades, merges, follow-ups and volunteer review.
//
// Every mutation loads the documents it needs, computes the new documents
// with a pure Plan* function, and commits them as one docstore batch. Audit
// entries are written after the commit and never fail the operation.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	applicationstore "github.com/dalemusser/mansiuk/internal/app/store/applications"
	requeststore "github.com/dalemusser/mansiuk/internal/app/store/requests"
	userstore "github.com/dalemusser/mansiuk/internal/app/store/users"
	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/dalemusser/mansiuk/internal/app/system/auditlog"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"github.com/dalemusser/mansiuk/internal/app/system/metrics"
	"github.com/dalemusser/mansiuk/internal/domain/models"
	"go.uber.org/zap"
)

// Service runs workflow operations against a document store.
type Service struct {
	db       docstore.DB
	requests *requeststore.Store
	apps     *applicationstore.Store
	users    *userstore.Store
	audit    *auditlog.Logger
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

// New builds a Service. audit and m may be nil.
func New(db docstore.DB, audit *auditlog.Logger, m *metrics.Metrics, log *zap.Logger) *Service {
	return &Service{
		db:       db,
		requests: requeststore.New(db),
		apps:     applicationstore.New(db),
		users:    userstore.New(db),
		audit:    audit,
		metrics:  m,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source. For tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// observe records duration and failures for op. Use as
// defer s.observe("op", &err)().
func (s *Service) observe(op string, errp *error) func() {
	done := s.metrics.Time(op)
	return func() {
		done()
		if *errp != nil {
			code := apperr.CodeOf(*errp)
			s.metrics.Failed(op, string(code))
			if code == apperr.CodeInternal || code == apperr.CodeUnavailable {
				s.log.Error("workflow operation failed", zap.String("operation", op), zap.Error(*errp))
			}
		}
	}
}

func requireAdmin(actor models.Actor) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("admin role required")
	}
	return nil
}

func (s *Service) loadRequest(ctx context.Context, id string) (models.Request, error) {
	r, err := s.requests.GetByID(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.Request{}, apperr.NotFound(fmt.Sprintf("request %s not found", id))
	}
	return r, err
}

// loadParent returns nil when the request is gone.
func (s *Service) loadParent(ctx context.Context, id string) (*models.Request, error) {
	r, err := s.requests.GetByID(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Service) loadApplication(ctx context.Context, id string) (models.Application, error) {
	a, err := s.apps.GetByID(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.Application{}, apperr.NotFound("application not found")
	}
	return a, err
}

func (s *Service) commit(ctx context.Context, b docstore.Batch, what string) error {
	if err := b.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s: %w", what, err)
	}
	return nil
}
