package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/mansiuk/internal/app/system/docstore/memdb"
	"github.com/dalemusser/mansiuk/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// TestContext returns a context with a timeout suitable for store calls.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// NewDB returns an empty in-memory document store.
func NewDB(t *testing.T) *memdb.DB {
	t.Helper()
	db := memdb.New()
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *memdb.DB
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *memdb.DB) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *memdb.DB {
	return f.db
}

// CreateRequest stores a request in the given status. Fields left zero on
// tmpl get test defaults.
func (f *Fixtures) CreateRequest(ctx context.Context, status models.RequestStatus, tmpl models.Request) models.Request {
	f.t.Helper()

	now := time.Now().UTC()
	r := tmpl
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Requester.Name == "" {
		r.Requester = models.Requester{Name: "陳太", Phone: "91234567", Age: "72", District: "深水埗"}
	}
	if r.Description == "" {
		r.Description = "Weekly grocery shopping"
	}
	if len(r.Fields) == 0 {
		r.Fields = []models.ServiceField{models.FieldDailyHelper}
	}
	r.Status = status
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = r.CreatedAt

	if err := f.db.Set(ctx, "requests", r.ID, r); err != nil {
		f.t.Fatalf("failed to create test request: %v", err)
	}
	return r
}

// CreateApplication stores an application for requestID by volunteerID.
func (f *Fixtures) CreateApplication(ctx context.Context, requestID, volunteerID string, status models.ApplicationStatus) models.Application {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Application{
		ID:            uuid.NewString(),
		RequestID:     requestID,
		VolunteerID:   volunteerID,
		VolunteerName: "Volunteer " + volunteerID,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if status == models.ApplicationApproved || status == models.ApplicationCompleted {
		a.MatchedAt = &now
	}

	if err := f.db.Set(ctx, "applications", a.ID, a); err != nil {
		f.t.Fatalf("failed to create test application: %v", err)
	}
	return a
}

// CreateUser stores a user document keyed by uid.
func (f *Fixtures) CreateUser(ctx context.Context, uid string, role models.Role, status models.UserStatus) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		UID:         uid,
		Email:       uid + "@test.com",
		Role:        role,
		Status:      status,
		DisplayName: "User " + uid,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := f.db.Set(ctx, "users", uid, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// GetRequest reads a request back, failing the test when it is missing.
func (f *Fixtures) GetRequest(ctx context.Context, id string) models.Request {
	f.t.Helper()
	var r models.Request
	if err := f.db.Get(ctx, "requests", id, &r); err != nil {
		f.t.Fatalf("failed to load request %s: %v", id, err)
	}
	return r
}

// GetApplication reads an application back, failing the test when it is missing.
func (f *Fixtures) GetApplication(ctx context.Context, id string) models.Application {
	f.t.Helper()
	var a models.Application
	if err := f.db.Get(ctx, "applications", id, &a); err != nil {
		f.t.Fatalf("failed to load application %s: %v", id, err)
	}
	return a
}

// GetUser reads a user back, failing the test when it is missing.
func (f *Fixtures) GetUser(ctx context.Context, uid string) models.User {
	f.t.Helper()
	var u models.User
	if err := f.db.Get(ctx, "users", uid, &u); err != nil {
		f.t.Fatalf("failed to load user %s: %v", uid, err)
	}
	return u
}
