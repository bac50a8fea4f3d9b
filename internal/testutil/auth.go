package testutil

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	userstore "github.com/dalemusser/mansiuk/internal/app/store/users"
	"github.com/dalemusser/mansiuk/internal/app/system/auth"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"go.uber.org/zap"
)

// SessionCookie is the cookie name used by NewSessionManager.
const SessionCookie = "mansiuk_session"

// StubVerifier accepts any non-empty bearer token or session cookie and
// treats its value as the UID. The token "invalid" is rejected.
type StubVerifier struct{}

func (StubVerifier) VerifyToken(_ context.Context, tok string) (*auth.Identity, error) {
	return stubIdentity(tok)
}

func (StubVerifier) VerifySession(_ context.Context, cookie string) (*auth.Identity, error) {
	return stubIdentity(cookie)
}

func (StubVerifier) CreateSession(_ context.Context, tok string, _ time.Duration) (string, error) {
	return tok, nil
}

func (StubVerifier) RevokeSessions(context.Context, string) error { return nil }

func stubIdentity(v string) (*auth.Identity, error) {
	if v == "" || v == "invalid" {
		return nil, errors.New("invalid credential")
	}
	return &auth.Identity{UID: v, Email: v + "@test.com"}, nil
}

// NewSessionManager returns a SessionManager over StubVerifier whose users
// are read from db.
func NewSessionManager(t *testing.T, db docstore.DB) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(StubVerifier{}, SessionCookie, 0, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	sm.SetUserFetcher(userstore.NewFetcher(db))
	return sm
}

// Bearer authenticates r as uid against a StubVerifier session manager.
func Bearer(r *http.Request, uid string) *http.Request {
	r.Header.Set("Authorization", "Bearer "+uid)
	return r
}
