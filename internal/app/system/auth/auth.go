package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/mansiuk/internal/app/system/apperr"
	"github.com/dalemusser/mansiuk/internal/app/system/jsonio"
	"github.com/dalemusser/mansiuk/internal/domain/models"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Identity provider boundary                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// Identity is the subject of a verified credential.
type Identity struct {
	UID   string
	Email string
}

// Verifier checks credentials issued by the identity provider.
type Verifier interface {
	// VerifyToken checks a bearer ID token.
	VerifyToken(ctx context.Context, idToken string) (*Identity, error)
	// VerifySession checks a session cookie value.
	VerifySession(ctx context.Context, cookie string) (*Identity, error)
	// CreateSession exchanges a fresh ID token for a session cookie value.
	CreateSession(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	// RevokeSessions invalidates every session of uid.
	RevokeSessions(ctx context.Context, uid string) error
}

// UserFetcher loads the role record of a verified subject. It returns
// (nil, nil) when the subject has no user document yet.
type UserFetcher interface {
	FetchUser(ctx context.Context, uid string) (*models.User, error)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the signed-in user injected into r.Context().
type SessionUser struct {
	ID     string
	Name   string
	Email  string
	Role   models.Role
	Status models.UserStatus
}

// Actor returns the user as a workflow actor.
func (u *SessionUser) Actor() models.Actor {
	return models.Actor{ID: u.ID, Name: u.Name, Role: u.Role}
}

type ctxKey string

const (
	currentUserKey     ctxKey = "currentUser"
	currentIdentityKey ctxKey = "currentIdentity"
)

// CurrentIdentity returns the verified identity, which may exist without a
// user document (first sign-in before the profile is saved).
func CurrentIdentity(r *http.Request) (*Identity, bool) {
	id, ok := r.Context().Value(currentIdentityKey).(*Identity)
	return id, ok
}

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session manager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// DefaultSessionExpiry matches the identity provider's recommended session
// cookie lifetime.
const DefaultSessionExpiry = 5 * 24 * time.Hour

// SessionManager authenticates requests from a bearer token or the session
// cookie and issues/clears that cookie.
type SessionManager struct {
	verifier   Verifier
	fetcher    UserFetcher
	cookieName string
	expiry     time.Duration
	secure     bool
	log        *zap.Logger
}

// NewSessionManager builds a SessionManager. expiry <= 0 uses
// DefaultSessionExpiry.
func NewSessionManager(verifier Verifier, cookieName string, expiry time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if verifier == nil {
		return nil, errors.New("auth: verifier is required")
	}
	if cookieName == "" {
		return nil, errors.New("auth: session cookie name is empty")
	}
	if expiry <= 0 {
		expiry = DefaultSessionExpiry
	}
	return &SessionManager{
		verifier:   verifier,
		cookieName: cookieName,
		expiry:     expiry,
		secure:     secure,
		log:        logger,
	}, nil
}

// SetUserFetcher sets the role store lookup used by LoadSessionUser.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// CookieName returns the session cookie's name.
func (sm *SessionManager) CookieName() string { return sm.cookieName }

// LoadSessionUser verifies the caller's credential, if any, and injects the
// identity and user into the request context. Requests without a credential,
// or with an invalid one, continue anonymously; the Require* middleware
// decides what that means.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := sm.identify(r)
		if err != nil {
			sm.log.Debug("credential rejected", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if id == nil {
			next.ServeHTTP(w, r)
			return
		}
		r = withIdentity(r, id)

		if sm.fetcher != nil {
			u, err := sm.fetcher.FetchUser(r.Context(), id.UID)
			if err != nil {
				sm.log.Error("user lookup failed", zap.String("uid", id.UID), zap.Error(err))
				jsonio.WriteError(w, apperr.From(err))
				return
			}
			if u != nil {
				r = withUser(r, &SessionUser{
					ID:     id.UID,
					Name:   u.DisplayName,
					Email:  u.Email,
					Role:   u.Role,
					Status: u.Status,
				})
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (sm *SessionManager) identify(r *http.Request) (*Identity, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return nil, errors.New("malformed authorization header")
		}
		return sm.verifier.VerifyToken(r.Context(), strings.TrimSpace(token))
	}
	if c, err := r.Cookie(sm.cookieName); err == nil && c.Value != "" {
		return sm.verifier.VerifySession(r.Context(), c.Value)
	}
	return nil, nil
}

// RequireSignedIn ensures a verified identity is present (401 otherwise).
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentIdentity(r); !ok {
			jsonio.WriteError(w, apperr.Unauthenticated("sign-in required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole ensures the signed-in user holds one of the allowed roles.
// No credential → 401; credential without a matching role → 403.
func (sm *SessionManager) RequireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	set := make(map[models.Role]struct{}, len(allowed))
	for _, role := range allowed {
		set[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := CurrentIdentity(r); !ok {
				jsonio.WriteError(w, apperr.Unauthenticated("sign-in required"))
				return
			}
			u, ok := CurrentUser(r)
			if !ok {
				jsonio.WriteError(w, apperr.Forbidden("no user profile for this account"))
				return
			}
			if _, has := set[u.Role]; !has {
				jsonio.WriteError(w, apperr.Forbidden("insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IssueSession exchanges idToken for a session cookie and sets it on w.
func (sm *SessionManager) IssueSession(w http.ResponseWriter, r *http.Request, idToken string) error {
	if _, err := sm.verifier.VerifyToken(r.Context(), idToken); err != nil {
		return apperr.Unauthenticated("invalid ID token")
	}
	value, err := sm.verifier.CreateSession(r.Context(), idToken, sm.expiry)
	if err != nil {
		return fmt.Errorf("create session cookie: %w", err)
	}
	http.SetCookie(w, sm.cookie(value, int(sm.expiry.Seconds())))
	return nil
}

// ClearSession expires the cookie and, when the caller is known, revokes
// their sessions at the provider. Revocation failures are logged only.
func (sm *SessionManager) ClearSession(w http.ResponseWriter, r *http.Request) {
	if id, ok := CurrentIdentity(r); ok {
		if err := sm.verifier.RevokeSessions(r.Context(), id.UID); err != nil {
			sm.log.Warn("session revocation failed", zap.String("uid", id.UID), zap.Error(err))
		}
	}
	http.SetCookie(w, sm.cookie("", -1))
}

func (sm *SessionManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sm.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// helpers

func withIdentity(r *http.Request, id *Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentIdentityKey, id))
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects u (and a matching identity) into the request context.
// For handler tests.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	r = withIdentity(r, &Identity{UID: u.ID, Email: u.Email})
	return withUser(r, u)
}
