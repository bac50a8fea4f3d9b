// internal/app/system/auth/firebase.go
package auth

import (
	"context"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
)

// FirebaseVerifier implements Verifier with the Firebase Admin SDK.
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseVerifier wraps an Admin SDK auth client.
func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) VerifyToken(ctx context.Context, idToken string) (*Identity, error) {
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return identityFrom(tok), nil
}

func (v *FirebaseVerifier) VerifySession(ctx context.Context, cookie string) (*Identity, error) {
	tok, err := v.client.VerifySessionCookieAndCheckRevoked(ctx, cookie)
	if err != nil {
		return nil, err
	}
	return identityFrom(tok), nil
}

func (v *FirebaseVerifier) CreateSession(ctx context.Context, idToken string, expiresIn time.Duration) (string, error) {
	return v.client.SessionCookie(ctx, idToken, expiresIn)
}

func (v *FirebaseVerifier) RevokeSessions(ctx context.Context, uid string) error {
	return v.client.RevokeRefreshTokens(ctx, uid)
}

func identityFrom(tok *fbauth.Token) *Identity {
	email, _ := tok.Claims["email"].(string)
	return &Identity{UID: tok.UID, Email: email}
}
