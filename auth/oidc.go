// Package auth wraps the external OIDC identity collaborator. The core
// trusts whatever identity the verifier yields; no user management happens
// here.
package auth

import (
	"context"
	"fmt"
	"math"
	"time"

	coreoidc "github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
)

// Verifier turns a raw bearer token into a user identity.
type Verifier interface {
	Verify(ctx context.Context, raw string) (userID string, err error)
}

// OIDCVerifier validates ID tokens against the configured provider and uses
// the token subject as the user identity.
type OIDCVerifier struct {
	verifier *coreoidc.IDTokenVerifier
	audience string
}

// NewOIDCVerifier initializes the provider with exponential backoff; identity
// providers routinely come up after the backend in compose/k8s environments.
func NewOIDCVerifier(ctx context.Context, issuer, clientID, audience string, log *zap.SugaredLogger) (*OIDCVerifier, error) {
	const maxAttempts = 8
	var provider *coreoidc.Provider
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		provider, err = coreoidc.NewProvider(ctx, issuer)
		if err == nil {
			log.Infow("oidc provider initialized", "issuer", issuer, "attempt", attempt)
			return &OIDCVerifier{
				verifier: provider.Verifier(&coreoidc.Config{ClientID: clientID}),
				audience: audience,
			}, nil
		}
		sleep := time.Duration(math.Min(float64(30*time.Second), float64(time.Second)*math.Pow(2, float64(attempt))))
		log.Errorw("oidc provider init failed", "err", err, "attempt", attempt, "next_sleep", sleep.String())
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return nil, fmt.Errorf("oidc init canceled: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("oidc provider init after %d attempts: %w", maxAttempts, err)
}

func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (string, error) {
	tok, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return "", err
	}
	var claims struct {
		Aud string `json:"aud"`
		Exp int64  `json:"exp"`
	}
	if err := tok.Claims(&claims); err != nil {
		return "", err
	}
	if claims.Aud != v.audience {
		return "", ErrInvalidAudience{Expected: v.audience, Got: claims.Aud}
	}
	if time.Now().Unix() > claims.Exp {
		return "", ErrTokenExpired{}
	}
	if tok.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return tok.Subject, nil
}

type ErrInvalidAudience struct{ Expected, Got string }

func (e ErrInvalidAudience) Error() string {
	return "invalid audience: expected " + e.Expected + " got " + e.Got
}

type ErrTokenExpired struct{}

func (e ErrTokenExpired) Error() string { return "token expired" }
