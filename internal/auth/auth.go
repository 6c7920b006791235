// Package auth verifies bearer tokens from one of three interchangeable
// identity backends: a managed Keycloak realm, a generic OIDC issuer, or the
// self-hosted email/password scheme. Exactly one backend is active, chosen by
// configuration at process start.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/gains/internal/config"
)

// Identity is a verified caller. Subject is the opaque identity-provider
// subject every stored document is scoped by.
type Identity struct {
	Subject     string
	DisplayName string
	Email       string
}

// ErrInvalidToken covers every verification failure; the reason is logged,
// not surfaced.
var ErrInvalidToken = errors.New("invalid or expired token")

// Verifier turns a bearer token into a verified identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
	// Provider reports the active backend name for /api/auth/config.
	Provider() string
}

// New builds the configured verifier. For the local provider the returned
// *Local also issues tokens (register/login/refresh); it is nil otherwise.
func New(ctx context.Context, cfg config.AuthConfig) (Verifier, *Local, error) {
	switch cfg.Provider {
	case "keycloak", "oidc":
		v, err := newOIDC(ctx, cfg.Provider, cfg.OIDCIssuer(), cfg.ClientID)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing %s verifier: %w", cfg.Provider, err)
		}
		return v, nil, nil
	case "local":
		l := NewLocal([]byte(cfg.JWTSecret), cfg.AllowRegistration)
		return l, l, nil
	default:
		return nil, nil, fmt.Errorf("unknown auth provider %q", cfg.Provider)
	}
}
