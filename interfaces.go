package uat

//go:generate go run go.uber.org/mock/mockgen -package mocks -destination mocks/uat_mock.go github.com/chimerakang/uat-go ContentAPI,ControlPlane,KeyProvider,Registrar,TokenIssuer,TokenVerifier

import (
	"context"
	"crypto/rsa"
)

// KeyProvider supplies the signing key pair.
// Implementations: keys/ (PEM files on disk).
type KeyProvider interface {
	// LoadPrivateKey returns the private key used for signing.
	LoadPrivateKey() (*rsa.PrivateKey, error)

	// LoadPublicKeyPEM returns the PEM text registered as the trust anchor.
	LoadPublicKeyPEM() ([]byte, error)
}

// TokenIssuer signs UAT tokens.
// Implementations: token/.
type TokenIssuer interface {
	// IssueToken signs a fresh token for the subject with the requested scopes.
	IssueToken(issuer, tenantID, email string, scopes []string, expiryMinutes int) (string, error)
}

// TokenVerifier verifies signed tokens and extracts claims.
// Implementations: token/ (RSA public key), fake/ (testing).
type TokenVerifier interface {
	// Verify validates the token and returns the extracted claims.
	Verify(ctx context.Context, token string) (*TokenClaims, error)
}

// ControlPlane is the Cloud Manager surface used to obtain sessions and manage
// trust configurations.
// Implementations: controlplane/.
type ControlPlane interface {
	// LoginPAT exchanges a personal access token secret for a session.
	LoginPAT(ctx context.Context, secret string) (*Session, error)

	// LoginJWT exchanges a signed token for a session (Leg A).
	LoginJWT(ctx context.Context, token string) (*Session, error)
}

// Registrar manages UAT configurations with a control-plane session token.
// Implementations: controlplane/.
type Registrar interface {
	// CreateConfiguration submits cfg. A conflict returns a non-fatal outcome.
	CreateConfiguration(ctx context.Context, session string, cfg Configuration) (*RegistrationOutcome, error)

	// ListConfigurations returns the configurations visible to the session.
	ListConfigurations(ctx context.Context, session string) ([]Configuration, error)

	// RevokeConfiguration deletes the configuration with the given ID.
	RevokeConfiguration(ctx context.Context, session, configID string) error
}

// ContentAPI signs in to a site with a signed token (Leg B).
// Implementations: contentapi/.
type ContentAPI interface {
	// SignIn exchanges token for a session bound to the site content URL.
	SignIn(ctx context.Context, token, site string) (*Session, error)
}
