package token

import (
	"context"
	"crypto/rsa"
	"fmt"
	"time"

	uat "github.com/chimerakang/uat-go"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier implements uat.TokenVerifier with a single RSA public key.
type Verifier struct {
	key    *rsa.PublicKey
	issuer string
	leeway time.Duration
}

// compile-time check
var _ uat.TokenVerifier = (*Verifier)(nil)

// VerifierOption configures the Verifier.
type VerifierOption func(*Verifier)

// WithIssuer requires the iss claim to equal issuer.
func WithIssuer(issuer string) VerifierOption {
	return func(v *Verifier) { v.issuer = issuer }
}

// WithLeeway allows for clock skew when checking exp and iat.
func WithLeeway(d time.Duration) VerifierOption {
	return func(v *Verifier) { v.leeway = d }
}

// NewVerifier creates a Verifier for tokens signed by the private half of key.
func NewVerifier(key *rsa.PublicKey, opts ...VerifierOption) *Verifier {
	v := &Verifier{key: key}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Verify validates the signature, algorithm, expiry and issuer of tokenString.
func (v *Verifier) Verify(_ context.Context, tokenString string) (*uat.TokenClaims, error) {
	if v.key == nil {
		return nil, &uat.KeyMaterialError{Err: fmt.Errorf("no verification key")}
	}

	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("uat/token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("uat/token: invalid token")
	}

	return claims.toUAT(), nil
}

// Decode parses tokenString without verifying its signature. Use it only for
// display and debugging.
func Decode(tokenString string) (*uat.TokenClaims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, &claims); err != nil {
		return nil, fmt.Errorf("uat/token: %w", err)
	}
	return claims.toUAT(), nil
}

func (c *Claims) toUAT() *uat.TokenClaims {
	out := &uat.TokenClaims{
		Issuer:   c.Issuer,
		TenantID: c.TenantID,
		Email:    c.Email,
		Scopes:   c.Scopes,
		ID:       c.ID,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time.UTC()
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time.UTC()
	}
	return out
}
