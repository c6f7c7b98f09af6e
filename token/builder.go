// Package token issues and verifies UAT tokens.
//
// Tokens are RS256-signed JWTs carrying the issuer, tenant, subject email and
// requested scopes. Issuance is a pure function of its inputs plus the clock and
// a random jti, so a Builder is safe for concurrent use.
package token

import (
	"crypto/rsa"
	"fmt"
	"time"

	uat "github.com/chimerakang/uat-go"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultKeyID is the kid header value. It stays constant while a single key is in use.
const DefaultKeyID = "kid"

// Claims is the JWT wire shape.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string   `json:"https://tableau.com/tenantId"`
	Email    string   `json:"email"`
	Scopes   []string `json:"scp"`
}

// Request describes one token to issue.
type Request struct {
	Issuer   string
	TenantID string
	Email    string
	Scopes   []string
	Expiry   time.Duration
}

// Issued is a signed token and the claims it carries.
type Issued struct {
	Token  string
	Claims uat.TokenClaims
}

// Builder signs tokens with a private key.
type Builder struct {
	key   *rsa.PrivateKey
	keyID string
	now   func() time.Time
	newID func() string
}

// compile-time check
var _ uat.TokenIssuer = (*Builder)(nil)

// Option configures the Builder.
type Option func(*Builder)

// WithKeyID sets the kid header. Default: "kid".
func WithKeyID(kid string) Option {
	return func(b *Builder) { b.keyID = kid }
}

// WithClock sets the time source used for iat and exp.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithIDGenerator sets the jti generator. Default: random UUIDv4.
func WithIDGenerator(f func() string) Option {
	return func(b *Builder) { b.newID = f }
}

// NewBuilder creates a Builder signing with key.
func NewBuilder(key *rsa.PrivateKey, opts ...Option) *Builder {
	b := &Builder{
		key:   key,
		keyID: DefaultKeyID,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Issue validates req and signs a fresh token. Scopes are taken as given;
// validating them is the caller's job (see package scope).
func (b *Builder) Issue(req Request) (*Issued, error) {
	if b.key == nil {
		return nil, &uat.KeyMaterialError{Err: fmt.Errorf("no signing key")}
	}
	if err := b.key.Validate(); err != nil {
		return nil, &uat.KeyMaterialError{Err: err}
	}
	if req.Issuer == "" {
		return nil, uat.Invalid("issuer", "must not be empty")
	}
	if req.TenantID == "" {
		return nil, uat.Invalid("tenantId", "must not be empty")
	}
	if req.Email == "" {
		return nil, uat.Invalid("email", "must not be empty")
	}
	if req.Expiry < time.Second {
		return nil, uat.Invalid("expiry", "must be positive, got %s", req.Expiry)
	}

	now := b.now().UTC().Truncate(time.Second)
	exp := now.Add(req.Expiry)
	scopes := append(make([]string, 0, len(req.Scopes)), req.Scopes...)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    req.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        b.newID(),
		},
		TenantID: req.TenantID,
		Email:    req.Email,
		Scopes:   scopes,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	t.Header["kid"] = b.keyID

	signed, err := t.SignedString(b.key)
	if err != nil {
		return nil, &uat.KeyMaterialError{Err: fmt.Errorf("sign: %w", err)}
	}

	return &Issued{
		Token: signed,
		Claims: uat.TokenClaims{
			Issuer:    req.Issuer,
			TenantID:  req.TenantID,
			Email:     req.Email,
			Scopes:    scopes,
			IssuedAt:  now,
			ExpiresAt: exp,
			ID:        claims.ID,
		},
	}, nil
}

// IssueToken implements uat.TokenIssuer.
func (b *Builder) IssueToken(issuer, tenantID, email string, scopes []string, expiryMinutes int) (string, error) {
	if expiryMinutes <= 0 {
		return "", uat.Invalid("expiryMinutes", "must be positive, got %d", expiryMinutes)
	}
	issued, err := b.Issue(Request{
		Issuer:   issuer,
		TenantID: tenantID,
		Email:    email,
		Scopes:   scopes,
		Expiry:   time.Duration(expiryMinutes) * time.Minute,
	})
	if err != nil {
		return "", err
	}
	return issued.Token, nil
}

// IssueToken signs a single token with signingKey.
func IssueToken(issuer, tenantID, email string, scopes []string, expiryMinutes int, signingKey *rsa.PrivateKey) (string, error) {
	return NewBuilder(signingKey).IssueToken(issuer, tenantID, email, scopes, expiryMinutes)
}
