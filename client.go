// Package uat provides a Go SDK for Unified Access Token (UAT) authentication
// against Cloud Manager and the site-level content API.
//
// The SDK defines interfaces for key material, token issuance and verification,
// the two login legs and trust-configuration management. Concrete implementations
// live in sub-packages and are injected via Option functions.
//
// Example usage:
//
//	store := keys.NewStore(cfg.KeyDir)
//	priv, _ := store.LoadPrivateKey()
//	client, err := uat.NewClient(cfg,
//	    uat.WithKeyProvider(store),
//	    uat.WithTokenIssuer(token.NewBuilder(priv)),
//	    uat.WithControlPlane(controlplane.New(cfg)),
//	)
package uat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Client is the main entry point for UAT operations.
// Service implementations are injected via Option functions.
type Client struct {
	config       Config
	logger       *slog.Logger
	keys         KeyProvider
	issuer       TokenIssuer
	verifier     TokenVerifier
	controlPlane ControlPlane
	registrar    Registrar
	contentAPI   ContentAPI
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a structured logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithKeyProvider sets the key material provider.
func WithKeyProvider(k KeyProvider) Option {
	return func(c *Client) { c.keys = k }
}

// WithTokenIssuer sets the token signing implementation.
func WithTokenIssuer(i TokenIssuer) Option {
	return func(c *Client) { c.issuer = i }
}

// WithTokenVerifier sets the token verification implementation.
func WithTokenVerifier(v TokenVerifier) Option {
	return func(c *Client) { c.verifier = v }
}

// WithControlPlane sets the Cloud Manager login implementation.
func WithControlPlane(cp ControlPlane) Option {
	return func(c *Client) { c.controlPlane = cp }
}

// WithRegistrar sets the configuration registrar.
func WithRegistrar(r Registrar) Option {
	return func(c *Client) { c.registrar = r }
}

// WithContentAPI sets the content-API login implementation.
func WithContentAPI(api ContentAPI) Option {
	return func(c *Client) { c.contentAPI = api }
}

// NewClient creates a new UAT client with the given configuration and options.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{config: cfg, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Config returns the client configuration.
func (c *Client) Config() Config { return c.config }

// Logger returns the configured logger.
func (c *Client) Logger() *slog.Logger { return c.logger }

// Keys returns the key provider, or nil if not configured.
func (c *Client) Keys() KeyProvider { return c.keys }

// Issuer returns the token issuer, or nil if not configured.
func (c *Client) Issuer() TokenIssuer { return c.issuer }

// Verifier returns the token verifier, or nil if not configured.
func (c *Client) Verifier() TokenVerifier { return c.verifier }

// ControlPlane returns the control-plane login implementation, or nil if not configured.
func (c *Client) ControlPlane() ControlPlane { return c.controlPlane }

// Registrar returns the configuration registrar, or nil if not configured.
func (c *Client) Registrar() Registrar { return c.registrar }

// ContentAPI returns the content-API login implementation, or nil if not configured.
func (c *Client) ContentAPI() ContentAPI { return c.contentAPI }

// IssueToken signs a token for email using the configured issuer, tenant and expiry.
func (c *Client) IssueToken(email string, scopes []string) (string, error) {
	if c.issuer == nil {
		return "", fmt.Errorf("uat: token issuer not configured")
	}
	tok, err := c.issuer.IssueToken(c.config.JWTIssuer, c.config.TenantID, email, scopes, c.config.JWTExpirationMinutes)
	if err != nil {
		return "", err
	}
	c.logger.Debug("issued token", "issuer", c.config.JWTIssuer, "tenant", c.config.TenantID, "scopes", len(scopes))
	return tok, nil
}

// Login drives both login legs with the same signed token. The content-API leg
// is skipped when no site is configured. Legs are independent: a failure in one
// does not prevent the other.
func (c *Client) Login(ctx context.Context, token string) (controlPlane, contentAPI LegResult) {
	controlPlane = LegResult{Status: StatusSkipped}
	if c.controlPlane != nil {
		s, err := c.controlPlane.LoginJWT(ctx, token)
		controlPlane = NewLegResult(s, err)
	}

	contentAPI = LegResult{Status: StatusSkipped}
	if c.contentAPI != nil && c.config.ContentAPISiteID != "" {
		s, err := c.contentAPI.SignIn(ctx, token, c.config.ContentAPISiteID)
		contentAPI = NewLegResult(s, err)
	}
	return controlPlane, contentAPI
}

// NewLegResult converts the return values of a login call into a LegResult.
// A nil session or one without a token is a failed leg.
func NewLegResult(s *Session, err error) LegResult {
	if err == nil && (s == nil || s.Token == "") {
		err = fmt.Errorf("%w: login returned no session token", ErrAuthentication)
	}
	if err != nil {
		return LegResult{Status: StatusFailed, Err: err, Exchange: ExchangeOf(err)}
	}
	return LegResult{Status: StatusSuccess, Session: s}
}

// HealthCheck returns an error if no services are configured.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.keys == nil && c.issuer == nil && c.verifier == nil &&
		c.controlPlane == nil && c.registrar == nil && c.contentAPI == nil {
		return fmt.Errorf("uat: no services configured")
	}
	return ctx.Err()
}

// Close releases all resources held by the client.
// Any injected service that implements io.Closer will be closed.
func (c *Client) Close() error {
	closers := []any{
		c.keys, c.issuer, c.verifier,
		c.controlPlane, c.registrar, c.contentAPI,
	}
	var firstErr error
	for _, svc := range closers {
		if cl, ok := svc.(io.Closer); ok && cl != nil {
			if err := cl.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
