// Package controlplane implements the Cloud Manager side of the UAT protocol:
// personal access token and JWT logins, and management of UAT configurations.
package controlplane

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	uat "github.com/chimerakang/uat-go"
	"github.com/chimerakang/uat-go/audit"
	"github.com/chimerakang/uat-go/keys"
	"github.com/chimerakang/uat-go/metrics"
	"github.com/chimerakang/uat-go/scope"
	"github.com/chimerakang/uat-go/transport"
)

// Client talks to the Cloud Manager API.
type Client struct {
	cfg        uat.Config
	transport  *transport.Client
	httpClient *http.Client
	keys       uat.KeyProvider
	logger     *slog.Logger
	metrics    *metrics.Metrics
	audit      *audit.Logger
	now        func() time.Time
}

// compile-time checks
var (
	_ uat.ControlPlane = (*Client)(nil)
	_ uat.Registrar    = (*Client)(nil)
)

// Option configures the Client.
type Option func(*Client)

// WithTransport sets the transport used for every call.
func WithTransport(t *transport.Client) Option {
	return func(c *Client) { c.transport = t }
}

// WithHTTPClient sets a custom HTTP client. Ignored when WithTransport is given.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithKeyProvider sets where Register reads the public key from.
// Default: a keys.Store rooted at Config.KeyDir.
func WithKeyProvider(k uat.KeyProvider) Option {
	return func(c *Client) { c.keys = k }
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithAuditLogger emits audit events for logins and configuration changes.
func WithAuditLogger(a *audit.Logger) Option {
	return func(c *Client) { c.audit = a }
}

// New creates a Cloud Manager client for the endpoints in cfg.
func New(cfg uat.Config, opts ...Option) *Client {
	cfg = cfg.WithDefaults()
	c := &Client{
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	if c.transport == nil {
		topts := []transport.Option{transport.WithLogger(c.logger)}
		if c.httpClient != nil {
			topts = append(topts, transport.WithHTTPClient(c.httpClient))
		}
		c.transport = transport.New(cfg.HTTPTimeout, topts...)
	}
	if c.keys == nil {
		c.keys = keys.NewStore(cfg.KeyDir)
	}
	return c
}

type loginRequest struct {
	Token string `json:"token"`
}

type loginResponse struct {
	SessionToken string `json:"sessionToken"`
}

// LoginPAT exchanges a personal access token secret for a session. An empty
// secret falls back to Config.ControlPlanePATSecret. Transport failures are
// returned to the caller as *uat.TransportError.
func (c *Client) LoginPAT(ctx context.Context, secret string) (*uat.Session, error) {
	if secret == "" {
		secret = c.cfg.ControlPlanePATSecret
	}
	if secret == "" {
		return nil, uat.Invalid("controlPlanePatSecret", "must not be empty")
	}
	s, _, err := c.login(ctx, "pat", c.cfg.ControlPlanePATLoginURL, "controlPlanePatLoginUrl", secret)
	return s, err
}

// LoginJWT exchanges a signed UAT token for a session (Leg A).
func (c *Client) LoginJWT(ctx context.Context, token string) (*uat.Session, error) {
	res := c.LoginLeg(ctx, token)
	return res.Session, res.Err
}

// LoginLeg runs Leg A and reports the outcome together with the recorded exchange.
func (c *Client) LoginLeg(ctx context.Context, token string) uat.LegResult {
	if token == "" {
		return uat.LegResult{Status: uat.StatusFailed, Err: uat.Invalid("token", "must not be empty")}
	}
	s, ex, err := c.login(ctx, "jwt", c.cfg.ControlPlaneJWTLoginURL, "controlPlaneJwtLoginUrl", token)
	if err != nil {
		return uat.LegResult{Status: uat.StatusFailed, Err: err, Exchange: ex}
	}
	return uat.LegResult{Status: uat.StatusSuccess, Session: s, Exchange: ex}
}

func (c *Client) login(ctx context.Context, kind, url, field, credential string) (*uat.Session, *uat.Exchange, error) {
	if url == "" {
		return nil, nil, uat.Invalid(field, "not configured")
	}
	leg := "control_plane_" + kind

	start := c.now()
	ex, err := c.transport.Do(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    url,
		Body:   loginRequest{Token: credential},
	})
	c.metrics.ObserveRequest(leg, time.Since(start).Seconds())
	if err != nil {
		c.recordLogin(ctx, leg, metrics.ResultFailure, ex, err)
		return nil, ex, err
	}
	if !transport.OK(ex) {
		err := &uat.AuthenticationError{HTTPFailure: transport.Failure(ex)}
		c.recordLogin(ctx, leg, metrics.ResultFailure, ex, err)
		return nil, ex, err
	}

	var resp loginResponse
	if err := transport.Decode(ex, &resp); err != nil {
		err = fmt.Errorf("uat/controlplane: %w: %w", uat.ErrAuthentication, err)
		c.recordLogin(ctx, leg, metrics.ResultFailure, ex, err)
		return nil, ex, err
	}
	if resp.SessionToken == "" {
		err := fmt.Errorf("uat/controlplane: %w: response has no sessionToken", uat.ErrAuthentication)
		c.recordLogin(ctx, leg, metrics.ResultFailure, ex, err)
		return nil, ex, err
	}

	c.recordLogin(ctx, leg, metrics.ResultSuccess, ex, nil)
	c.logger.Info("control plane login succeeded", "method", kind)
	return &uat.Session{
		Token:      resp.SessionToken,
		Via:        uat.SourceControlPlane,
		AcquiredAt: c.now(),
	}, ex, nil
}

func (c *Client) recordLogin(ctx context.Context, leg, result string, ex *uat.Exchange, err error) {
	c.metrics.RecordLogin(leg, result)
	ev := audit.Event{
		Action:   audit.ActionLogin,
		Result:   audit.ResultSuccess,
		TenantID: c.cfg.TenantID,
		Resource: leg,
	}
	if ex != nil {
		ev.StatusCode = ex.StatusCode
	}
	if err != nil {
		ev.Result = audit.ResultFailure
		ev.Error = err.Error()
		c.logger.Warn("control plane login failed", "leg", leg, "error", err)
	}
	c.audit.LogContext(ctx, ev)
}

// CreateConfiguration submits cfg with the given session token.
//
// A 2xx response yields RegistrationCreated and a nil error. A 409 yields
// RegistrationAlreadyExists and a *uat.RegistrationConflict, which callers may
// treat as non-fatal. Any other status yields RegistrationFailed and a
// *uat.RegistrationFailed; transport failures yield a *uat.TransportError.
// The outcome always carries the recorded exchange when a request was sent.
func (c *Client) CreateConfiguration(ctx context.Context, session string, cfg uat.Configuration) (*uat.RegistrationOutcome, error) {
	if err := c.checkSession(session); err != nil {
		return &uat.RegistrationOutcome{Result: uat.RegistrationFailedResult, Message: err.Error()}, err
	}
	if err := validateConfiguration(&cfg); err != nil {
		return &uat.RegistrationOutcome{Result: uat.RegistrationFailedResult, Message: err.Error()}, err
	}

	start := c.now()
	ex, err := c.transport.Do(ctx, transport.Request{
		Method:  http.MethodPost,
		URL:     c.cfg.ControlPlaneUATConfigsURL,
		Headers: map[string]string{transport.SessionHeader: session},
		Body:    cfg,
	})
	c.metrics.ObserveRequest("config_create", time.Since(start).Seconds())

	out := &uat.RegistrationOutcome{Exchange: ex}
	switch {
	case err != nil:
		out.Result = uat.RegistrationFailedResult
		out.Message = fmt.Sprintf("Request Exception: %v", err)
	case ex.StatusCode == http.StatusConflict:
		err = &uat.RegistrationConflict{Name: cfg.Name, HTTPFailure: transport.Failure(ex)}
		out.Result = uat.RegistrationAlreadyExists
		out.Message = err.Error()
	case !transport.OK(ex):
		err = &uat.RegistrationFailed{Name: cfg.Name, HTTPFailure: transport.Failure(ex)}
		out.Result = uat.RegistrationFailedResult
		out.Message = fmt.Sprintf("HTTP Error: %d", ex.StatusCode)
	default:
		out.Result = uat.RegistrationCreated
		out.Message = fmt.Sprintf("UAT configuration '%s' created successfully.", cfg.Name)
	}

	c.recordRegistration(ctx, cfg, out, err)
	return out, err
}

func (c *Client) recordRegistration(ctx context.Context, cfg uat.Configuration, out *uat.RegistrationOutcome, err error) {
	ev := audit.Event{
		Action:   audit.ActionConfigRegister,
		Issuer:   cfg.Issuer,
		TenantID: c.cfg.TenantID,
		Resource: cfg.Name,
		Scopes:   cfg.Scopes,
		Details:  "resourceIds=" + strings.Join(cfg.ResourceIDs, ","),
	}
	if out.Exchange != nil {
		ev.StatusCode = out.Exchange.StatusCode
	}

	switch out.Result {
	case uat.RegistrationCreated:
		c.metrics.RecordRegistration(metrics.ResultSuccess)
		ev.Result = audit.ResultSuccess
		c.logger.Info("uat configuration created", "name", cfg.Name, "scopes", len(cfg.Scopes))
	case uat.RegistrationAlreadyExists:
		c.metrics.RecordRegistration(metrics.ResultConflict)
		ev.Result = audit.ResultAdvice
		c.logger.Warn(out.Message, "name", cfg.Name)
	default:
		c.metrics.RecordRegistration(metrics.ResultFailure)
		ev.Result = audit.ResultFailure
		c.logger.Error("uat configuration registration failed", "name", cfg.Name, "error", err)
	}
	if err != nil {
		ev.Error = err.Error()
	}
	c.audit.LogContext(ctx, ev)
}

// Register builds a configuration from the key store and client configuration
// and submits it. Scopes are validated and deduplicated. A nil resourceIDs
// falls back to Config.TenantID.
func (c *Client) Register(ctx context.Context, session, name string, scopes []string, resourceIDs []string) (*uat.RegistrationOutcome, error) {
	cfg, err := c.BuildConfiguration(name, scopes, resourceIDs)
	if err != nil {
		return &uat.RegistrationOutcome{Result: uat.RegistrationFailedResult, Message: err.Error()}, err
	}
	return c.CreateConfiguration(ctx, session, cfg)
}

// BuildConfiguration assembles the configuration Register would submit.
func (c *Client) BuildConfiguration(name string, scopes []string, resourceIDs []string) (uat.Configuration, error) {
	set, err := scope.ValidateSet(scopes)
	if err != nil {
		return uat.Configuration{}, err
	}
	return c.cfg.BuildConfiguration(c.keys, name, set.Strings(), resourceIDs)
}

func validateConfiguration(cfg *uat.Configuration) error {
	if cfg.Name == "" {
		return uat.Invalid("name", "must not be empty")
	}
	if cfg.Issuer == "" {
		return uat.Invalid("issuer", "must not be empty")
	}
	if cfg.PublicKey == "" {
		return uat.Invalid("publicKey", "must not be empty")
	}
	if cfg.UsernameClaim == "" {
		cfg.UsernameClaim = uat.UsernameClaimEmail
	}
	ids := make([]string, 0, len(cfg.ResourceIDs))
	for _, id := range cfg.ResourceIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return uat.Invalid("resourceIds", "no resource IDs after filtering unset values")
	}
	cfg.ResourceIDs = ids
	if cfg.Scopes == nil {
		cfg.Scopes = []string{}
	}
	return nil
}

func (c *Client) checkSession(session string) error {
	if session == "" {
		return uat.Invalid("session", "must not be empty")
	}
	if c.cfg.ControlPlaneUATConfigsURL == "" {
		return uat.Invalid("controlPlaneUatConfigsUrl", "not configured")
	}
	return nil
}

// ListConfigurations returns the configurations visible to the session, each
// with its ID normalized.
func (c *Client) ListConfigurations(ctx context.Context, session string) ([]uat.Configuration, error) {
	list, _, err := c.List(ctx, session)
	return list, err
}

// List is ListConfigurations that also returns the recorded exchange.
func (c *Client) List(ctx context.Context, session string) ([]uat.Configuration, *uat.Exchange, error) {
	if err := c.checkSession(session); err != nil {
		return nil, nil, err
	}
	ex, err := c.transport.Do(ctx, transport.Request{
		Method:  http.MethodGet,
		URL:     c.cfg.ControlPlaneUATConfigsURL,
		Headers: map[string]string{transport.SessionHeader: session},
	})
	if err != nil {
		return nil, ex, err
	}
	if !transport.OK(ex) {
		return nil, ex, fmt.Errorf("uat/controlplane: list configurations: %w", &uat.RegistrationFailed{HTTPFailure: transport.Failure(ex)})
	}

	configs, err := decodeConfigurations(ex.ResponseBody)
	if err != nil {
		return nil, ex, fmt.Errorf("uat/controlplane: %w", err)
	}
	c.metrics.SetConfigurations(len(configs))
	c.audit.LogContext(ctx, audit.Event{
		Action:     audit.ActionConfigList,
		Result:     audit.ResultSuccess,
		TenantID:   c.cfg.TenantID,
		StatusCode: ex.StatusCode,
		Details:    fmt.Sprintf("total=%d", len(configs)),
	})
	return configs, ex, nil
}

// rawConfiguration accepts either a flat or a nested configuration ID.
type rawConfiguration struct {
	uat.Configuration
	ConfigID string          `json:"configId"`
	RawID    json.RawMessage `json:"id"`
}

func (r *rawConfiguration) id() string {
	if len(r.RawID) > 0 {
		var nested struct {
			ConfigID string `json:"configId"`
		}
		if err := json.Unmarshal(r.RawID, &nested); err == nil && nested.ConfigID != "" {
			return nested.ConfigID
		}
	}
	if r.ConfigID != "" {
		return r.ConfigID
	}
	var flat string
	if err := json.Unmarshal(r.RawID, &flat); err == nil {
		return flat
	}
	return ""
}

func decodeConfigurations(body []byte) ([]uat.Configuration, error) {
	var raws []rawConfiguration
	if err := json.Unmarshal(body, &raws); err != nil {
		var wrapped struct {
			Configurations []rawConfiguration `json:"configurations"`
		}
		if err2 := json.Unmarshal(body, &wrapped); err2 != nil {
			return nil, fmt.Errorf("decode configurations: %w", err)
		}
		raws = wrapped.Configurations
	}

	out := make([]uat.Configuration, 0, len(raws))
	for i := range raws {
		cfg := raws[i].Configuration
		cfg.ID = raws[i].id()
		out = append(out, cfg)
	}
	return out, nil
}

// RevokeConfiguration deletes the configuration with the given ID. 200 and
// 204 are success; any other status is a *uat.RegistrationFailed.
func (c *Client) RevokeConfiguration(ctx context.Context, session, configID string) error {
	_, err := c.Revoke(ctx, session, configID)
	return err
}

// Revoke is RevokeConfiguration that also returns the recorded exchange.
func (c *Client) Revoke(ctx context.Context, session, configID string) (*uat.Exchange, error) {
	if err := c.checkSession(session); err != nil {
		return nil, err
	}
	if configID == "" {
		return nil, uat.Invalid("configId", "must not be empty")
	}

	ex, err := c.transport.Do(ctx, transport.Request{
		Method:  http.MethodDelete,
		URL:     strings.TrimRight(c.cfg.ControlPlaneUATConfigsURL, "/") + "/" + configID,
		Headers: map[string]string{transport.SessionHeader: session},
	})
	ev := audit.Event{
		Action:   audit.ActionConfigRevoke,
		Result:   audit.ResultSuccess,
		TenantID: c.cfg.TenantID,
		Resource: configID,
	}
	if ex != nil {
		ev.StatusCode = ex.StatusCode
	}
	if err == nil && ex.StatusCode != http.StatusOK && ex.StatusCode != http.StatusNoContent {
		err = &uat.RegistrationFailed{Name: configID, HTTPFailure: transport.Failure(ex)}
	}
	if err != nil {
		ev.Result = audit.ResultFailure
		ev.Error = err.Error()
		c.audit.LogContext(ctx, ev)
		return ex, err
	}
	c.audit.LogContext(ctx, ev)
	c.logger.Info("uat configuration revoked", "configId", configID)
	return ex, nil
}
