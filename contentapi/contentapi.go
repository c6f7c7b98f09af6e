// Package contentapi signs in to a Tableau site's REST API with a UAT token.
package contentapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	uat "github.com/chimerakang/uat-go"
	"github.com/chimerakang/uat-go/audit"
	"github.com/chimerakang/uat-go/metrics"
	"github.com/chimerakang/uat-go/transport"
)

// APIVersion is the REST API version used for sign-in.
const APIVersion = "3.27"

const leg = "content_api"

// Client signs in to the content API of one pod.
type Client struct {
	podURL     string
	transport  *transport.Client
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
	audit      *audit.Logger
	now        func() time.Time
}

// compile-time check
var _ uat.ContentAPI = (*Client)(nil)

// Option configures the Client.
type Option func(*Client)

// WithTransport sets the transport used for sign-in.
func WithTransport(t *transport.Client) Option {
	return func(c *Client) { c.transport = t }
}

// WithHTTPClient sets a custom HTTP client. Ignored when WithTransport is given.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithAuditLogger emits an audit event per sign-in.
func WithAuditLogger(a *audit.Logger) Option {
	return func(c *Client) { c.audit = a }
}

// New creates a content API client for cfg.ContentAPIPodURL.
func New(cfg uat.Config, opts ...Option) *Client {
	cfg = cfg.WithDefaults()
	c := &Client{
		podURL: strings.TrimRight(cfg.ContentAPIPodURL, "/"),
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
	return c
}

// SignInURL returns the sign-in endpoint.
func (c *Client) SignInURL() string {
	return fmt.Sprintf("%s/api/%s/auth/signin", c.podURL, APIVersion)
}

type siteRef struct {
	ID         string `json:"id,omitempty"`
	ContentURL string `json:"contentUrl"`
}

type signInRequest struct {
	Credentials struct {
		JWT   string  `json:"jwt"`
		IsUAT bool    `json:"isUat"`
		Site  siteRef `json:"site"`
	} `json:"credentials"`
}

type signInResponse struct {
	Credentials struct {
		Token string  `json:"token"`
		Site  siteRef `json:"site"`
	} `json:"credentials"`
}

// SignIn exchanges token for a session on site (Leg B). Non-2xx responses
// return a *uat.AuthenticationError carrying status, body and request.
func (c *Client) SignIn(ctx context.Context, token, site string) (*uat.Session, error) {
	s, _, err := c.signIn(ctx, token, site)
	return s, err
}

// Login runs Leg B and reports its outcome. An empty site skips the leg.
func (c *Client) Login(ctx context.Context, token, site string) uat.LegResult {
	if site == "" {
		c.metrics.RecordLogin(leg, metrics.ResultSkipped)
		c.audit.LogContext(ctx, audit.Event{Action: audit.ActionLogin, Result: audit.ResultSkipped, Resource: leg})
		return uat.LegResult{Status: uat.StatusSkipped}
	}
	s, ex, err := c.signIn(ctx, token, site)
	if err != nil {
		return uat.LegResult{Status: uat.StatusFailed, Err: err, Exchange: ex}
	}
	return uat.LegResult{Status: uat.StatusSuccess, Session: s, Exchange: ex}
}

func (c *Client) signIn(ctx context.Context, token, site string) (*uat.Session, *uat.Exchange, error) {
	if c.podURL == "" {
		return nil, nil, uat.Invalid("contentApiPodUrl", "not configured")
	}
	if token == "" {
		return nil, nil, uat.Invalid("token", "must not be empty")
	}

	var body signInRequest
	body.Credentials.JWT = token
	body.Credentials.IsUAT = true
	body.Credentials.Site.ContentURL = site

	start := c.now()
	ex, err := c.transport.Do(ctx, transport.Request{
		Method: http.MethodPost,
		URL:    c.SignInURL(),
		Body:   body,
	})
	c.metrics.ObserveRequest(leg, time.Since(start).Seconds())
	if err == nil && !transport.OK(ex) {
		err = &uat.AuthenticationError{HTTPFailure: transport.Failure(ex)}
	}

	var resp signInResponse
	if err == nil {
		if derr := transport.Decode(ex, &resp); derr != nil {
			err = fmt.Errorf("uat/contentapi: %w: %w", uat.ErrAuthentication, derr)
		} else if resp.Credentials.Token == "" {
			err = fmt.Errorf("uat/contentapi: %w: response has no credentials token", uat.ErrAuthentication)
		}
	}

	ev := audit.Event{Action: audit.ActionLogin, Result: audit.ResultSuccess, Resource: leg, Site: site}
	if ex != nil {
		ev.StatusCode = ex.StatusCode
	}
	if err != nil {
		c.metrics.RecordLogin(leg, metrics.ResultFailure)
		ev.Result = audit.ResultFailure
		ev.Error = err.Error()
		c.audit.LogContext(ctx, ev)
		c.logger.Warn("content api sign-in failed", "site", site, "error", err)
		return nil, ex, err
	}

	c.metrics.RecordLogin(leg, metrics.ResultSuccess)
	c.audit.LogContext(ctx, ev)
	c.logger.Info("content api sign-in succeeded", "site", site)
	return &uat.Session{
		Token:      resp.Credentials.Token,
		Via:        uat.SourceContentAPI,
		Site:       site,
		AcquiredAt: c.now(),
	}, ex, nil
}
