// Package transport performs the JSON request/response round-trips used by the
// control-plane and content-API clients. Every call returns a uat.Exchange that
// records the exact outbound payload and the raw response, so failures can be
// reproduced by hand.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	uat "github.com/chimerakang/uat-go"
)

// SessionHeader carries a Cloud Manager session token.
const SessionHeader = "x-tableau-session-token"

// maxBody caps how much of a response body is read. Larger bodies are a
// transport error.
const maxBody = 4 << 20

// Client wraps an *http.Client with a default timeout.
type Client struct {
	http   *http.Client
	logger *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Client) { t.http = c }
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Client) { t.logger = l }
}

// New creates a Client whose requests time out after timeout.
// A zero timeout means uat.DefaultHTTPTimeout.
func New(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = uat.DefaultHTTPTimeout
	}
	c := &Client{
		http:   &http.Client{Timeout: timeout},
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Request describes one JSON call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any // marshaled as JSON when non-nil
}

// Do sends req and returns the recorded exchange. A non-nil error is always a
// *uat.TransportError; HTTP status handling is left to the caller.
func (c *Client) Do(ctx context.Context, req Request) (*uat.Exchange, error) {
	ex := &uat.Exchange{
		Method:  req.Method,
		URL:     req.URL,
		Headers: map[string]string{"Accept": "application/json"},
	}
	for k, v := range req.Headers {
		ex.Headers[k] = v
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return ex, &uat.TransportError{Method: req.Method, URL: req.URL, Err: fmt.Errorf("encode body: %w", err)}
		}
		ex.RequestBody = data
		ex.Headers["Content-Type"] = "application/json"
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return ex, &uat.TransportError{Method: req.Method, URL: req.URL, Err: err}
	}
	for k, v := range ex.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("request failed", "method", req.Method, "url", req.URL, "error", err)
		return ex, &uat.TransportError{Method: req.Method, URL: req.URL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	ex.StatusCode = resp.StatusCode
	ex.ResponseBody, err = io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return ex, &uat.TransportError{Method: req.Method, URL: req.URL, Err: fmt.Errorf("read response: %w", err)}
	}
	if len(ex.ResponseBody) > maxBody {
		ex.ResponseBody = ex.ResponseBody[:maxBody]
		return ex, &uat.TransportError{Method: req.Method, URL: req.URL, Err: fmt.Errorf("response exceeds %d MiB", maxBody>>20)}
	}

	c.logger.Debug("request completed",
		"method", req.Method, "url", req.URL,
		"status", resp.StatusCode, "duration", time.Since(start))
	return ex, nil
}

// OK reports whether the exchange has a 2xx status.
func OK(ex *uat.Exchange) bool {
	return ex != nil && ex.StatusCode >= 200 && ex.StatusCode < 300
}

// Failure builds the diagnostic payload for a non-2xx exchange.
func Failure(ex *uat.Exchange) uat.HTTPFailure {
	return uat.HTTPFailure{
		StatusCode: ex.StatusCode,
		Body:       string(ex.ResponseBody),
		Exchange:   ex,
	}
}

// Decode unmarshals the response body of ex into v.
func Decode(ex *uat.Exchange, v any) error {
	if err := json.Unmarshal(ex.ResponseBody, v); err != nil {
		return fmt.Errorf("decode %s response: %w", ex.URL, err)
	}
	return nil
}

// secretHeaders are truncated when rendering curl commands.
var secretHeaders = map[string]bool{
	strings.ToLower(SessionHeader): true,
	"authorization":                true,
	"x-tableau-auth":               true,
}

// Curl renders ex as a curl command. Secret header values are truncated to
// their first 20 characters; the JSON body is included verbatim.
func Curl(ex *uat.Exchange) string {
	if ex == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "curl --location")
	if ex.Method != "" && ex.Method != http.MethodGet {
		fmt.Fprintf(&b, " --request %s", ex.Method)
	}
	fmt.Fprintf(&b, " '%s'", ex.URL)

	names := make([]string, 0, len(ex.Headers))
	for k := range ex.Headers {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		v := ex.Headers[k]
		if secretHeaders[strings.ToLower(k)] && len(v) > 20 {
			v = v[:20] + "..."
		}
		fmt.Fprintf(&b, " \\\n--header '%s: %s'", k, v)
	}
	if len(ex.RequestBody) > 0 {
		fmt.Fprintf(&b, " \\\n--data '%s'", strings.ReplaceAll(string(ex.RequestBody), "'", `'\''`))
	}
	return b.String()
}
