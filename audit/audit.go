// Package audit provides structured audit logging for UAT operations.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Actions recorded by the SDK.
const (
	ActionKeyGenerate    = "key_generate"
	ActionTokenIssue     = "token_issue"
	ActionLogin          = "login"
	ActionConfigRegister = "config_register"
	ActionConfigList     = "config_list"
	ActionConfigRevoke   = "config_revoke"
)

// Results recorded by the SDK.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
	ResultAdvice  = "advisory"
)

// Event represents a UAT audit event. Token values are never recorded.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
	Action     string    `json:"action"`
	Result     string    `json:"result"`
	Issuer     string    `json:"issuer,omitempty"`
	TenantID   string    `json:"tenant_id,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	Site       string    `json:"site,omitempty"`
	Resource   string    `json:"resource,omitempty"` // configuration name or ID
	Scopes     []string  `json:"scopes,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	Details    string    `json:"details,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Handler processes audit events. Implementations should not block.
type Handler func(event Event)

// Logger emits audit events to configured handlers.
type Logger struct {
	handlers []Handler
	queue    chan Event
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// Option configures Logger behavior.
type Option func(*Logger)

// WithStdoutHandler adds a handler that writes JSON events to stdout.
func WithStdoutHandler() Option {
	return WithWriterHandler(os.Stdout)
}

// WithWriterHandler adds a handler that writes one JSON event per line to w.
func WithWriterHandler(w io.Writer) Option {
	return func(l *Logger) {
		l.AddHandler(func(e Event) {
			data, _ := json.Marshal(e)
			fmt.Fprintf(w, "%s\n", data)
		})
	}
}

// WithSlogHandler adds a handler that logs events at Info level.
func WithSlogHandler(logger *slog.Logger) Option {
	return func(l *Logger) {
		l.AddHandler(func(e Event) {
			logger.Info("audit",
				"action", e.Action,
				"result", e.Result,
				"tenant_id", e.TenantID,
				"subject", e.Subject,
				"resource", e.Resource,
				"status_code", e.StatusCode,
				"error", e.Error,
			)
		})
	}
}

// WithHandler adds a custom event handler.
func WithHandler(h Handler) Option {
	return func(l *Logger) {
		l.AddHandler(h)
	}
}

// New creates a new audit logger with buffered async emission.
// bufferSize: event queue buffer size (default: 1000).
func New(bufferSize int, opts ...Option) *Logger {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	logger := &Logger{
		handlers: make([]Handler, 0),
		queue:    make(chan Event, bufferSize),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(logger)
	}

	logger.wg.Add(1)
	go logger.process()

	return logger
}

// AddHandler adds a handler to receive audit events. Call it before logging.
func (l *Logger) AddHandler(h Handler) {
	l.handlers = append(l.handlers, h)
}

// Log emits an audit event asynchronously. A nil Logger discards the event.
func (l *Logger) Log(event Event) {
	if l == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case <-l.done:
		// Logger is shutting down, event is dropped
		return
	default:
	}

	select {
	case l.queue <- event:
	case <-l.done:
	}
}

// LogContext is Log with the request ID taken from ctx.
func (l *Logger) LogContext(ctx context.Context, event Event) {
	if event.RequestID == "" {
		event.RequestID = RequestID(ctx)
	}
	l.Log(event)
}

func (l *Logger) process() {
	defer l.wg.Done()

	for {
		select {
		case event := <-l.queue:
			l.emit(event)
		case <-l.done:
			for {
				select {
				case event := <-l.queue:
					l.emit(event)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) emit(event Event) {
	for _, h := range l.handlers {
		h(event)
	}
}

// Close flushes pending events and stops the logger. It is safe to call twice.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.once.Do(func() { close(l.done) })
	l.wg.Wait()
	return nil
}

// FromContext retrieves the audit logger from context.
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKeyLogger).(*Logger)
	if !ok {
		return nil
	}
	return logger
}

// WithContext stores the audit logger in context.
func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// RequestID retrieves the request ID from context.
func RequestID(ctx context.Context) string {
	id, ok := ctx.Value(contextKeyRequestID).(string)
	if !ok {
		return ""
	}
	return id
}

// WithRequestID stores the request ID in context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}

type contextKey string

const (
	contextKeyLogger    contextKey = "audit.logger"
	contextKeyRequestID contextKey = "audit.request_id"
)
