// Package metrics provides Prometheus metrics for UAT operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultConflict = "conflict"
	ResultSkipped  = "skipped"
)

// Metrics holds all Prometheus metrics for UAT operations.
// A nil or disabled *Metrics is a no-op.
type Metrics struct {
	enabled bool

	// Issuance metrics
	tokensIssuedTotal  *prometheus.CounterVec
	keysGeneratedTotal prometheus.Counter

	// Protocol metrics
	loginsTotal        *prometheus.CounterVec
	registrationsTotal *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec

	// Session cache metrics
	sessionCacheHits   *prometheus.CounterVec
	sessionCacheMisses *prometheus.CounterVec
	configurations     prometheus.Gauge
}

// New creates metrics registered with the default Prometheus registerer.
// If enabled is false, returns a no-op Metrics instance.
func New(enabled bool) *Metrics {
	if !enabled {
		return &Metrics{}
	}
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates enabled metrics registered with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{enabled: true}

	m.tokensIssuedTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "uat_tokens_issued_total",
		Help: "Total signed tokens, by result",
	}, []string{"result"})

	m.keysGeneratedTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "uat_keys_generated_total",
		Help: "Total signing key pairs generated",
	})

	m.loginsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "uat_logins_total",
		Help: "Total login attempts, by leg and result",
	}, []string{"leg", "result"})

	m.registrationsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "uat_configuration_registrations_total",
		Help: "Total configuration create calls, by result",
	}, []string{"result"})

	m.requestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "uat_request_duration_seconds",
		Help:    "Duration of outbound API calls in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	m.sessionCacheHits = f.NewCounterVec(prometheus.CounterOpts{
		Name: "uat_session_cache_hits_total",
		Help: "Total session cache hits",
	}, []string{"source"})

	m.sessionCacheMisses = f.NewCounterVec(prometheus.CounterOpts{
		Name: "uat_session_cache_misses_total",
		Help: "Total session cache misses",
	}, []string{"source"})

	m.configurations = f.NewGauge(prometheus.GaugeOpts{
		Name: "uat_configurations",
		Help: "Number of UAT configurations seen on the last list call",
	})

	return m
}

func (m *Metrics) on() bool { return m != nil && m.enabled }

// RecordTokenIssued records a signing attempt.
func (m *Metrics) RecordTokenIssued(result string) {
	if !m.on() {
		return
	}
	m.tokensIssuedTotal.WithLabelValues(result).Inc()
}

// RecordKeyGenerated records a new key pair.
func (m *Metrics) RecordKeyGenerated() {
	if !m.on() {
		return
	}
	m.keysGeneratedTotal.Inc()
}

// RecordLogin records a login attempt on leg ("control_plane", "content_api", "pat").
func (m *Metrics) RecordLogin(leg, result string) {
	if !m.on() {
		return
	}
	m.loginsTotal.WithLabelValues(leg, result).Inc()
}

// RecordRegistration records a configuration create outcome.
func (m *Metrics) RecordRegistration(result string) {
	if !m.on() {
		return
	}
	m.registrationsTotal.WithLabelValues(result).Inc()
}

// ObserveRequest records the duration of an outbound call.
func (m *Metrics) ObserveRequest(operation string, durationSeconds float64) {
	if !m.on() {
		return
	}
	m.requestDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordSessionCacheHit records a session served from cache.
func (m *Metrics) RecordSessionCacheHit(source string) {
	if !m.on() {
		return
	}
	m.sessionCacheHits.WithLabelValues(source).Inc()
}

// RecordSessionCacheMiss records a session that required a login.
func (m *Metrics) RecordSessionCacheMiss(source string) {
	if !m.on() {
		return
	}
	m.sessionCacheMisses.WithLabelValues(source).Inc()
}

// SetConfigurations sets the number of configurations last listed.
func (m *Metrics) SetConfigurations(n int) {
	if !m.on() {
		return
	}
	m.configurations.Set(float64(n))
}
