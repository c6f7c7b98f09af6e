package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsDisabled(t *testing.T) {
	metrics := New(false)

	if metrics == nil {
		t.Fatal("metrics should not be nil (noop)")
	}

	// These should not panic even though they're noop
	metrics.RecordTokenIssued(ResultSuccess)
	metrics.RecordKeyGenerated()
	metrics.RecordLogin("control_plane", ResultFailure)
	metrics.RecordRegistration(ResultConflict)
	metrics.ObserveRequest("jwt_login", 0.01)
	metrics.RecordSessionCacheHit("pat")
	metrics.RecordSessionCacheMiss("pat")
	metrics.SetConfigurations(3)
}

func TestNilMetrics(t *testing.T) {
	var metrics *Metrics
	metrics.RecordTokenIssued(ResultSuccess)
	metrics.RecordLogin("content_api", ResultSkipped)
}

func TestRecordTokenIssued(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())
	m.RecordTokenIssued(ResultSuccess)
	m.RecordTokenIssued(ResultSuccess)
	m.RecordTokenIssued(ResultFailure)

	if got := testutil.ToFloat64(m.tokensIssuedTotal.WithLabelValues(ResultSuccess)); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.tokensIssuedTotal.WithLabelValues(ResultFailure)); got != 1 {
		t.Errorf("failure count = %v, want 1", got)
	}
}

func TestRecordLoginAndRegistration(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())
	m.RecordLogin("control_plane", ResultSuccess)
	m.RecordLogin("content_api", ResultSkipped)
	m.RecordRegistration(ResultConflict)
	m.SetConfigurations(4)

	if got := testutil.ToFloat64(m.loginsTotal.WithLabelValues("content_api", ResultSkipped)); got != 1 {
		t.Errorf("content_api skipped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.registrationsTotal.WithLabelValues(ResultConflict)); got != 1 {
		t.Errorf("conflicts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.configurations); got != 4 {
		t.Errorf("configurations = %v, want 4", got)
	}
}

func TestSeparateRegistries(t *testing.T) {
	// Two instances on separate registries must not collide.
	NewWithRegistry(prometheus.NewRegistry())
	NewWithRegistry(prometheus.NewRegistry())
}
