package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"misttrack-mcp-server/internal/infrastructure/config"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreSafe(t *testing.T) {
	m := NewMetrics(&config.MetricsConfig{Enabled: false})
	require.Nil(t, m)

	assert.NotPanics(t, func() {
		m.ObserveAPIRequest("/v1/status", "ok", time.Second)
		m.ObserveAPIRetry("/v1/status")
		m.ObserveCacheLookup(true)
		m.ObserveAnalysis("ok", 3, time.Second)
		m.ObserveToolCall("detect_address_chain", "ok")
	})
}

func TestCollectorsAreExposed(t *testing.T) {
	m := NewMetrics(&config.MetricsConfig{Enabled: true, Namespace: "test"})
	require.NotNil(t, m)

	m.ObserveCacheLookup(true)
	m.ObserveCacheLookup(false)
	m.ObserveCacheLookup(true)
	m.ObserveToolCall("get_risk_score", "error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("get_risk_score", "error")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "test_cache_lookups_total")
}

func TestMetricsInstancesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(&config.MetricsConfig{Enabled: true, Namespace: "dup"})
		NewMetrics(&config.MetricsConfig{Enabled: true, Namespace: "dup"})
	})
}
