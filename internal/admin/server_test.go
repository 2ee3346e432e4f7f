package admin

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"feed-listener/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_HealthAndReady(t *testing.T) {
	var running atomic.Bool
	running.Store(true)
	router := NewRouter(running.Load, prometheus.NewRegistry())

	rec := get(t, router, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = get(t, router, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running")

	running.Store(false)
	rec = get(t, router, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "terminated")
}

func TestRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := config.NewMetrics()
	m.Register(reg)
	m.PongsSent.Inc()

	rec := get(t, NewRouter(func() bool { return true }, reg), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "listener_pongs_sent_total 1")
}
