package config

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	EventsReceived *prometheus.CounterVec
	EventsFiltered *prometheus.CounterVec
	EventsPrinted  *prometheus.CounterVec
	PongsSent      prometheus.Counter
	DecodeErrors   prometheus.Counter
	ListenerState  prometheus.Gauge
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// NewMetrics builds an unregistered set of listener collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		EventsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listener_events_received_total",
				Help: "Count of decoded feed events",
			},
			[]string{"type"},
		),
		EventsFiltered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listener_events_filtered_total",
				Help: "Count of events suppressed from output",
			},
			[]string{"type"},
		),
		EventsPrinted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "listener_events_printed_total",
				Help: "Count of events written to the output stream",
			},
			[]string{"type"},
		),
		PongsSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "listener_pongs_sent_total",
				Help: "Count of PONG replies written to the feed",
			},
		),
		DecodeErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "listener_decode_errors_total",
				Help: "Count of payloads that were not JSON objects",
			},
		),
		ListenerState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "listener_running",
				Help: "1 while the listener loop is running, 0 once terminated",
			},
		),
	}
}

// Register adds the collectors to reg.
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		m.EventsReceived,
		m.EventsFiltered,
		m.EventsPrinted,
		m.PongsSent,
		m.DecodeErrors,
		m.ListenerState,
	)
}

// GetMetrics returns a singleton instance of Metrics registered with the
// default prometheus registry.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = NewMetrics()
		metricsInstance.Register(prometheus.DefaultRegisterer)
	})
	return metricsInstance
}

// MetricsHandler returns the Prometheus metrics handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
