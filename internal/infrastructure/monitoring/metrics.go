package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Relay metrics
	RelayFetches  *prometheus.CounterVec
	RelayDuration *prometheus.HistogramVec
	RelayBodySize prometheus.Histogram

	// Hub metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec
	ChatMessages  prometheus.Counter
	HistoryLength prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "desktop_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "desktop_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Relay metrics
		RelayFetches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_relay_fetches_total",
				Help: "Total number of relay fetches by outcome",
			},
			[]string{"outcome"},
		),
		RelayDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "desktop_relay_fetch_duration_seconds",
				Help:    "Relay fetch duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
		RelayBodySize: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "desktop_relay_body_size_bytes",
				Help:    "Relayed response body size in bytes",
				Buckets: []float64{1000, 10000, 100000, 1000000, 10000000},
			},
		),

		// Hub metrics
		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "desktop_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
		ChatMessages: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "desktop_chat_messages_total",
				Help: "Total number of accepted chat messages",
			},
		),
		HistoryLength: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "desktop_chat_history_length",
				Help: "Current chat history buffer length",
			},
		),

		// System metrics
		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "desktop_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// RecordRelayFetch records a relay fetch by outcome ("ok", "timeout", "unreachable", "invalid")
func (m *Metrics) RecordRelayFetch(outcome string, duration time.Duration, bodySize int) {
	m.RelayFetches.WithLabelValues(outcome).Inc()
	m.RelayDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if bodySize > 0 {
		m.RelayBodySize.Observe(float64(bodySize))
	}
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncChatMessages increments the accepted chat message counter
func (m *Metrics) IncChatMessages() {
	m.ChatMessages.Inc()
}

// SetHistoryLength sets the current history buffer length
func (m *Metrics) SetHistoryLength(n int) {
	m.HistoryLength.Set(float64(n))
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}
