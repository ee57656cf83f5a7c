package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exported at /metrics.
//
// Every method is safe on a nil *Metrics so components can be built without
// instrumentation in tests.
type Metrics struct {
	gatherer prometheus.Gatherer

	// HubConnections is the number of live relay connections.
	// Labels: transport (websocket|sse)
	HubConnections *prometheus.GaugeVec

	// RelayDeliveries counts per-recipient relay outcomes.
	// Labels: result (delivered|skipped)
	RelayDeliveries *prometheus.CounterVec

	// RelayInbound counts inbound relay frames.
	// Labels: result (relayed|dropped)
	RelayInbound *prometheus.CounterVec

	// HTTPRequestDuration measures REST latency in seconds.
	// Labels: method, path, status_code
	HTTPRequestDuration *prometheus.HistogramVec

	// DatabaseQueryDuration measures query service latency in seconds.
	// Labels: operation (query|select|exec|tx), status (success|error)
	DatabaseQueryDuration *prometheus.HistogramVec
}

// New registers all collectors on reg. Pass prometheus.NewRegistry() in tests to
// avoid duplicate registration on the default registry.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		HubConnections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "parkwatch_hub_connections",
				Help: "Number of open relay connections by transport",
			},
			[]string{"transport"},
		),

		RelayDeliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parkwatch_relay_deliveries_total",
				Help: "Relay sends by outcome",
			},
			[]string{"result"},
		),

		RelayInbound: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parkwatch_relay_inbound_total",
				Help: "Inbound relay frames by outcome",
			},
			[]string{"result"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parkwatch_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"method", "path", "status_code"},
		),

		DatabaseQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parkwatch_db_query_duration_seconds",
				Help:    "Duration of database statements in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation", "status"},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ConnectionOpened(transport string) {
	if m == nil {
		return
	}
	m.HubConnections.WithLabelValues(transport).Inc()
}

func (m *Metrics) ConnectionClosed(transport string) {
	if m == nil {
		return
	}
	m.HubConnections.WithLabelValues(transport).Dec()
}

func (m *Metrics) Delivered() {
	if m == nil {
		return
	}
	m.RelayDeliveries.WithLabelValues("delivered").Inc()
}

func (m *Metrics) Skipped() {
	if m == nil {
		return
	}
	m.RelayDeliveries.WithLabelValues("skipped").Inc()
}

func (m *Metrics) InboundRelayed() {
	if m == nil {
		return
	}
	m.RelayInbound.WithLabelValues("relayed").Inc()
}

func (m *Metrics) InboundDropped() {
	if m == nil {
		return
	}
	m.RelayInbound.WithLabelValues("dropped").Inc()
}

func (m *Metrics) ObserveHTTP(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}

func (m *Metrics) ObserveQuery(operation string, err error, seconds float64) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.DatabaseQueryDuration.WithLabelValues(operation, status).Observe(seconds)
}
