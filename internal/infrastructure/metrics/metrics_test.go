package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRelayCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Delivered()
	m.Delivered()
	m.Skipped()
	m.InboundRelayed()
	m.InboundDropped()

	expected := `
		# HELP parkwatch_relay_deliveries_total Relay sends by outcome
		# TYPE parkwatch_relay_deliveries_total counter
		parkwatch_relay_deliveries_total{result="delivered"} 2
		parkwatch_relay_deliveries_total{result="skipped"} 1
	`
	if err := testutil.CollectAndCompare(m.RelayDeliveries, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected deliveries: %v", err)
	}
	if got := testutil.ToFloat64(m.RelayInbound.WithLabelValues("dropped")); got != 1 {
		t.Errorf("expected 1 dropped frame, got %v", got)
	}
}

func TestConnectionGauge(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ConnectionOpened("websocket")
	m.ConnectionOpened("websocket")
	m.ConnectionOpened("sse")
	m.ConnectionClosed("websocket")

	if got := testutil.ToFloat64(m.HubConnections.WithLabelValues("websocket")); got != 1 {
		t.Errorf("expected 1 websocket connection, got %v", got)
	}
	if got := testutil.ToFloat64(m.HubConnections.WithLabelValues("sse")); got != 1 {
		t.Errorf("expected 1 sse connection, got %v", got)
	}
}

func TestObserveQuery(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveQuery("query", nil, 0.002)
	m.ObserveQuery("exec", errors.New("boom"), 0.5)

	if count := testutil.CollectAndCount(m.DatabaseQueryDuration); count != 2 {
		t.Errorf("expected 2 label combinations, got %d", count)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Delivered()
	m.Skipped()
	m.ConnectionOpened("websocket")
	m.ObserveHTTP("GET", "/", "200", 0.1)
	m.ObserveQuery("query", nil, 0.1)
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Delivered()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "parkwatch_relay_deliveries_total") {
		t.Errorf("metrics output missing relay counter:\n%s", rec.Body.String())
	}
}
