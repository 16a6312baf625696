package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusCounters(t *testing.T) {
	prom := NewPrometheus()
	prom.Metrics.OrdersPlaced.Inc()
	prom.Metrics.OrdersFilled.Inc()
	prom.Metrics.OrdersRejected.Inc()
	prom.Metrics.OrdersCancelled.Inc()
	prom.Metrics.SwapsPlaced.Inc()
	prom.Metrics.SignalsSuppressed.Inc()

	assertCounter(t, prom.ordersPlaced, 1)
	assertCounter(t, prom.ordersFilled, 1)
	assertCounter(t, prom.ordersRejected, 1)
	assertCounter(t, prom.ordersCancelled, 1)
	assertCounter(t, prom.swapsPlaced, 1)
	assertCounter(t, prom.signalsSuppressed, 1)
}

func TestPrometheusPnLGauge(t *testing.T) {
	prom := NewPrometheus()
	prom.Metrics.PnL.Set(-42)
	if got := testutil.ToFloat64(prom.pnl); got != -42 {
		t.Fatalf("expected -42, got %v", got)
	}
}

func assertCounter(t *testing.T, counter prometheus.Counter, expected float64) {
	t.Helper()
	if got := testutil.ToFloat64(counter); got != expected {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}
