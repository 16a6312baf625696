package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "etf_arb_bot"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

type promGauge struct {
	gauge prometheus.Gauge
}

func (p promGauge) Set(v float64) {
	p.gauge.Set(v)
}

type Prometheus struct {
	Metrics *Metrics

	registry          *prometheus.Registry
	ordersPlaced      prometheus.Counter
	ordersFilled      prometheus.Counter
	ordersRejected    prometheus.Counter
	ordersCancelled   prometheus.Counter
	swapsPlaced       prometheus.Counter
	signalsSuppressed prometheus.Counter
	pnl               prometheus.Gauge
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_placed_total",
		Help:      "Total number of orders placed.",
	})
	ordersFilled := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_filled_total",
		Help:      "Total number of order fills received.",
	})
	ordersRejected := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_rejected_total",
		Help:      "Total number of venue order rejections.",
	})
	ordersCancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_cancelled_total",
		Help:      "Total number of confirmed cancellations.",
	})
	swapsPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "swaps_placed_total",
		Help:      "Total number of composite create/redeem swaps placed.",
	})
	signalsSuppressed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "signals_suppressed_total",
		Help:      "Total number of signals suppressed for missing liquidity.",
	})
	pnl := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "mark_to_market_pnl",
		Help:      "Latest mark-to-market PnL in ticks.",
	})

	registry.MustRegister(ordersPlaced, ordersFilled, ordersRejected, ordersCancelled, swapsPlaced, signalsSuppressed, pnl)

	m := &Metrics{
		OrdersPlaced:      promCounter{ordersPlaced},
		OrdersFilled:      promCounter{ordersFilled},
		OrdersRejected:    promCounter{ordersRejected},
		OrdersCancelled:   promCounter{ordersCancelled},
		SwapsPlaced:       promCounter{swapsPlaced},
		SignalsSuppressed: promCounter{signalsSuppressed},
		PnL:               promGauge{pnl},
	}

	return &Prometheus{
		Metrics:           m,
		registry:          registry,
		ordersPlaced:      ordersPlaced,
		ordersFilled:      ordersFilled,
		ordersRejected:    ordersRejected,
		ordersCancelled:   ordersCancelled,
		swapsPlaced:       swapsPlaced,
		signalsSuppressed: signalsSuppressed,
		pnl:               pnl,
	}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
