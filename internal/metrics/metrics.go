package metrics

type Counter interface {
	Inc()
}

type Gauge interface {
	Set(v float64)
}

type Metrics struct {
	OrdersPlaced      Counter
	OrdersFilled      Counter
	OrdersRejected    Counter
	OrdersCancelled   Counter
	SwapsPlaced       Counter
	SignalsSuppressed Counter
	PnL               Gauge
}

type noopCounter struct{}

func (noopCounter) Inc() {}

type noopGauge struct{}

func (noopGauge) Set(float64) {}

func NewNoop() *Metrics {
	n := noopCounter{}
	return &Metrics{
		OrdersPlaced:      n,
		OrdersFilled:      n,
		OrdersRejected:    n,
		OrdersCancelled:   n,
		SwapsPlaced:       n,
		SignalsSuppressed: n,
		PnL:               noopGauge{},
	}
}
