package state

import "context"

type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// OrderEvent is one row of the append-only order audit trail.
type OrderEvent struct {
	OrderID string
	Symbol  string
	Side    string
	Qty     int64
	Price   int64
	Event   string // placed | filled | rejected | cancelled
	Reason  string
	TimeMS  int64
}

// OrderJournal records order lifecycle events durably. Journal
// failures are reported to the caller but must never stop trading.
type OrderJournal interface {
	AppendOrderEvent(ctx context.Context, ev OrderEvent) error
}
