package venue

import (
	"context"

	"etf-arb-bot/internal/book"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// SwapDirection names the two composite conversion directions the
// venue supports: creating a composite from its basket, or redeeming
// a composite back into the basket.
type SwapDirection string

const (
	SwapToComposite   SwapDirection = "to"
	SwapFromComposite SwapDirection = "from"
)

// SwapName builds the venue swap identifier, e.g. "toJAK" / "fromSCP".
func SwapName(dir SwapDirection, composite string) string {
	return string(dir) + composite
}

// OrderRequest describes one order to place. Market is mutually
// exclusive with Price.
type OrderRequest struct {
	Symbol string
	Side   Side
	Qty    int64
	Price  int64
	Market bool
}

// Client is the outbound half of the venue session. Placement returns
// the venue-assigned order id; venue-level rejections arrive later via
// the Handler reject callback, not as a synchronous error.
type Client interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (string, error)
	CancelOrder(ctx context.Context, orderID string) error
	PlaceSwap(ctx context.Context, name string, multiplier int64) error
	OpenOrders(ctx context.Context) ([]string, error)
}

// Handler receives inbound venue events, delivered in arrival order,
// one at a time.
type Handler interface {
	OnBookUpdate(symbol string, bids, asks []book.Level)
	OnOrderFilled(orderID string, qty, price int64)
	OnOrderRejected(orderID, reason string)
	OnOrderCancelled(orderID string)
	OnTradeMessage(symbol string, price, qty int64)
}
