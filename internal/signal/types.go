package signal

import (
	"sort"

	"etf-arb-bot/internal/stats"
	"etf-arb-bot/internal/venue"
)

// Composite is a tradable symbol redeemable for a fixed basket of
// underlyings at a fixed per-conversion cost. Loaded once at startup,
// immutable for the process lifetime.
type Composite struct {
	Symbol   string
	Basket   map[string]int64
	SwapCost int64
}

// BasketSymbols returns the basket legs in a stable order.
func (c Composite) BasketSymbols() []string {
	symbols := make([]string, 0, len(c.Basket))
	for sym := range c.Basket {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

func (c Composite) BasketUnits() int64 {
	var total int64
	for _, qty := range c.Basket {
		total += qty
	}
	return total
}

// BookView is the read side of the market-state cache.
type BookView interface {
	BestBid(symbol string) (int64, bool)
	BestAsk(symbol string) (int64, bool)
	HasBidAt(symbol string, price int64) bool
	HasAskAt(symbol string, price int64) bool
}

// StatsView exposes the rolling pair statistics.
type StatsView interface {
	ZScore(pair stats.Pair) (float64, error)
}

// OwnOrderView lets the quoting strategy see its own resting orders.
type OwnOrderView interface {
	HasWorkingAt(symbol string, side venue.Side, price int64) bool
}

// OrderIntent is one leg a signal wants executed.
type OrderIntent struct {
	Symbol string
	Side   venue.Side
	Qty    int64
	Price  int64
	Market bool
}
