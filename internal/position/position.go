package position

import (
	"sync"

	"etf-arb-bot/internal/signal"
	"etf-arb-bot/internal/venue"
)

// Book tracks net inventory per symbol and realized cash flow. Fills
// and swap executions are the only mutations; valuation is derived.
type Book struct {
	mu        sync.RWMutex
	cash      int64
	inventory map[string]int64
}

func NewBook() *Book {
	return &Book{inventory: make(map[string]int64)}
}

// OnFill applies a trade against our own order. Buys add inventory and
// pay cash, sells do the reverse.
func (b *Book) OnFill(symbol string, side venue.Side, qty, price int64) {
	if qty <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch side {
	case venue.SideBuy:
		b.inventory[symbol] += qty
		b.cash -= qty * price
	case venue.SideSell:
		b.inventory[symbol] -= qty
		b.cash += qty * price
	}
}

// OnSwap applies a create/redeem against the composite issuer. A
// create burns basket units and mints composite units; a redeem does
// the inverse. Both legs move under one lock so no reader observes a
// half-applied swap.
func (b *Book) OnSwap(composite signal.Composite, dir venue.SwapDirection, multiplier int64) {
	if multiplier <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	sign := int64(1)
	if dir == venue.SwapFromComposite {
		sign = -1
	}
	b.inventory[composite.Symbol] += sign * multiplier
	for symbol, units := range composite.Basket {
		b.inventory[symbol] -= sign * units * multiplier
	}
}

func (b *Book) Position(symbol string) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.inventory[symbol]
}

func (b *Book) Cash() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cash
}

// MarkToMarket values the book as cash plus inventory at mid. Symbols
// without a two-sided market are carried at zero rather than a stale
// or invented price.
func (b *Book) MarkToMarket(mid func(symbol string) (int64, bool)) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	total := b.cash
	for symbol, qty := range b.inventory {
		if qty == 0 {
			continue
		}
		px, ok := mid(symbol)
		if !ok {
			continue
		}
		total += qty * px
	}
	return total
}

// Snapshot returns a copy of the inventory map.
func (b *Book) Snapshot() map[string]int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]int64, len(b.inventory))
	for symbol, qty := range b.inventory {
		if qty != 0 {
			out[symbol] = qty
		}
	}
	return out
}
