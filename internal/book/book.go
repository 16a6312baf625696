package book

import "sync"

// Level is a single price level from a venue book update.
type Level struct {
	Price int64
	Size  int64
}

type side struct {
	best   int64
	has    bool
	levels map[int64]int64
}

// Book caches the top of book per symbol from streaming updates.
// A side with no resting liquidity is tagged absent rather than
// carrying a sentinel price, so it can never satisfy a threshold
// comparison by accident.
type Book struct {
	mu   sync.RWMutex
	bids map[string]side
	asks map[string]side
}

func New() *Book {
	return &Book{
		bids: make(map[string]side),
		asks: make(map[string]side),
	}
}

// ApplyUpdate replaces the symbol's book with the given levels and
// recomputes the best bid (highest price with nonzero size) and best
// ask (lowest price with nonzero size).
func (b *Book) ApplyUpdate(symbol string, bids, asks []Level) {
	bidSide := reduceSide(bids, func(px, best int64) bool { return px > best })
	askSide := reduceSide(asks, func(px, best int64) bool { return px < best })
	b.mu.Lock()
	b.bids[symbol] = bidSide
	b.asks[symbol] = askSide
	b.mu.Unlock()
}

func reduceSide(levels []Level, better func(px, best int64) bool) side {
	s := side{levels: make(map[int64]int64, len(levels))}
	for _, lvl := range levels {
		if lvl.Size == 0 {
			continue
		}
		s.levels[lvl.Price] = lvl.Size
		if !s.has || better(lvl.Price, s.best) {
			s.best = lvl.Price
			s.has = true
		}
	}
	return s
}

// BestBid reports the best bid for the symbol. Unknown symbols and
// one-sided books read as no liquidity.
func (b *Book) BestBid(symbol string) (int64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s := b.bids[symbol]
	return s.best, s.has
}

// BestAsk reports the best ask for the symbol.
func (b *Book) BestAsk(symbol string) (int64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s := b.asks[symbol]
	return s.best, s.has
}

// Mid returns the integer midpoint once both sides have liquidity.
func (b *Book) Mid(symbol string) (int64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bid, ask := b.bids[symbol], b.asks[symbol]
	if !bid.has || !ask.has {
		return 0, false
	}
	return (bid.best + ask.best) / 2, true
}

// HasBidAt reports whether any resting bid occupies the exact price.
func (b *Book) HasBidAt(symbol string, price int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.bids[symbol].levels[price]
	return ok
}

// HasAskAt reports whether any resting ask occupies the exact price.
func (b *Book) HasAskAt(symbol string, price int64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.asks[symbol].levels[price]
	return ok
}
