package signal

import (
	"testing"

	"etf-arb-bot/internal/venue"
)

type levelBook struct {
	bid, ask int64
	bidLv    map[int64]bool
	askLv    map[int64]bool
}

func (l *levelBook) BestBid(string) (int64, bool)    { return l.bid, true }
func (l *levelBook) BestAsk(string) (int64, bool)    { return l.ask, true }
func (l *levelBook) HasBidAt(_ string, px int64) bool { return l.bidLv[px] }
func (l *levelBook) HasAskAt(_ string, px int64) bool { return l.askLv[px] }

type ownOrders map[venue.Side]map[int64]bool

func (o ownOrders) HasWorkingAt(_ string, side venue.Side, price int64) bool {
	return o[side][price]
}

func TestQuotesAroundFair(t *testing.T) {
	view := &levelBook{bid: 90, ask: 110, bidLv: map[int64]bool{}, askLv: map[int64]bool{}}
	got, _ := Quotes(view, ownOrders{}, []string{"EPT"}, QuoteConfig{Edge: 50, Size: 10})
	if len(got) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(got))
	}
	q := got[0]
	if q.Bid != 50 || q.Ask != 150 || q.Size != 10 {
		t.Fatalf("unexpected quote %+v", q)
	}
}

func TestQuotesPennyCompetitor(t *testing.T) {
	view := &levelBook{bid: 90, ask: 110, bidLv: map[int64]bool{50: true}, askLv: map[int64]bool{150: true}}
	got, _ := Quotes(view, ownOrders{}, []string{"EPT"}, QuoteConfig{Edge: 50, Size: 10})
	if got[0].Bid != 51 || got[0].Ask != 149 {
		t.Fatalf("expected one-tick improvement, got %+v", got[0])
	}
}

func TestQuotesJoinOwnOrder(t *testing.T) {
	view := &levelBook{bid: 90, ask: 110, bidLv: map[int64]bool{50: true}, askLv: map[int64]bool{150: true}}
	own := ownOrders{
		venue.SideBuy:  {50: true},
		venue.SideSell: {150: true},
	}
	got, _ := Quotes(view, own, []string{"EPT"}, QuoteConfig{Edge: 50, Size: 10})
	if got[0].Bid != 50 || got[0].Ask != 150 {
		t.Fatalf("expected to join own resting orders, got %+v", got[0])
	}
}

func TestQuotesNeverCrossFair(t *testing.T) {
	// Edge of one tick: improving would land on fair, so the quote
	// stays put.
	view := &levelBook{bid: 99, ask: 101, bidLv: map[int64]bool{99: true}, askLv: map[int64]bool{101: true}}
	got, _ := Quotes(view, ownOrders{}, []string{"EPT"}, QuoteConfig{Edge: 1, Size: 10})
	if got[0].Bid != 99 || got[0].Ask != 101 {
		t.Fatalf("expected no improvement across fair, got %+v", got[0])
	}
}

type emptyBook struct{}

func (emptyBook) BestBid(string) (int64, bool)     { return 0, false }
func (emptyBook) BestAsk(string) (int64, bool)     { return 0, false }
func (emptyBook) HasBidAt(string, int64) bool      { return false }
func (emptyBook) HasAskAt(string, int64) bool      { return false }

func TestQuotesSkipOneSidedBooks(t *testing.T) {
	got, suppressed := Quotes(emptyBook{}, ownOrders{}, []string{"EPT"}, QuoteConfig{Edge: 50, Size: 10})
	if len(got) != 0 {
		t.Fatalf("expected no quotes without liquidity, got %+v", got)
	}
	if suppressed != 1 {
		t.Fatalf("suppressed = %d, want 1", suppressed)
	}
}

func TestQuotesAskOnlyWhenBidWouldBeNonPositive(t *testing.T) {
	// Fair 2 with a 50 edge prices the bid below zero; the ask side
	// still quotes on its own.
	view := &levelBook{bid: 1, ask: 3, bidLv: map[int64]bool{}, askLv: map[int64]bool{}}
	got, suppressed := Quotes(view, ownOrders{}, []string{"EPT"}, QuoteConfig{Edge: 50, Size: 10})
	if suppressed != 0 {
		t.Fatalf("suppressed = %d, want 0", suppressed)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(got))
	}
	q := got[0]
	if q.HasBid {
		t.Fatalf("expected no bid side, got %+v", q)
	}
	if q.Ask != 52 {
		t.Fatalf("ask = %d, want 52", q.Ask)
	}
}
