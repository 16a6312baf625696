package signal

import "etf-arb-bot/internal/venue"

// QuoteConfig tunes the passive market-making quotes.
type QuoteConfig struct {
	Edge int64
	Size int64
}

// QuoteIntent is a passive quote for one symbol. HasBid is false when
// the bid side would price at or below zero; the ask side is always
// present.
type QuoteIntent struct {
	Symbol string
	Bid    int64
	HasBid bool
	Ask    int64
	Size   int64
}

// Quotes proposes a bid at fair-edge and an ask at fair+edge for each
// symbol with two-sided liquidity, returning the count of symbols
// suppressed for missing liquidity. When a competitor rests at exactly
// the proposed price and none of our own orders do, the quote improves
// by one tick to take priority; improvement is capped at a single tick
// and never crosses the fair price. A bid that would land at or below
// zero is dropped while the ask still quotes.
func Quotes(view BookView, own OwnOrderView, symbols []string, cfg QuoteConfig) ([]QuoteIntent, int) {
	var out []QuoteIntent
	suppressed := 0
	for _, sym := range symbols {
		bid, okBid := view.BestBid(sym)
		ask, okAsk := view.BestAsk(sym)
		if !okBid || !okAsk {
			suppressed++
			continue
		}
		fair := (bid + ask) / 2
		quoteBid := fair - cfg.Edge
		quoteAsk := fair + cfg.Edge
		if view.HasBidAt(sym, quoteBid) && !own.HasWorkingAt(sym, venue.SideBuy, quoteBid) && quoteBid+1 < fair {
			quoteBid++
		}
		if view.HasAskAt(sym, quoteAsk) && !own.HasWorkingAt(sym, venue.SideSell, quoteAsk) && quoteAsk-1 > fair {
			quoteAsk--
		}
		q := QuoteIntent{Symbol: sym, Ask: quoteAsk, Size: cfg.Size}
		if quoteBid > 0 {
			q.Bid = quoteBid
			q.HasBid = true
		}
		out = append(out, q)
	}
	return out, suppressed
}
