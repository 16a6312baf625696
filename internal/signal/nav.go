package signal

import "etf-arb-bot/internal/venue"

// NAVConfig tunes the composite-versus-basket arbitrage.
type NAVConfig struct {
	// Margin is the safety buffer added to the swap cost; a spread
	// exactly equal to the cost must not fire.
	Margin int64
	// CrossTicks is how far legs cross the touch to fill aggressively.
	CrossTicks int64
	// CompositeQty is the composite-leg order size.
	CompositeQty int64
}

// NAVSignal is one executable composite arbitrage: the aggressive
// legs plus the swap that converts the acquired side back.
type NAVSignal struct {
	Composite string
	Direction venue.SwapDirection
	Spread    float64
	Legs      []OrderIntent
}

// NAVSignals evaluates both directions for every composite. The
// per-unit theoretical price (basket value divided by basket units)
// is compared against the composite quote; a direction is suppressed
// when any required side lacks liquidity, and the suppression count is
// returned so callers can account for it. A single tick may emit zero,
// one, or both directions across the universe.
func NAVSignals(view BookView, composites []Composite, cfg NAVConfig) ([]NAVSignal, int) {
	var out []NAVSignal
	suppressed := 0
	for _, comp := range composites {
		threshold := float64(comp.SwapCost + cfg.Margin)
		units := comp.BasketUnits()
		if units == 0 {
			continue
		}

		// Composite cheap against basket bids: buy composite, sell
		// the underlyings, redeem the composite into the basket.
		nav, okNAV := basketValue(view, comp, view.BestBid)
		ask, okAsk := view.BestAsk(comp.Symbol)
		if okNAV && okAsk {
			theoretical := float64(nav) / float64(units)
			if spread := theoretical - float64(ask); spread > threshold {
				out = append(out, NAVSignal{
					Composite: comp.Symbol,
					Direction: venue.SwapFromComposite,
					Spread:    spread,
					Legs:      redeemLegs(view, comp, cfg),
				})
			}
		} else {
			suppressed++
		}

		// Composite rich against basket asks: sell composite, buy the
		// underlyings, convert the basket into a fresh composite.
		nac, okNAC := basketValue(view, comp, view.BestAsk)
		bid, okBid := view.BestBid(comp.Symbol)
		if okNAC && okBid {
			theoretical := float64(nac) / float64(units)
			if spread := float64(bid) - theoretical; spread > threshold {
				out = append(out, NAVSignal{
					Composite: comp.Symbol,
					Direction: venue.SwapToComposite,
					Spread:    spread,
					Legs:      createLegs(view, comp, cfg),
				})
			}
		} else {
			suppressed++
		}
	}
	return out, suppressed
}

func basketValue(view BookView, comp Composite, price func(string) (int64, bool)) (int64, bool) {
	var total int64
	for _, sym := range comp.BasketSymbols() {
		px, ok := price(sym)
		if !ok {
			return 0, false
		}
		total += px * comp.Basket[sym]
	}
	return total, true
}

func redeemLegs(view BookView, comp Composite, cfg NAVConfig) []OrderIntent {
	legs := make([]OrderIntent, 0, len(comp.Basket)+1)
	for _, sym := range comp.BasketSymbols() {
		bid, _ := view.BestBid(sym)
		legs = append(legs, OrderIntent{Symbol: sym, Side: venue.SideSell, Qty: comp.Basket[sym], Price: bid - cfg.CrossTicks})
	}
	ask, _ := view.BestAsk(comp.Symbol)
	legs = append(legs, OrderIntent{Symbol: comp.Symbol, Side: venue.SideBuy, Qty: cfg.CompositeQty, Price: ask + cfg.CrossTicks})
	return legs
}

func createLegs(view BookView, comp Composite, cfg NAVConfig) []OrderIntent {
	legs := make([]OrderIntent, 0, len(comp.Basket)+1)
	for _, sym := range comp.BasketSymbols() {
		ask, _ := view.BestAsk(sym)
		legs = append(legs, OrderIntent{Symbol: sym, Side: venue.SideBuy, Qty: comp.Basket[sym], Price: ask + cfg.CrossTicks})
	}
	bid, _ := view.BestBid(comp.Symbol)
	legs = append(legs, OrderIntent{Symbol: comp.Symbol, Side: venue.SideSell, Qty: cfg.CompositeQty, Price: bid - cfg.CrossTicks})
	return legs
}
