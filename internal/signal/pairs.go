package signal

import "etf-arb-bot/internal/stats"

// PairSignal is a mean-reversion entry for one correlated pair.
// ShortA means sell leg A and buy leg B; the inverse otherwise.
type PairSignal struct {
	Pair   stats.Pair
	ShortA bool
	Z      float64
}

// PairSignals applies the |z| > threshold entry rule to every tracked
// pair. Pairs whose window is not ready or is flat are skipped for
// this tick.
func PairSignals(view StatsView, pairs []stats.Pair, threshold float64) []PairSignal {
	var out []PairSignal
	for _, pair := range pairs {
		z, err := view.ZScore(pair)
		if err != nil {
			continue
		}
		switch {
		case z > threshold:
			out = append(out, PairSignal{Pair: pair, ShortA: true, Z: z})
		case z < -threshold:
			out = append(out, PairSignal{Pair: pair, ShortA: false, Z: z})
		}
	}
	return out
}
