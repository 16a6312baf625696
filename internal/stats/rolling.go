package stats

import (
	"errors"
	"math"
	"sync"
)

var (
	// ErrNotReady means the window holds fewer samples than its size.
	ErrNotReady = errors.New("rolling window not ready")
	// ErrFlatWindow means every sample in the window is identical.
	ErrFlatWindow = errors.New("rolling window is flat")
)

// Pair identifies an ordered correlated symbol pair. Ratios are
// sampled as best_bid(A) / best_ask(B).
type Pair struct {
	A string
	B string
}

// Rolling keeps a bounded ratio history per pair. Samples arrive on
// book updates for either leg, so cadence is irregular; statistics are
// computed over exactly the samples in the window.
type Rolling struct {
	mu     sync.RWMutex
	window int
	series map[Pair][]float64
}

func NewRolling(window int) *Rolling {
	if window < 2 {
		window = 2
	}
	return &Rolling{window: window, series: make(map[Pair][]float64)}
}

func (r *Rolling) Window() int {
	return r.window
}

// Observe appends one ratio sample, evicting the oldest once the
// window is full.
func (r *Rolling) Observe(pair Pair, ratio float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := append(r.series[pair], ratio)
	if len(s) > r.window {
		s = s[len(s)-r.window:]
	}
	r.series[pair] = s
}

func (r *Rolling) Len(pair Pair) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.series[pair])
}

// MeanStdDev returns the population mean and standard deviation over
// the current window, or ErrNotReady below the window size.
func (r *Rolling) MeanStdDev(pair Pair) (float64, float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.series[pair]
	if len(s) < r.window {
		return 0, 0, ErrNotReady
	}
	mean, stddev := meanStdDev(s)
	return mean, stddev, nil
}

// ZScore returns how many standard deviations the latest sample sits
// from the window mean. ErrFlatWindow signals "no signal", not a
// failure to propagate.
func (r *Rolling) ZScore(pair Pair) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.series[pair]
	if len(s) < r.window {
		return 0, ErrNotReady
	}
	mean, stddev := meanStdDev(s)
	if stddev == 0 {
		return 0, ErrFlatWindow
	}
	return (s[len(s)-1] - mean) / stddev, nil
}

func meanStdDev(s []float64) (float64, float64) {
	var sum float64
	for _, v := range s {
		sum += v
	}
	mean := sum / float64(len(s))
	var sq float64
	for _, v := range s {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(s)))
}
