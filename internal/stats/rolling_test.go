package stats

import (
	"errors"
	"math"
	"testing"
)

func TestWindowBoundIsFIFO(t *testing.T) {
	r := NewRolling(3)
	pair := Pair{A: "IGM", B: "EPT"}
	for _, v := range []float64{1, 2, 3, 4} {
		r.Observe(pair, v)
	}
	if got := r.Len(pair); got != 3 {
		t.Fatalf("expected window length 3, got %d", got)
	}
	mean, _, err := r.MeanStdDev(pair)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Oldest sample (1) evicted: window is [2 3 4].
	if math.Abs(mean-3) > 1e-12 {
		t.Fatalf("expected mean 3, got %f", mean)
	}
}

func TestNotReadyBelowWindow(t *testing.T) {
	r := NewRolling(3)
	pair := Pair{A: "BRV", B: "MKU"}
	r.Observe(pair, 1.5)
	r.Observe(pair, 1.6)
	if _, _, err := r.MeanStdDev(pair); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if _, err := r.ZScore(pair); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestFlatWindowYieldsNoZScore(t *testing.T) {
	r := NewRolling(3)
	pair := Pair{A: "MKU", B: "DLO"}
	for i := 0; i < 4; i++ {
		r.Observe(pair, 1.0)
	}
	if _, err := r.ZScore(pair); !errors.Is(err, ErrFlatWindow) {
		t.Fatalf("expected ErrFlatWindow, got %v", err)
	}
}

func TestZScoreValue(t *testing.T) {
	r := NewRolling(4)
	pair := Pair{A: "BRV", B: "DLO"}
	for _, v := range []float64{2, 4, 4, 6} {
		r.Observe(pair, v)
	}
	mean, stddev, err := r.MeanStdDev(pair)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(mean-4) > 1e-12 {
		t.Fatalf("expected mean 4, got %f", mean)
	}
	if math.Abs(stddev-math.Sqrt2) > 1e-12 {
		t.Fatalf("expected stddev sqrt(2), got %f", stddev)
	}
	z, err := r.ZScore(pair)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(z-math.Sqrt2) > 1e-12 {
		t.Fatalf("expected z sqrt(2), got %f", z)
	}
}
