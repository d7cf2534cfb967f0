package core

import (
	"slices"
	"testing"
)

func TestFillJitterDeterministic(t *testing.T) {
	a := make([]float64, 64)
	b := make([]float64, 64)
	FillJitter(NewRNG(7), a, 2, 0.1)
	FillJitter(NewRNG(7), b, 2, 0.1)
	if !slices.Equal(a, b) {
		t.Fatal("same seed must produce identical jitter")
	}
	for i, v := range a {
		if v < 1.8 || v > 2.2 {
			t.Fatalf("value %d = %f outside jitter bounds", i, v)
		}
	}

	FillJitter(NewRNG(8), b, 2, 0.1)
	if slices.Equal(a, b) {
		t.Fatal("different seeds should produce different jitter")
	}
}

func TestJitterZeroAmountIsIdentity(t *testing.T) {
	r := NewRNG(1)
	if got := r.Jitter(3.5, 0); got != 3.5 {
		t.Fatalf("expected 3.5, got %f", got)
	}
	if r.Chance(0) {
		t.Fatal("Chance(0) must be false")
	}
}
