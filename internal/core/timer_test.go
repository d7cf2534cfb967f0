package core

import (
	"testing"
	"time"
)

func TestFixedStepDue(t *testing.T) {
	clock := time.Unix(0, 0)
	fs := NewFixedStep(10)
	fs.now = func() time.Time { return clock }

	if got := fs.Due(5); got != 1 {
		t.Fatalf("expected initial step to be due, got %d", got)
	}
	clock = clock.Add(250 * time.Millisecond)
	if got := fs.Due(5); got != 2 {
		t.Fatalf("expected 2 steps after 250ms at 10/s, got %d", got)
	}
	clock = clock.Add(10 * time.Second)
	if got := fs.Due(5); got != 5 {
		t.Fatalf("expected burst to cap at 5, got %d", got)
	}
	if got := fs.Due(5); got != 0 {
		t.Fatalf("expected accumulator reset after cap, got %d", got)
	}
}
