package core

import "testing"

func TestResolvePeriodicWraps(t *testing.T) {
	f := NewField(4, 3, BoundaryPeriodic)
	idx, ok := f.Resolve(-1, 3)
	if !ok {
		t.Fatal("periodic boundary must always resolve")
	}
	if want := f.Index(3, 0); idx != want {
		t.Fatalf("expected index %d, got %d", want, idx)
	}
}

func TestResolveReflectingRejectsOutside(t *testing.T) {
	f := NewField(4, 3, BoundaryReflecting)
	if _, ok := f.Resolve(4, 0); ok {
		t.Fatal("x beyond the edge must not resolve")
	}
	if _, ok := f.Resolve(0, -1); ok {
		t.Fatal("y before the edge must not resolve")
	}
	if idx, ok := f.Resolve(3, 2); !ok || idx != 11 {
		t.Fatalf("expected corner index 11, got %d ok=%v", idx, ok)
	}
}

func TestBandsCoverAllRows(t *testing.T) {
	f := NewField(5, 10, BoundaryPeriodic)
	for _, n := range []int{0, 1, 3, 4, 10, 32} {
		bands := f.Bands(n)
		next := 0
		for _, b := range bands {
			if b[0] != next || b[1] <= b[0] {
				t.Fatalf("n=%d: band %v does not continue from %d", n, b, next)
			}
			next = b[1]
		}
		if next != f.H {
			t.Fatalf("n=%d: bands end at %d, expected %d", n, next, f.H)
		}
	}
}

func TestParseBoundary(t *testing.T) {
	for in, want := range map[string]Boundary{"periodic": BoundaryPeriodic, "reflecting": BoundaryReflecting, "": BoundaryPeriodic} {
		got, err := ParseBoundary(in)
		if err != nil || got != want {
			t.Fatalf("ParseBoundary(%q) = %v, %v", in, got, err)
		}
		if in != "" && got.String() != in {
			t.Fatalf("String() round trip failed for %q", in)
		}
	}
	if _, err := ParseBoundary("mobius"); err == nil {
		t.Fatal("expected error for unknown boundary")
	}
}
