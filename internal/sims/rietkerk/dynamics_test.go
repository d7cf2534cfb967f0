package rietkerk

import (
	"errors"
	"math"
	"testing"
)

// mustRate unwraps a rate function result, failing the test on error:
// mustRate(t)(PlantChange(...)).
func mustRate(t *testing.T) func(float64, error) float64 {
	return func(v float64, err error) float64 {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return v
	}
}

func TestPlantChangeZero(t *testing.T) {
	got := mustRate(t)(PlantChange(0, 0, 10.0, 3.0, 0.05, 0.1, 0.3))
	if got != 0 {
		t.Fatalf("expected zero change for zero biomass, got %g", got)
	}
}

func TestPlantChangeZeroBiomassForAnyInputs(t *testing.T) {
	for _, sw := range []float64{0, 0.5, 3, 120} {
		for _, uptake := range []float64{0, 1, 10} {
			for _, loss := range []float64{0, 0.3, 5} {
				got := mustRate(t)(PlantChange(0, sw, uptake, 3, 0.05, loss, loss))
				if got != 0 {
					t.Fatalf("Sw=%g uptake=%g loss=%g: expected 0, got %g", sw, uptake, loss, got)
				}
			}
		}
	}
}

func TestPlantDecreases(t *testing.T) {
	change1 := mustRate(t)(PlantChange(90, 0, 10, 3, 0.05, 0.1, 0.3))
	change2 := mustRate(t)(PlantChange(90, 0, 10, 3, 0.05, 0.1, 0.5))
	if !(change1 > change2) {
		t.Fatalf("more grazing should reduce change: %g vs %g", change1, change2)
	}
	change3 := mustRate(t)(PlantChange(90, 0, 10, 3, 0.05, 0.2, 0.5))
	if !(change2 > change3) {
		t.Fatalf("more senescence should reduce change: %g vs %g", change2, change3)
	}
}

func TestPlantIncreasesWithSoilWater(t *testing.T) {
	change1 := mustRate(t)(PlantChange(90, 0, 10, 3, 0.05, 0.1, 0.3))
	change2 := mustRate(t)(PlantChange(90, 3.0, 10, 3, 0.05, 0.1, 0.3))
	if !(change2 > change1) {
		t.Fatalf("more soil water should increase change: %g vs %g", change2, change1)
	}

	prev := change2
	prevGain := math.Inf(1)
	for _, sw := range []float64{6, 12, 24, 48} {
		next := mustRate(t)(PlantChange(90, sw, 10, 3, 0.05, 0.1, 0.3))
		if !(next > prev) {
			t.Fatalf("change must keep increasing with soil water at Sw=%g", sw)
		}
		if gain := next - prev; gain >= prevGain {
			t.Fatalf("growth should saturate: gain %g at Sw=%g not below %g", gain, sw, prevGain)
		} else {
			prevGain = gain
		}
		prev = next
	}
}

func TestSurfaceWaterZero(t *testing.T) {
	got := mustRate(t)(SurfaceWaterChange(0, 90, 0, 0.1, 0.15, 5))
	if got != 0 {
		t.Fatalf("expected zero change without rain or water, got %g", got)
	}
}

func TestSurfaceWaterMoreRain(t *testing.T) {
	change1 := mustRate(t)(SurfaceWaterChange(0, 90, 0, 0.1, 0.15, 5))
	change2 := mustRate(t)(SurfaceWaterChange(0, 90, 1.4, 0.1, 0.15, 5))
	if !(change2 > change1) {
		t.Fatalf("more rain should increase change: %g vs %g", change2, change1)
	}
}

func TestSurfaceWaterMoreAbsorption(t *testing.T) {
	change1 := mustRate(t)(SurfaceWaterChange(3, 90, 1.4, 0.1, 0.15, 5))
	change2 := mustRate(t)(SurfaceWaterChange(3, 90, 1.4, 0.1, 0.2, 5))
	if !(change2 < change1) {
		t.Fatalf("faster infiltration should reduce change: %g vs %g", change2, change1)
	}
}

func TestSoilWaterChangeZero(t *testing.T) {
	got := mustRate(t)(SoilWaterChange(3.0, 0, 0, 0.1, 0.15, 5.0, 0, 0, 3.0))
	if got != 0 {
		t.Fatalf("expected zero change without fluxes, got %g", got)
	}
	for _, sw := range []float64{0, 0.1, 7, 1e6} {
		if got := mustRate(t)(SoilWaterChange(sw, 0, 0, 0.3, 0.2, 5, 0, 0, 3)); got != 0 {
			t.Fatalf("soil water %g decayed on its own: %g", sw, got)
		}
	}
}

func TestInfiltrationMovesWaterBetweenStores(t *testing.T) {
	in := mustRate(t)(Infiltration(3, 20, 0.2, 0.2, 5))
	surface := mustRate(t)(SurfaceWaterChange(3, 20, 0, 0.2, 0.2, 5))
	soil := mustRate(t)(SoilWaterChange(2, 3, 20, 0.2, 0.2, 5, 0, 0, 5))
	if math.Abs(surface+in) > 1e-12 {
		t.Fatalf("surface loss %g should equal infiltration %g", -surface, in)
	}
	if math.Abs(soil-in) > 1e-12 {
		t.Fatalf("soil gain %g should equal infiltration %g", soil, in)
	}

	bare := mustRate(t)(Infiltration(3, 0, 0.2, 0.2, 5))
	if !(in > bare) {
		t.Fatalf("vegetated cells should infiltrate faster than bare soil: %g vs %g", in, bare)
	}
}

func TestRateFunctionsRejectOutOfDomain(t *testing.T) {
	cases := []struct {
		name string
		call func() (float64, error)
		arg  string
	}{
		{"negative biomass", func() (float64, error) { return PlantChange(-1, 0, 10, 3, 0.05, 0.1, 0.3) }, "biomass"},
		{"negative grazing", func() (float64, error) { return PlantChange(1, 0, 10, 3, 0.05, 0.1, -0.3) }, "grazingLoss"},
		{"zero uptake saturation", func() (float64, error) { return PlantChange(1, 0, 10, 0, 0.05, 0.1, 0.3) }, "uptakeSaturation"},
		{"negative surface water", func() (float64, error) { return SurfaceWaterChange(-0.1, 1, 1, 0.1, 0.15, 5) }, "surfaceWater"},
		{"nan rainfall", func() (float64, error) { return SurfaceWaterChange(0, 1, math.NaN(), 0.1, 0.15, 5) }, "rainfall"},
		{"negative infilt saturation", func() (float64, error) { return SurfaceWaterChange(0, 1, 1, 0.1, 0.15, -5) }, "infiltSaturation"},
		{"infinite soil water", func() (float64, error) { return SoilWaterChange(math.Inf(1), 0, 0, 0.1, 0.15, 5, 0, 0, 3) }, "soilWater"},
		{"negative evaporation", func() (float64, error) { return SoilWaterChange(1, 0, 0, 0.1, 0.15, 5, 0, -0.2, 3) }, "soilWaterEvap"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.call()
			var de *DomainError
			if !errors.As(err, &de) {
				t.Fatalf("expected DomainError, got %v", err)
			}
			if de.Arg != tc.arg {
				t.Fatalf("expected argument %s, got %s", tc.arg, de.Arg)
			}
		})
	}
}
