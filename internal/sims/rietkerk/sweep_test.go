package rietkerk

import (
	"context"
	"errors"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func patternLayer(n int, coveredEvery func(i int) bool) []float64 {
	layer := make([]float64, n)
	for i := range layer {
		if coveredEvery(i) {
			layer[i] = 10
		}
	}
	return layer
}

func TestClassifySyntheticPatterns(t *testing.T) {
	cases := []struct {
		name  string
		layer []float64
		want  Regime
	}{
		{"empty", nil, RegimeBare},
		{"all bare", make([]float64, 100), RegimeBare},
		{"uniform", patternLayer(100, func(int) bool { return true }), RegimeUniform},
		{"spots", patternLayer(100, func(i int) bool { return i%5 == 0 }), RegimeSpots},
		{"labyrinth", patternLayer(100, func(i int) bool { return i%2 == 0 }), RegimeLabyrinth},
		{"gaps", patternLayer(100, func(i int) bool { return i%10 != 0 }), RegimeGaps},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.layer)
			if got.Regime != tc.want {
				t.Fatalf("Classify = %s (coverage %.2f, cv %.2f), want %s", got.Regime, got.Coverage, got.Variation, tc.want)
			}
		})
	}
}

func TestClassifyReportsCoverageAndMean(t *testing.T) {
	got := Classify(patternLayer(10, func(i int) bool { return i < 3 }))
	if got.Coverage != 0.3 {
		t.Fatalf("coverage = %g, want 0.3", got.Coverage)
	}
	if got.MeanBiomass != 3 {
		t.Fatalf("mean = %g, want 3", got.MeanBiomass)
	}
	if got.Variation <= 0 {
		t.Fatalf("expected positive variation, got %g", got.Variation)
	}
}

func sweepConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 24
	cfg.Height = 24
	cfg.Steps = 400
	cfg.SnapshotInterval = 400
	cfg.Initial.Noise = 0
	cfg.Initial.BareFraction = 0
	return cfg
}

func TestRunRegimeExtremes(t *testing.T) {
	dry := sweepConfig()
	dry.Params.Rainfall = 0
	res, err := RunRegime(context.Background(), dry)
	if err != nil {
		t.Fatal(err)
	}
	if res.Regime != RegimeBare {
		t.Fatalf("no rainfall should end bare, got %s (mean %.3f)", res.Regime, res.MeanBiomass)
	}

	wet := sweepConfig()
	wet.Params.Rainfall = 3
	res, err = RunRegime(context.Background(), wet)
	if err != nil {
		t.Fatal(err)
	}
	if res.Regime != RegimeUniform {
		t.Fatalf("a noise-free wet start should stay uniform, got %s (cv %.3f)", res.Regime, res.Variation)
	}
	if res.State != StateCompleted || res.Steps != wet.Steps || res.Rainfall != 3 {
		t.Fatalf("unexpected run metadata %+v", res)
	}
}

func patternConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 64
	cfg.Height = 64
	cfg.SnapshotInterval = cfg.Steps
	return cfg
}

func TestRunRegimeFindsKnownPatterns(t *testing.T) {
	if testing.Short() {
		t.Skip("long pattern formation run")
	}
	cases := []struct {
		name     string
		rainfall float64
		want     Regime
	}{
		{"spots at default rainfall", 1.0, RegimeSpots},
		{"gaps at high rainfall", 1.5, RegimeGaps},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := patternConfig()
			cfg.Params.Rainfall = tc.rainfall
			res, err := RunRegime(context.Background(), cfg)
			if err != nil {
				t.Fatal(err)
			}
			if res.Regime != tc.want {
				t.Fatalf("rainfall %g: got %s (coverage %.2f, cv %.2f), want %s",
					tc.rainfall, res.Regime, res.Coverage, res.Variation, tc.want)
			}
		})
	}
}

func TestDownslopeGradientFormsBands(t *testing.T) {
	if testing.Short() {
		t.Skip("long pattern formation run")
	}
	cfg := patternConfig()
	cfg.Params.Kernel = KernelDownslope
	cfg.Params.Drift = 0.3
	cfg.Params.RainfallGradient = 1
	result, err := Simulate(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	final, ok := result.Final()
	if !ok {
		t.Fatal("expected a final snapshot")
	}

	rowMeans := make([]float64, cfg.Height)
	colMeans := make([]float64, cfg.Width)
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			b := final.Biomass[y*cfg.Width+x]
			rowMeans[y] += b / float64(cfg.Width)
			colMeans[x] += b / float64(cfg.Height)
		}
	}
	rowVar := stat.Variance(rowMeans, nil)
	colVar := stat.Variance(colMeans, nil)
	if !(rowVar > 10*colVar) {
		t.Fatalf("expected bands across the slope: row-mean variance %.2f, column-mean variance %.2f", rowVar, colVar)
	}
}

func TestRainfallSweepKeepsInputOrder(t *testing.T) {
	rainfalls := []float64{3, 0, 3, 0}
	records := RainfallSweep(context.Background(), sweepConfig(), rainfalls, 3)
	if len(records) != len(rainfalls) {
		t.Fatalf("expected %d records, got %d", len(rainfalls), len(records))
	}
	for i, rec := range records {
		if rec.Err != nil {
			t.Fatalf("record %d: %v", i, rec.Err)
		}
		if rec.Index != i || rec.Result.Rainfall != rainfalls[i] {
			t.Fatalf("record %d out of order: %+v", i, rec)
		}
		want := RegimeUniform
		if rainfalls[i] == 0 {
			want = RegimeBare
		}
		if rec.Result.Regime != want {
			t.Fatalf("record %d regime %s, want %s", i, rec.Result.Regime, want)
		}
	}
}

func TestRainfallSweepReportsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	records := RainfallSweep(ctx, sweepConfig(), []float64{1, 2}, 0)
	for _, rec := range records {
		if !errors.Is(rec.Err, context.Canceled) {
			t.Fatalf("expected cancellation error, got %v", rec.Err)
		}
	}
}
