package rietkerk

import (
	"context"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// Regime is a coarse classification of a final biomass pattern.
type Regime string

const (
	RegimeBare      Regime = "bare"
	RegimeSpots     Regime = "spots"
	RegimeLabyrinth Regime = "labyrinth"
	RegimeGaps      Regime = "gaps"
	RegimeUniform   Regime = "uniform"
)

// CoverThreshold is the biomass above which a cell counts as vegetated when
// classifying regimes.
const CoverThreshold = 1.0

// RegimeResult captures pattern telemetry from the final state of a run.
type RegimeResult struct {
	Rainfall float64
	// MeanBiomass is the grid mean of the final biomass layer.
	MeanBiomass float64
	// Coverage is the fraction of cells above CoverThreshold.
	Coverage float64
	// Variation is the coefficient of variation (std/mean) of biomass.
	Variation float64
	Regime    Regime
	State     State
	Steps     int
}

// SweepRecord documents one run of a parameter sweep.
type SweepRecord struct {
	Index  int
	Result RegimeResult
	Err    error
}

// Classify summarises a biomass layer into a RegimeResult.
func Classify(biomass []float64) RegimeResult {
	if len(biomass) == 0 {
		return RegimeResult{Regime: RegimeBare}
	}
	mean, std := stat.MeanStdDev(biomass, nil)
	covered := 0
	for _, b := range biomass {
		if b > CoverThreshold {
			covered++
		}
	}
	res := RegimeResult{
		MeanBiomass: mean,
		Coverage:    float64(covered) / float64(len(biomass)),
	}
	if mean > 0 {
		res.Variation = std / mean
	}
	switch {
	case res.Coverage < 0.02:
		res.Regime = RegimeBare
	case res.Variation < 0.05:
		res.Regime = RegimeUniform
	case res.Coverage < 0.4:
		res.Regime = RegimeSpots
	case res.Coverage > 0.7:
		res.Regime = RegimeGaps
	default:
		res.Regime = RegimeLabyrinth
	}
	return res
}

// RunRegime simulates cfg to completion and classifies the final biomass.
func RunRegime(ctx context.Context, cfg Config) (RegimeResult, error) {
	result, err := Simulate(ctx, cfg)
	final, ok := result.Final()
	if err != nil && !ok {
		return RegimeResult{Rainfall: cfg.Params.Rainfall, State: result.State, Steps: result.Steps}, err
	}
	res := Classify(final.Biomass)
	res.Rainfall = cfg.Params.Rainfall
	res.State = result.State
	res.Steps = result.Steps
	return res, err
}

// RainfallSweep runs base once per rainfall value across a pool of workers and
// returns the records in input order. Each run is single-threaded internally;
// parallelism comes from running scenarios side by side.
func RainfallSweep(ctx context.Context, base Config, rainfalls []float64, workers int) []SweepRecord {
	if workers <= 0 {
		workers = 1
	}
	records := make([]SweepRecord, len(rainfalls))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				cfg := base
				cfg.Workers = 1
				cfg.Params.Rainfall = rainfalls[idx]
				res, err := RunRegime(ctx, cfg)
				if err != nil {
					err = fmt.Errorf("rainfall %g: %w", rainfalls[idx], err)
				}
				records[idx] = SweepRecord{Index: idx, Result: res, Err: err}
			}
		}()
	}
	for i := range rainfalls {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return records
}
