package rietkerk

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"

	"vegpattern/internal/core"
	"vegpattern/internal/logging"
	prng "vegpattern/pkg/core"
)

// State is the lifecycle stage of a World.
type State uint8

const (
	StateUninitialized State = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// World stores the three layers of the model as current/next buffer pairs.
// Each step reads only the current buffers and writes only the next ones;
// the pairs are swapped once every row has been computed.
type World struct {
	cfg   Config
	field core.Field

	bioCurr  []float64
	bioNext  []float64
	surfCurr []float64
	surfNext []float64
	soilCurr []float64
	soilNext []float64

	// Coupled layers before point dynamics are added.
	bioMoved  []float64
	surfMoved []float64
	soilMoved []float64

	rain       []float64
	kernel     Kernel
	soilKernel Kernel
	bioKernel  Kernel
	bands      [][2]int

	state     State
	step      int
	err       error
	snapshots []Snapshot
	observers []func(Snapshot)
	display   []uint8

	log *slog.Logger
}

// New returns a World with the provided dimensions using defaults.
func New(w, h int) (*World, error) {
	cfg := DefaultConfig()
	cfg.Width = w
	cfg.Height = h
	return NewWithConfig(cfg)
}

// NewWithConfig validates cfg and allocates a World. The world must be Reset
// before it can step.
func NewWithConfig(cfg Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kernel, err := KernelFromParams(cfg.Params)
	if err != nil {
		return nil, err
	}
	field := core.NewField(cfg.Width, cfg.Height, cfg.Boundary)
	total := field.Len()
	w := &World{
		cfg:       cfg,
		field:     field,
		bioCurr:   make([]float64, total),
		bioNext:   make([]float64, total),
		surfCurr:  make([]float64, total),
		surfNext:  make([]float64, total),
		soilCurr:  make([]float64, total),
		soilNext:  make([]float64, total),
		surfMoved: make([]float64, total),
		rain:      rainfallRows(cfg.Params, cfg.Height),
		kernel:    kernel,
		display:   make([]uint8, total),
		log:       logging.Discard(),
	}
	if cfg.Params.SoilDiffusion > 0 {
		if w.soilKernel, err = DiffusionKernel(cfg.Params.SoilDiffusion); err != nil {
			return nil, err
		}
		w.soilMoved = make([]float64, total)
	}
	if cfg.Params.BiomassDiffusion > 0 {
		if w.bioKernel, err = DiffusionKernel(cfg.Params.BiomassDiffusion); err != nil {
			return nil, err
		}
		w.bioMoved = make([]float64, total)
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	w.bands = field.Bands(workers)
	return w, nil
}

// SetLogger replaces the world's logger. Passing nil mutes it.
func (w *World) SetLogger(l *slog.Logger) {
	if l == nil {
		l = logging.Discard()
	}
	w.log = l
}

// OnSnapshot registers fn to receive every recorded snapshot. It is called
// synchronously on the stepping goroutine; slow consumers should hand the
// snapshot to their own goroutine.
func (w *World) OnSnapshot(fn func(Snapshot)) {
	if fn != nil {
		w.observers = append(w.observers, fn)
	}
}

// Name returns the simulation identifier.
func (w *World) Name() string { return "rietkerk" }

// Size reports the grid dimensions.
func (w *World) Size() core.Size { return core.Size{W: w.field.W, H: w.field.H} }

// Config returns the validated configuration.
func (w *World) Config() Config { return w.cfg }

// State returns the lifecycle stage.
func (w *World) State() State { return w.state }

// StepIndex returns the number of completed steps since Reset.
func (w *World) StepIndex() int { return w.step }

// Err returns the error that moved the world to StateFailed, if any.
func (w *World) Err() error { return w.err }

// Biomass exposes the active biomass layer.
func (w *World) Biomass() []float64 { return w.bioCurr }

// SurfaceWater exposes the active surface water layer.
func (w *World) SurfaceWater() []float64 { return w.surfCurr }

// SoilWater exposes the active soil water layer.
func (w *World) SoilWater() []float64 { return w.soilCurr }

// Rainfall returns the rainfall applied to row y.
func (w *World) Rainfall(y int) float64 { return w.rain[y] }

// Totals returns the grid sums of biomass, surface water and soil water.
func (w *World) Totals() (biomass, surface, soil float64) {
	return floats.Sum(w.bioCurr), floats.Sum(w.surfCurr), floats.Sum(w.soilCurr)
}

// Reset prepares the initial condition using deterministic randomness. A zero
// seed selects the configured seed. Recorded snapshots are discarded.
func (w *World) Reset(seed int64) {
	effective := seed
	if effective == 0 {
		effective = w.cfg.Seed
	}
	rng := prng.NewRNG(effective)
	start := w.cfg.Initial
	for i := range w.bioCurr {
		if rng.Chance(start.BareFraction) {
			w.bioCurr[i] = 0
		} else {
			w.bioCurr[i] = rng.Jitter(start.Biomass, start.Noise)
		}
	}
	prng.FillJitter(rng, w.surfCurr, start.SurfaceWater, start.Noise)
	prng.FillJitter(rng, w.soilCurr, start.SoilWater, start.Noise)
	copy(w.bioNext, w.bioCurr)
	copy(w.surfNext, w.surfCurr)
	copy(w.soilNext, w.soilCurr)

	w.step = 0
	w.err = nil
	w.snapshots = nil
	w.state = StateRunning
}

// Step advances the simulation by one step. It satisfies core.Sim for the
// viewer; failures are logged and leave the world in StateFailed.
func (w *World) Step() {
	if w.state != StateRunning {
		return
	}
	if err := w.Advance(); err != nil {
		w.log.Warn("step failed", "step", w.step, "err", err)
	}
}

// Advance performs one double-buffered step: coupling and point dynamics are
// computed for every cell from the current buffers, the next buffers are
// checked for non-finite values and then committed. On error nothing is
// committed and the world moves to StateFailed.
func (w *World) Advance() error {
	switch w.state {
	case StateUninitialized:
		return ErrNotReset
	case StateCompleted, StateFailed:
		return ErrFinished
	}

	if err := w.computeNext(); err != nil {
		w.fail(err)
		return err
	}

	w.bioCurr, w.bioNext = w.bioNext, w.bioCurr
	w.surfCurr, w.surfNext = w.surfNext, w.surfCurr
	w.soilCurr, w.soilNext = w.soilNext, w.soilCurr
	w.step++

	final := w.step >= w.cfg.Steps
	if w.step%w.cfg.SnapshotInterval == 0 || final {
		w.record()
	}
	if final {
		w.state = StateCompleted
		bio, surf, soil := w.Totals()
		w.log.Info("run completed", "steps", w.step, "snapshots", len(w.snapshots),
			"biomass", bio, "surface_water", surf, "soil_water", soil)
	}
	return nil
}

func (w *World) fail(err error) {
	w.state = StateFailed
	w.err = err
	w.log.Warn("run failed", "step", w.step+1, "err", err)
}

func (w *World) computeNext() error {
	if len(w.bands) == 1 {
		return w.stepRows(0, w.field.H)
	}
	errs := make([]error, len(w.bands))
	var wg sync.WaitGroup
	for i, band := range w.bands {
		wg.Add(1)
		go func(i int, y0, y1 int) {
			defer wg.Done()
			errs[i] = w.stepRows(y0, y1)
		}(i, band[0], band[1])
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// stepRows computes rows [y0, y1) of the next buffers. It reads the current
// buffers anywhere and writes only its own rows.
func (w *World) stepRows(y0, y1 int) error {
	p := w.cfg.Params
	dt := w.cfg.Timestep
	f := w.field

	w.kernel.Redistribute(w.surfMoved, w.surfCurr, f, y0, y1)
	soilBase := w.soilCurr
	if w.soilKernel != nil {
		w.soilKernel.Redistribute(w.soilMoved, w.soilCurr, f, y0, y1)
		soilBase = w.soilMoved
	}
	bioBase := w.bioCurr
	if w.bioKernel != nil {
		w.bioKernel.Redistribute(w.bioMoved, w.bioCurr, f, y0, y1)
		bioBase = w.bioMoved
	}

	for y := y0; y < y1; y++ {
		rain := w.rain[y]
		for x := 0; x < f.W; x++ {
			i := f.Index(x, y)
			b, ws, sw := w.bioCurr[i], w.surfCurr[i], w.soilCurr[i]

			dB, err := PlantChange(b, sw, p.Uptake, p.UptakeSaturation, p.GrowthConstant, p.Senescence, p.GrazingLoss)
			if err != nil {
				return err
			}
			dWs, err := SurfaceWaterChange(ws, b, rain, p.FracAvailable, p.BareSoilInfilt, p.InfiltSaturation)
			if err != nil {
				return err
			}
			dSw, err := SoilWaterChange(sw, ws, b, p.FracAvailable, p.BareSoilInfilt, p.InfiltSaturation, p.GrowthConstant, p.SoilWaterEvap, p.UptakeSaturation)
			if err != nil {
				return err
			}

			nb := bioBase[i] + dt*dB
			nws := w.surfMoved[i] + dt*dWs
			nsw := soilBase[i] + dt*dSw
			switch {
			case !finite(nb):
				return &InstabilityError{Step: w.step + 1, X: x, Y: y, Layer: LayerBiomass, Value: nb}
			case !finite(nws):
				return &InstabilityError{Step: w.step + 1, X: x, Y: y, Layer: LayerSurfaceWater, Value: nws}
			case !finite(nsw):
				return &InstabilityError{Step: w.step + 1, X: x, Y: y, Layer: LayerSoilWater, Value: nsw}
			}
			w.bioNext[i] = math.Max(0, nb)
			w.surfNext[i] = math.Max(0, nws)
			w.soilNext[i] = math.Max(0, nsw)
		}
	}
	return nil
}

func (w *World) record() {
	snap := Snapshot{
		Step:    w.step,
		Time:    float64(w.step) * w.cfg.Timestep,
		Width:   w.field.W,
		Height:  w.field.H,
		Biomass: append([]float64(nil), w.bioCurr...),
	}
	if w.cfg.RecordAllLayers {
		snap.SurfaceWater = append([]float64(nil), w.surfCurr...)
		snap.SoilWater = append([]float64(nil), w.soilCurr...)
	}
	w.snapshots = append(w.snapshots, snap)
	w.log.Debug("snapshot recorded", "step", snap.Step, "time", snap.Time, "layers", len(snap.Layers()))
	for _, fn := range w.observers {
		fn(snap)
	}
}

func rainfallRows(p Params, h int) []float64 {
	rows := make([]float64, h)
	for y := range rows {
		pos := 0.5
		if h > 1 {
			pos = float64(y) / float64(h-1)
		}
		rows[y] = math.Max(0, p.Rainfall*(1+p.RainfallGradient*(pos-0.5)))
	}
	return rows
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func init() {
	core.Register("rietkerk", func(cfg map[string]string) core.Sim {
		c := FromMap(cfg)
		w, err := NewWithConfig(c)
		if err != nil {
			slog.Warn("invalid rietkerk configuration, using defaults", "err", err)
			w, _ = NewWithConfig(DefaultConfig())
		}
		return w
	})
}
