package rietkerk

import (
	"context"
	"errors"
)

// Run steps the world until the configured step count is reached, the context
// is cancelled or the integration fails. Cancellation is only observed between
// steps, so every recorded snapshot is a fully committed state. A world that
// has not been Reset is reset with the configured seed first.
//
// On failure the returned Result still holds the snapshots recorded so far.
func (w *World) Run(ctx context.Context) (Result, error) {
	if w.state == StateUninitialized {
		w.Reset(0)
	}
	if w.state != StateRunning {
		return w.result(), ErrFinished
	}

	w.log.Info("run started",
		"width", w.field.W, "height", w.field.H,
		"steps", w.cfg.Steps, "timestep", w.cfg.Timestep,
		"kernel", w.kernel.Name(), "boundary", w.field.Boundary.String(),
		"rainfall", w.cfg.Params.Rainfall, "workers", len(w.bands))

	for w.state == StateRunning {
		if err := ctx.Err(); err != nil {
			w.log.Info("run cancelled", "step", w.step, "err", err)
			return w.result(), err
		}
		if err := w.Advance(); err != nil {
			var inst *InstabilityError
			if errors.As(err, &inst) {
				w.log.Warn("numerical instability", "step", inst.Step, "x", inst.X, "y", inst.Y, "layer", inst.Layer, "value", inst.Value)
			}
			return w.result(), err
		}
	}
	return w.result(), nil
}

// Snapshots returns the snapshots recorded since the last Reset.
func (w *World) Snapshots() []Snapshot {
	return append([]Snapshot(nil), w.snapshots...)
}

func (w *World) result() Result {
	return Result{State: w.state, Steps: w.step, Snapshots: w.Snapshots()}
}

// Simulate validates cfg, runs it to completion and returns the result.
func Simulate(ctx context.Context, cfg Config) (Result, error) {
	w, err := NewWithConfig(cfg)
	if err != nil {
		return Result{}, err
	}
	w.Reset(0)
	return w.Run(ctx)
}
