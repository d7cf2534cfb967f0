package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/cobra"

	"vegpattern/internal/config"
	"vegpattern/internal/export"
	"vegpattern/internal/sims/rietkerk"
	"vegpattern/internal/store"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation and export its snapshots",
		Long: `Run one simulation from the run file, overridden by flags, and write each
recorded snapshot as CSV tables, heatmaps and masks. With --db the run and
its snapshots are archived in SQLite.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFile(cmd)
			if err != nil {
				return err
			}
			applyRunFlags(cmd, f)
			cfg, err := f.Config()
			if err != nil {
				return err
			}
			label, _ := cmd.Flags().GetString("label")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			log := newLogger(f, cmd.ErrOrStderr())

			summary, err := runSimulation(ctx, cfg, f.Output, label, log)
			if summary.RunID != "" || summary.Steps > 0 {
				printRunSummary(cmd, summary)
			}
			return err
		},
	}
	cmd.Flags().Int("width", 0, "Grid width")
	cmd.Flags().Int("height", 0, "Grid height")
	cmd.Flags().Int("steps", 0, "Number of steps")
	cmd.Flags().Int("interval", 0, "Snapshot interval in steps")
	cmd.Flags().Int64("seed", 0, "Random seed")
	cmd.Flags().Int("workers", 0, "Goroutines per step (0 = all CPUs)")
	cmd.Flags().Float64("rainfall", 0, "Mean rainfall")
	cmd.Flags().String("kernel", "", "Redistribution kernel: neighborhood, diffusion, downslope")
	cmd.Flags().String("boundary", "", "Grid boundary: periodic, reflecting")
	cmd.Flags().StringP("out", "o", "", "Export directory")
	cmd.Flags().Bool("heatmap", false, "Write PNG heatmaps")
	cmd.Flags().Bool("mask", false, "Write thresholded PNG masks")
	cmd.Flags().Bool("all-layers", false, "Record surface and soil water too")
	cmd.Flags().String("db", "", "SQLite archive path")
	cmd.Flags().String("label", "", "Label stored with the archived run")
	return cmd
}

func applyRunFlags(cmd *cobra.Command, f *config.File) {
	flags := cmd.Flags()
	if flags.Changed("width") {
		f.Grid.Width, _ = flags.GetInt("width")
	}
	if flags.Changed("height") {
		f.Grid.Height, _ = flags.GetInt("height")
	}
	if flags.Changed("boundary") {
		f.Grid.Boundary, _ = flags.GetString("boundary")
	}
	if flags.Changed("steps") {
		f.Run.Steps, _ = flags.GetInt("steps")
	}
	if flags.Changed("interval") {
		f.Run.SnapshotInterval, _ = flags.GetInt("interval")
	}
	if flags.Changed("seed") {
		f.Run.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("workers") {
		f.Run.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("all-layers") {
		f.Run.RecordAllLayers, _ = flags.GetBool("all-layers")
	}
	if flags.Changed("rainfall") {
		f.Dynamics.Rainfall, _ = flags.GetFloat64("rainfall")
	}
	if flags.Changed("kernel") {
		f.Coupling.Kernel, _ = flags.GetString("kernel")
	}
	if flags.Changed("out") {
		f.Output.Dir, _ = flags.GetString("out")
	}
	if flags.Changed("heatmap") {
		f.Output.Heatmap, _ = flags.GetBool("heatmap")
	}
	if flags.Changed("mask") {
		f.Output.Mask, _ = flags.GetBool("mask")
	}
	if flags.Changed("db") {
		f.Output.Database, _ = flags.GetString("db")
	}
}

// runSummary is what the run command reports once the simulation stops.
type runSummary struct {
	RunID     string          `json:"run_id,omitempty"`
	State     string          `json:"state"`
	Steps     int             `json:"steps"`
	Snapshots int             `json:"snapshots"`
	Files     int             `json:"files"`
	Final     *export.Summary `json:"final,omitempty"`
	Regime    string          `json:"regime,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// runSimulation steps cfg to completion while a writer goroutine persists
// snapshots, so export and archive I/O never run on the stepping goroutine.
func runSimulation(ctx context.Context, cfg rietkerk.Config, out config.OutputConfig, label string, log *slog.Logger) (runSummary, error) {
	world, err := rietkerk.NewWithConfig(cfg)
	if err != nil {
		return runSummary{}, err
	}
	world.SetLogger(log)

	var archive *store.Store
	var runID string
	if out.Database != "" {
		archive, err = store.Open(out.Database, log)
		if err != nil {
			return runSummary{}, err
		}
		defer archive.Close()
		run, err := archive.CreateRun(ctx, label, cfg)
		if err != nil {
			return runSummary{}, err
		}
		runID = run.ID
		log.Info("archiving run", "run_id", runID, "db", out.Database)
	}

	w := &snapshotWriter{
		dir:     out.Dir,
		opts:    export.Options{Layers: out.Layers, CSV: out.CSV, Heatmap: out.Heatmap, Mask: out.Mask, Cutoff: out.Cutoff},
		archive: archive,
		runID:   runID,
		log:     log,
	}
	w.start()
	world.OnSnapshot(w.enqueue)

	result, runErr := world.Run(ctx)
	writeErr := w.close()

	summary := runSummary{
		RunID:     runID,
		State:     result.State.String(),
		Steps:     result.Steps,
		Snapshots: len(result.Snapshots),
		Files:     w.files,
	}
	if final, ok := result.Final(); ok {
		if m, err := export.Matrix(final, rietkerk.LayerBiomass); err == nil {
			s := export.Summarize(m, rietkerk.CoverThreshold)
			summary.Final = &s
			summary.Regime = string(rietkerk.Classify(final.Biomass).Regime)
		}
	}
	if runErr != nil {
		summary.Error = runErr.Error()
		if errors.Is(runErr, context.Canceled) {
			summary.State = store.StateCancelled
		}
	}

	if archive != nil {
		// Record the outcome even when ctx was cancelled.
		if err := archive.FinishRun(context.WithoutCancel(ctx), runID, result.State, result.Steps, runErr); err != nil {
			log.Warn("failed to finish archived run", "run_id", runID, "err", err)
		}
	}
	return summary, errors.Join(runErr, writeErr)
}

type snapshotWriter struct {
	dir     string
	opts    export.Options
	archive *store.Store
	runID   string
	log     *slog.Logger

	// writeFn persists one snapshot on the writer goroutine; nil selects write.
	writeFn func(rietkerk.Snapshot)

	mu      sync.Mutex
	ready   *sync.Cond
	pending []rietkerk.Snapshot
	closed  bool
	wg      sync.WaitGroup
	files   int
	err     error
}

func (w *snapshotWriter) start() {
	w.ready = sync.NewCond(&w.mu)
	if w.writeFn == nil {
		w.writeFn = w.write
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			w.mu.Lock()
			for len(w.pending) == 0 && !w.closed {
				w.ready.Wait()
			}
			if len(w.pending) == 0 {
				w.mu.Unlock()
				return
			}
			batch := w.pending
			w.pending = nil
			w.mu.Unlock()
			for _, snap := range batch {
				w.writeFn(snap)
			}
		}
	}()
}

// enqueue hands a snapshot to the writer without waiting on it; the queue is
// unbounded so slow disks or databases never hold up stepping.
func (w *snapshotWriter) enqueue(s rietkerk.Snapshot) {
	w.mu.Lock()
	w.pending = append(w.pending, s)
	w.mu.Unlock()
	w.ready.Signal()
}

func (w *snapshotWriter) write(s rietkerk.Snapshot) {
	if w.err != nil {
		return
	}
	if w.dir != "" && (w.opts.CSV || w.opts.Heatmap || w.opts.Mask) {
		paths, err := export.WriteSnapshot(w.dir, s, w.opts)
		w.files += len(paths)
		if err != nil {
			w.err = err
			w.log.Error("export failed", "step", s.Step, "err", err)
			return
		}
	}
	if w.archive != nil {
		if err := w.archive.SaveSnapshot(context.Background(), w.runID, s); err != nil {
			w.err = err
			w.log.Error("archive failed", "step", s.Step, "err", err)
			return
		}
	}
	w.log.Debug("snapshot written", "step", s.Step)
}

// close drains the queue and returns the first write error.
func (w *snapshotWriter) close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.ready.Signal()
	w.wg.Wait()
	return w.err
}

func printRunSummary(cmd *cobra.Command, s runSummary) {
	out := cmd.OutOrStdout()
	if jsonOutput(cmd) {
		writeJSON(out, s)
		return
	}
	fmt.Fprintf(out, "state=%s steps=%d snapshots=%d files=%d", s.State, s.Steps, s.Snapshots, s.Files)
	if s.RunID != "" {
		fmt.Fprintf(out, " run=%s", s.RunID)
	}
	fmt.Fprintln(out)
	if s.Final != nil {
		fmt.Fprintf(out, "final biomass: mean=%.4f std=%.4f min=%.4f max=%.4f covered=%.3f regime=%s\n",
			s.Final.Mean, s.Final.StdDev, s.Final.Min, s.Final.Max, s.Final.Covered, s.Regime)
	}
}
