// Package store archives simulation runs and their snapshots in a local
// SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"vegpattern/internal/config"
	"vegpattern/internal/export"
	"vegpattern/internal/logging"
	"vegpattern/internal/sims/rietkerk"
)

// ErrNotFound is returned when a run or snapshot does not exist.
var ErrNotFound = errors.New("store: not found")

// StateCancelled is recorded for runs stopped by their context before the
// last step, as opposed to "failed" runs that hit an error.
const StateCancelled = "cancelled"

// Store wraps the SQLite handle.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Run is one archived simulation run.
type Run struct {
	ID         string
	Label      string
	CreatedAt  time.Time
	FinishedAt time.Time
	Width      int
	Height     int
	Steps      int
	Seed       int64
	Rainfall   float64
	// ConfigYAML is the run configuration in run-file form.
	ConfigYAML string
	State      string
	StepsDone  int
	Error      string
}

// Finished reports whether FinishRun has been recorded for the run.
func (r Run) Finished() bool { return !r.FinishedAt.IsZero() }

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = logging.Discard()
	}
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s := &Store{db: db, log: log}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// dsn applies per-connection pragmas through the driver's _pragma parameters
// so every pooled connection enforces foreign keys.
func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// CreateRun records a new run in the running state and returns it.
func (s *Store) CreateRun(ctx context.Context, label string, cfg rietkerk.Config) (Run, error) {
	encoded, err := yaml.Marshal(config.FromConfig(cfg))
	if err != nil {
		return Run{}, fmt.Errorf("encode run config: %w", err)
	}
	run := Run{
		ID:         uuid.NewString(),
		Label:      label,
		CreatedAt:  time.Now().UTC(),
		Width:      cfg.Width,
		Height:     cfg.Height,
		Steps:      cfg.Steps,
		Seed:       cfg.Seed,
		Rainfall:   cfg.Params.Rainfall,
		ConfigYAML: string(encoded),
		State:      rietkerk.StateRunning.String(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, label, created_at, width, height, steps, seed, rainfall, config_yaml, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Label, formatTime(run.CreatedAt), run.Width, run.Height, run.Steps,
		run.Seed, run.Rainfall, run.ConfigYAML, run.State)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	s.log.Debug("run created", "run_id", run.ID, "label", label)
	return run, nil
}

// SaveSnapshot stores every recorded layer of snap under runID.
func (s *Store) SaveSnapshot(ctx context.Context, runID string, snap rietkerk.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	for _, layer := range snap.Layers() {
		data, _ := snap.Layer(layer)
		m, err := export.FromLayer(data, snap.Width, snap.Height)
		if err != nil {
			return fmt.Errorf("snapshot %d %s: %w", snap.Step, layer, err)
		}
		sum := export.Summarize(m, rietkerk.CoverThreshold)
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO snapshots (run_id, step, time, layer, data, mean, cover)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, snap.Step, snap.Time, layer, encodeLayer(data), sum.Mean, sum.Covered)
		if err != nil {
			return fmt.Errorf("insert snapshot %d %s: %w", snap.Step, layer, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE runs SET steps_done = MAX(steps_done, ?) WHERE run_id = ?`, snap.Step, runID); err != nil {
		return fmt.Errorf("update run progress: %w", err)
	}
	return tx.Commit()
}

// FinishRun records the terminal state of a run. runErr may be nil. A run
// still in StateRunning whose error is a context cancellation or deadline is
// stored as StateCancelled.
func (s *Store) FinishRun(ctx context.Context, runID string, state rietkerk.State, steps int, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	label := state.String()
	if state != rietkerk.StateCompleted && state != rietkerk.StateFailed &&
		(errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)) {
		label = StateCancelled
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET state = ?, steps_done = ?, error = ?, finished_at = ? WHERE run_id = ?`,
		label, steps, msg, formatTime(time.Now().UTC()), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrNotFound)
	}
	return nil
}

const runColumns = `run_id, label, created_at, finished_at, width, height, steps, seed, rainfall, config_yaml, state, steps_done, error`

// ListRuns returns every run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns the run with the given id.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return run, err
}

// RunConfig decodes the configuration stored with a run.
func (s *Store) RunConfig(ctx context.Context, runID string) (rietkerk.Config, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return rietkerk.Config{}, err
	}
	var f config.File
	if err := yaml.Unmarshal([]byte(run.ConfigYAML), &f); err != nil {
		return rietkerk.Config{}, fmt.Errorf("decode run config: %w", err)
	}
	return f.Config()
}

// SnapshotSteps lists the recorded steps of a run in ascending order.
func (s *Store) SnapshotSteps(ctx context.Context, runID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT step FROM snapshots WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, fmt.Errorf("list snapshot steps: %w", err)
	}
	defer rows.Close()
	var steps []int
	for rows.Next() {
		var step int
		if err := rows.Scan(&step); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// LoadSnapshot rebuilds the snapshot recorded at step. A negative step loads
// the latest one.
func (s *Store) LoadSnapshot(ctx context.Context, runID string, step int) (rietkerk.Snapshot, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return rietkerk.Snapshot{}, err
	}
	if step < 0 {
		row := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(step), -1) FROM snapshots WHERE run_id = ?`, runID)
		if err := row.Scan(&step); err != nil {
			return rietkerk.Snapshot{}, fmt.Errorf("latest snapshot: %w", err)
		}
		if step < 0 {
			return rietkerk.Snapshot{}, fmt.Errorf("run %s has no snapshots: %w", runID, ErrNotFound)
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT time, layer, data FROM snapshots WHERE run_id = ? AND step = ?`, runID, step)
	if err != nil {
		return rietkerk.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	defer rows.Close()

	snap := rietkerk.Snapshot{Step: step, Width: run.Width, Height: run.Height}
	found := false
	for rows.Next() {
		var (
			layer string
			blob  []byte
		)
		if err := rows.Scan(&snap.Time, &layer, &blob); err != nil {
			return rietkerk.Snapshot{}, err
		}
		data, err := decodeLayer(blob, run.Width*run.Height)
		if err != nil {
			return rietkerk.Snapshot{}, fmt.Errorf("snapshot %d %s: %w", step, layer, err)
		}
		switch layer {
		case rietkerk.LayerBiomass:
			snap.Biomass = data
		case rietkerk.LayerSurfaceWater:
			snap.SurfaceWater = data
		case rietkerk.LayerSoilWater:
			snap.SoilWater = data
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return rietkerk.Snapshot{}, err
	}
	if !found {
		return rietkerk.Snapshot{}, fmt.Errorf("run %s step %d: %w", runID, step, ErrNotFound)
	}
	return snap, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run      Run
		created  string
		finished sql.NullString
	)
	err := sc.Scan(&run.ID, &run.Label, &created, &finished, &run.Width, &run.Height,
		&run.Steps, &run.Seed, &run.Rainfall, &run.ConfigYAML, &run.State, &run.StepsDone, &run.Error)
	if err != nil {
		return Run{}, err
	}
	if run.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return Run{}, fmt.Errorf("parse created_at: %w", err)
	}
	if finished.Valid {
		if run.FinishedAt, err = time.Parse(timeLayout, finished.String); err != nil {
			return Run{}, fmt.Errorf("parse finished_at: %w", err)
		}
	}
	return run, nil
}

// timeLayout has a fixed-width fraction so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

// encodeLayer packs values as little-endian IEEE 754 doubles.
func encodeLayer(data []float64) []byte {
	buf := make([]byte, 0, 8*len(data))
	for _, v := range data {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	return buf
}

func decodeLayer(blob []byte, want int) ([]float64, error) {
	if len(blob) != 8*want {
		return nil, fmt.Errorf("layer blob holds %d bytes, want %d", len(blob), 8*want)
	}
	data := make([]float64, want)
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[8*i:]))
	}
	return data, nil
}
