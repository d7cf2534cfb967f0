package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vegpattern/internal/core"
	"vegpattern/internal/sims/rietkerk"
)

func TestDefaultMatchesSimulationDefaults(t *testing.T) {
	cfg, err := Default().Config()
	require.NoError(t, err)
	if diff := cmp.Diff(rietkerk.DefaultConfig(), cfg); diff != "" {
		t.Fatalf("default run file differs from rietkerk defaults (-want +got):\n%s", diff)
	}
	assert.Equal(t, "info", Default().Logging.Level)
	assert.True(t, Default().Output.CSV)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	content := `
grid:
  width: 64
  boundary: reflecting
run:
  steps: 200
dynamics:
  rainfall: 1.4
  grazing_loss: 0.1
coupling:
  kernel: downslope
  drift: 0.25
output:
  heatmap: true
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", f.Logging.Level)
	assert.True(t, f.Output.Heatmap)
	assert.True(t, f.Output.CSV, "unset keys keep their defaults")

	cfg, err := f.Config()
	require.NoError(t, err)
	def := rietkerk.DefaultConfig()
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, def.Height, cfg.Height)
	assert.Equal(t, core.BoundaryReflecting, cfg.Boundary)
	assert.Equal(t, 200, cfg.Steps)
	assert.Equal(t, 1.4, cfg.Params.Rainfall)
	assert.Equal(t, 0.1, cfg.Params.GrazingLoss)
	assert.Equal(t, def.Params.Uptake, cfg.Params.Uptake)
	assert.Equal(t, rietkerk.KernelDownslope, cfg.Params.Kernel)
	assert.Equal(t, 0.25, cfg.Params.Drift)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid: [not, a, map"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestConfigReportsValidationErrors(t *testing.T) {
	f := Default()
	f.Dynamics.Rainfall = -1
	f.Dynamics.UptakeSaturation = 0
	_, err := f.Config()
	var ce *rietkerk.ConfigError
	require.True(t, errors.As(err, &ce), "expected ConfigError, got %v", err)
	assert.True(t, ce.Has("rainfall"))
	assert.True(t, ce.Has("uptake_saturation"))

	f = Default()
	f.Grid.Boundary = "mobius"
	_, err = f.Config()
	require.True(t, errors.As(err, &ce))
	assert.True(t, ce.Has("boundary"))
}

func TestSaveRoundTrip(t *testing.T) {
	f := Default()
	f.Grid.Width = 48
	f.Coupling.Kernel = rietkerk.KernelDiffusion
	f.Output.Layers = []string{rietkerk.LayerBiomass}

	path := filepath.Join(t.TempDir(), "nested", "run.yaml")
	require.NoError(t, f.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(f, loaded); diff != "" {
		t.Fatalf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VEGPATTERN_LOG_LEVEL", "trace")
	t.Setenv("VEGPATTERN_DB", "/tmp/runs.db")
	t.Setenv("VEGPATTERN_WORKERS", "3")

	f, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "trace", f.Logging.Level)
	assert.Equal(t, "/tmp/runs.db", f.Output.Database)
	assert.Equal(t, 3, f.Run.Workers)
}
