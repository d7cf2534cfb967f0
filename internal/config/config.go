// Package config loads vegpattern run files. A run file is YAML and maps onto
// rietkerk.Config plus the output and logging settings used by the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"vegpattern/internal/core"
	"vegpattern/internal/sims/rietkerk"
)

// File is the on-disk run configuration.
type File struct {
	Grid     GridConfig     `yaml:"grid"`
	Run      RunConfig      `yaml:"run"`
	Initial  InitialConfig  `yaml:"initial"`
	Dynamics DynamicsConfig `yaml:"dynamics"`
	Coupling CouplingConfig `yaml:"coupling"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GridConfig sets the lattice dimensions and edge behaviour.
type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// Boundary is "periodic" or "reflecting".
	Boundary string `yaml:"boundary"`
}

// RunConfig controls integration and scheduling.
type RunConfig struct {
	Steps            int     `yaml:"steps"`
	SnapshotInterval int     `yaml:"snapshot_interval"`
	Timestep         float64 `yaml:"timestep"`
	Seed             int64   `yaml:"seed"`
	// Workers bounds per-step goroutines; 0 uses every CPU.
	Workers         int  `yaml:"workers"`
	RecordAllLayers bool `yaml:"record_all_layers"`
}

// InitialConfig describes the starting state.
type InitialConfig struct {
	Biomass      float64 `yaml:"biomass"`
	SurfaceWater float64 `yaml:"surface_water"`
	SoilWater    float64 `yaml:"soil_water"`
	Noise        float64 `yaml:"noise"`
	BareFraction float64 `yaml:"bare_fraction"`
}

// DynamicsConfig holds the point-dynamics rate constants.
type DynamicsConfig struct {
	GrowthConstant   float64 `yaml:"growth_constant"`
	Uptake           float64 `yaml:"uptake"`
	UptakeSaturation float64 `yaml:"uptake_saturation"`
	Senescence       float64 `yaml:"senescence"`
	GrazingLoss      float64 `yaml:"grazing_loss"`
	Rainfall         float64 `yaml:"rainfall"`
	RainfallGradient float64 `yaml:"rainfall_gradient"`
	FracAvailable    float64 `yaml:"frac_available"`
	BareSoilInfilt   float64 `yaml:"bare_soil_infilt"`
	InfiltSaturation float64 `yaml:"infilt_saturation"`
	SoilWaterEvap    float64 `yaml:"soil_water_evap"`
}

// CouplingConfig selects the spatial redistribution kernel.
type CouplingConfig struct {
	// Kernel is "neighborhood", "diffusion" or "downslope".
	Kernel           string  `yaml:"kernel"`
	Redistribution   float64 `yaml:"redistribution"`
	Radius           int     `yaml:"radius"`
	Drift            float64 `yaml:"drift"`
	SoilDiffusion    float64 `yaml:"soil_diffusion"`
	BiomassDiffusion float64 `yaml:"biomass_diffusion"`
}

// OutputConfig controls what the CLI writes for each snapshot.
type OutputConfig struct {
	Dir     string   `yaml:"dir"`
	Layers  []string `yaml:"layers,omitempty"`
	CSV     bool     `yaml:"csv"`
	Heatmap bool     `yaml:"heatmap"`
	Mask    bool     `yaml:"mask"`
	Cutoff  float64  `yaml:"cutoff"`
	// Database is the SQLite archive path; empty disables archiving.
	Database string `yaml:"database"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is "info" (default), "debug", "trace", "warn" or "error".
	Level string `yaml:"level"`
}

// Default returns a run file mirroring rietkerk.DefaultConfig with CSV
// export into ./out.
func Default() *File {
	f := FromConfig(rietkerk.DefaultConfig())
	f.Output = OutputConfig{
		Dir:    "out",
		CSV:    true,
		Cutoff: rietkerk.CoverThreshold,
	}
	f.Logging = LoggingConfig{Level: "info"}
	return f
}

// FromConfig converts a simulation config into its file form. Output and
// logging sections are left empty.
func FromConfig(c rietkerk.Config) *File {
	p := c.Params
	return &File{
		Grid: GridConfig{Width: c.Width, Height: c.Height, Boundary: c.Boundary.String()},
		Run: RunConfig{
			Steps:            c.Steps,
			SnapshotInterval: c.SnapshotInterval,
			Timestep:         c.Timestep,
			Seed:             c.Seed,
			Workers:          c.Workers,
			RecordAllLayers:  c.RecordAllLayers,
		},
		Initial: InitialConfig{
			Biomass:      c.Initial.Biomass,
			SurfaceWater: c.Initial.SurfaceWater,
			SoilWater:    c.Initial.SoilWater,
			Noise:        c.Initial.Noise,
			BareFraction: c.Initial.BareFraction,
		},
		Dynamics: DynamicsConfig{
			GrowthConstant:   p.GrowthConstant,
			Uptake:           p.Uptake,
			UptakeSaturation: p.UptakeSaturation,
			Senescence:       p.Senescence,
			GrazingLoss:      p.GrazingLoss,
			Rainfall:         p.Rainfall,
			RainfallGradient: p.RainfallGradient,
			FracAvailable:    p.FracAvailable,
			BareSoilInfilt:   p.BareSoilInfilt,
			InfiltSaturation: p.InfiltSaturation,
			SoilWaterEvap:    p.SoilWaterEvap,
		},
		Coupling: CouplingConfig{
			Kernel:           p.Kernel,
			Redistribution:   p.Redistribution,
			Radius:           p.Radius,
			Drift:            p.Drift,
			SoilDiffusion:    p.SoilDiffusion,
			BiomassDiffusion: p.BiomassDiffusion,
		},
	}
}

// Load reads a run file. Keys absent from the file keep their Default values,
// then environment overrides are applied. An empty path loads only defaults
// and overrides.
func Load(path string) (*File, error) {
	f := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, f); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	applyEnvOverrides(f)
	return f, nil
}

// Save writes f as YAML, creating parent directories as needed.
func (f *File) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Config converts the file into a validated simulation config. Validation
// failures are returned as *rietkerk.ConfigError.
func (f *File) Config() (rietkerk.Config, error) {
	boundary, err := core.ParseBoundary(f.Grid.Boundary)
	if err != nil {
		return rietkerk.Config{}, &rietkerk.ConfigError{Fields: []rietkerk.FieldError{
			{Field: "boundary", Value: f.Grid.Boundary, Reason: err.Error()},
		}}
	}
	d, cp := f.Dynamics, f.Coupling
	c := rietkerk.Config{
		Width:            f.Grid.Width,
		Height:           f.Grid.Height,
		Steps:            f.Run.Steps,
		SnapshotInterval: f.Run.SnapshotInterval,
		Timestep:         f.Run.Timestep,
		Boundary:         boundary,
		Seed:             f.Run.Seed,
		RecordAllLayers:  f.Run.RecordAllLayers,
		Workers:          f.Run.Workers,
		Initial: rietkerk.Initial{
			Biomass:      f.Initial.Biomass,
			SurfaceWater: f.Initial.SurfaceWater,
			SoilWater:    f.Initial.SoilWater,
			Noise:        f.Initial.Noise,
			BareFraction: f.Initial.BareFraction,
		},
		Params: rietkerk.Params{
			GrowthConstant:   d.GrowthConstant,
			Uptake:           d.Uptake,
			UptakeSaturation: d.UptakeSaturation,
			Senescence:       d.Senescence,
			GrazingLoss:      d.GrazingLoss,
			Rainfall:         d.Rainfall,
			RainfallGradient: d.RainfallGradient,
			FracAvailable:    d.FracAvailable,
			BareSoilInfilt:   d.BareSoilInfilt,
			InfiltSaturation: d.InfiltSaturation,
			SoilWaterEvap:    d.SoilWaterEvap,
			Kernel:           cp.Kernel,
			Redistribution:   cp.Redistribution,
			Radius:           cp.Radius,
			Drift:            cp.Drift,
			SoilDiffusion:    cp.SoilDiffusion,
			BiomassDiffusion: cp.BiomassDiffusion,
		},
	}
	if err := c.Validate(); err != nil {
		return rietkerk.Config{}, err
	}
	return c, nil
}

func applyEnvOverrides(f *File) {
	if v := os.Getenv("VEGPATTERN_LOG_LEVEL"); v != "" {
		f.Logging.Level = v
	}
	if v := os.Getenv("VEGPATTERN_OUTPUT_DIR"); v != "" {
		f.Output.Dir = v
	}
	if v := os.Getenv("VEGPATTERN_DB"); v != "" {
		f.Output.Database = v
	}
	if v := os.Getenv("VEGPATTERN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Run.Workers = n
		}
	}
}
