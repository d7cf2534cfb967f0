package rietkerk

import (
	"math"
	"strconv"

	"vegpattern/internal/core"
)

// Params holds the rate constants of the point dynamics and the spatial
// coupling. They are fixed for the duration of a run.
type Params struct {
	GrowthConstant   float64
	Uptake           float64
	UptakeSaturation float64
	Senescence       float64
	GrazingLoss      float64
	Rainfall         float64
	FracAvailable    float64
	BareSoilInfilt   float64
	InfiltSaturation float64
	SoilWaterEvap    float64

	// RainfallGradient linearly scales rainfall from Rainfall*(1-g/2) on the
	// first row to Rainfall*(1+g/2) on the last.
	RainfallGradient float64

	Kernel         string
	Redistribution float64
	Radius         int
	Drift          float64

	SoilDiffusion    float64
	BiomassDiffusion float64
}

// Initial describes the near-uniform starting state.
type Initial struct {
	Biomass      float64
	SurfaceWater float64
	SoilWater    float64
	// Noise is the relative amplitude of the multiplicative perturbation.
	Noise float64
	// BareFraction is the probability that a cell starts without biomass.
	BareFraction float64
}

// Config controls the simulation dimensions and run length.
type Config struct {
	Width  int
	Height int

	Steps            int
	SnapshotInterval int
	Timestep         float64
	Boundary         core.Boundary
	Seed             int64

	// RecordAllLayers adds surface and soil water to every snapshot.
	RecordAllLayers bool
	// Workers bounds the goroutines used per step; 0 selects runtime.NumCPU.
	Workers int

	Initial Initial
	Params  Params
}

// DefaultConfig returns a configuration in the spotted-pattern regime.
func DefaultConfig() Config {
	return Config{
		Width:            128,
		Height:           128,
		Steps:            4000,
		SnapshotInterval: 500,
		Timestep:         0.25,
		Boundary:         core.BoundaryPeriodic,
		Seed:             1337,
		Initial: Initial{
			Biomass:      10,
			SurfaceWater: 1,
			SoilWater:    2,
			Noise:        0.2,
			BareFraction: 0.1,
		},
		Params: Params{
			GrowthConstant:   0.05,
			Uptake:           10,
			UptakeSaturation: 5,
			Senescence:       0.25,
			GrazingLoss:      0,
			Rainfall:         1.0,
			FracAvailable:    0.2,
			BareSoilInfilt:   0.2,
			InfiltSaturation: 5,
			SoilWaterEvap:    0.2,
			Kernel:           KernelNeighborhood,
			Redistribution:   0.5,
			Radius:           1,
			SoilDiffusion:    0.05,
		},
	}
}

// Validate checks every field and returns a *ConfigError listing all
// violations, or nil.
func (c Config) Validate() error {
	var fields []FieldError
	bad := func(field string, v any, reason string) {
		fields = append(fields, FieldError{Field: field, Value: v, Reason: reason})
	}
	positiveInt := func(field string, v int) {
		if v <= 0 {
			bad(field, v, "must be positive")
		}
	}
	nonNegative := func(field string, v float64) {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			bad(field, v, "must be finite and non-negative")
		}
	}
	positive := func(field string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			bad(field, v, "must be finite and positive")
		}
	}
	fraction := func(field string, v float64) {
		if !(v >= 0 && v <= 1) {
			bad(field, v, "must be within [0, 1]")
		}
	}

	positiveInt("width", c.Width)
	positiveInt("height", c.Height)
	positiveInt("steps", c.Steps)
	positiveInt("snapshot_interval", c.SnapshotInterval)
	positive("timestep", c.Timestep)
	if c.Boundary != core.BoundaryPeriodic && c.Boundary != core.BoundaryReflecting {
		bad("boundary", c.Boundary, "unknown boundary")
	}
	if c.Workers < 0 {
		bad("workers", c.Workers, "must not be negative")
	}

	nonNegative("initial_biomass", c.Initial.Biomass)
	nonNegative("initial_surface_water", c.Initial.SurfaceWater)
	nonNegative("initial_soil_water", c.Initial.SoilWater)
	fraction("initial_noise", c.Initial.Noise)
	fraction("bare_fraction", c.Initial.BareFraction)

	p := c.Params
	nonNegative("growth_constant", p.GrowthConstant)
	nonNegative("uptake", p.Uptake)
	positive("uptake_saturation", p.UptakeSaturation)
	nonNegative("senescence", p.Senescence)
	nonNegative("grazing_loss", p.GrazingLoss)
	nonNegative("rainfall", p.Rainfall)
	nonNegative("frac_available", p.FracAvailable)
	nonNegative("bare_soil_infilt", p.BareSoilInfilt)
	positive("infilt_saturation", p.InfiltSaturation)
	nonNegative("soil_water_evap", p.SoilWaterEvap)
	if !(p.RainfallGradient >= -2 && p.RainfallGradient <= 2) {
		bad("rainfall_gradient", p.RainfallGradient, "must be within [-2, 2] so rainfall stays non-negative")
	}
	fraction("redistribution", p.Redistribution)
	fraction("drift", p.Drift)
	fraction("soil_diffusion", p.SoilDiffusion)
	fraction("biomass_diffusion", p.BiomassDiffusion)
	// The diffusion kernel only reads the four direct neighbours.
	if p.Kernel != KernelDiffusion {
		if p.Radius < 1 {
			bad("radius", p.Radius, "must be at least 1")
		} else if c.Width > 0 && c.Height > 0 && (2*p.Radius+1 > c.Width || 2*p.Radius+1 > c.Height) {
			bad("radius", p.Radius, "neighbourhood is larger than the grid")
		}
	}
	if _, err := KernelFromParams(p); err != nil {
		bad("kernel", p.Kernel, err.Error())
	}

	if len(fields) > 0 {
		return &ConfigError{Fields: fields}
	}
	return nil
}

// FromMap populates the config from a string map (flag-style key/value pairs).
// Unparseable values keep their defaults; range checks are left to Validate.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	setInt := func(key string, dst *int) {
		if v, ok := cfg[key]; ok {
			if parsed, err := strconv.Atoi(v); err == nil {
				*dst = parsed
			}
		}
	}
	setFloat := func(key string, dst *float64) {
		if v, ok := cfg[key]; ok {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = parsed
			}
		}
	}

	setInt("w", &c.Width)
	setInt("h", &c.Height)
	setInt("steps", &c.Steps)
	setInt("snapshot_interval", &c.SnapshotInterval)
	setInt("workers", &c.Workers)
	setFloat("timestep", &c.Timestep)
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["boundary"]; ok {
		if b, err := core.ParseBoundary(v); err == nil {
			c.Boundary = b
		}
	}

	setFloat("initial_biomass", &c.Initial.Biomass)
	setFloat("initial_surface_water", &c.Initial.SurfaceWater)
	setFloat("initial_soil_water", &c.Initial.SoilWater)
	setFloat("initial_noise", &c.Initial.Noise)
	setFloat("bare_fraction", &c.Initial.BareFraction)

	p := &c.Params
	setFloat("growth_constant", &p.GrowthConstant)
	setFloat("uptake", &p.Uptake)
	setFloat("uptake_saturation", &p.UptakeSaturation)
	setFloat("senescence", &p.Senescence)
	setFloat("grazing_loss", &p.GrazingLoss)
	setFloat("rainfall", &p.Rainfall)
	setFloat("rainfall_gradient", &p.RainfallGradient)
	setFloat("frac_available", &p.FracAvailable)
	setFloat("bare_soil_infilt", &p.BareSoilInfilt)
	setFloat("infilt_saturation", &p.InfiltSaturation)
	setFloat("soil_water_evap", &p.SoilWaterEvap)
	if v, ok := cfg["kernel"]; ok && v != "" {
		p.Kernel = v
	}
	setFloat("redistribution", &p.Redistribution)
	setInt("radius", &p.Radius)
	setFloat("drift", &p.Drift)
	setFloat("soil_diffusion", &p.SoilDiffusion)
	setFloat("biomass_diffusion", &p.BiomassDiffusion)
	return c
}
