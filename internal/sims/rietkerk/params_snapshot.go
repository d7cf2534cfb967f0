package rietkerk

import (
	"strconv"

	"vegpattern/internal/core"
)

// Parameters describes the run configuration for the viewer HUD and the CLI.
func (w *World) Parameters() core.ParameterSnapshot {
	return ParameterSnapshot(w.cfg)
}

// ParameterSnapshot groups the configuration values for presentation.
func ParameterSnapshot(c Config) core.ParameterSnapshot {
	p := c.Params
	groups := []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				intParam("w", "Width", c.Width),
				intParam("h", "Height", c.Height),
				int64Param("seed", "Seed", c.Seed),
				stringParam("boundary", "Boundary", c.Boundary.String()),
			},
		},
		{
			Name: "Run",
			Params: []core.Parameter{
				intParam("steps", "Steps", c.Steps),
				intParam("snapshot_interval", "Snapshot interval", c.SnapshotInterval),
				floatParam("timestep", "Timestep", c.Timestep),
			},
		},
		{
			Name: "Initial",
			Params: []core.Parameter{
				floatParam("initial_biomass", "Biomass", c.Initial.Biomass),
				floatParam("initial_surface_water", "Surface water", c.Initial.SurfaceWater),
				floatParam("initial_soil_water", "Soil water", c.Initial.SoilWater),
				floatParam("initial_noise", "Noise", c.Initial.Noise),
				floatParam("bare_fraction", "Bare fraction", c.Initial.BareFraction),
			},
		},
		{
			Name:    "Plants",
			Summary: "growth, senescence and grazing",
			Params: []core.Parameter{
				floatParam("growth_constant", "Growth constant", p.GrowthConstant),
				floatParam("uptake", "Uptake", p.Uptake),
				floatParam("uptake_saturation", "Uptake saturation", p.UptakeSaturation),
				floatParam("senescence", "Senescence", p.Senescence),
				floatParam("grazing_loss", "Grazing loss", p.GrazingLoss),
			},
		},
		{
			Name:    "Water",
			Summary: "rainfall, infiltration and evaporation",
			Params: []core.Parameter{
				floatParam("rainfall", "Rainfall", p.Rainfall),
				floatParam("rainfall_gradient", "Rainfall gradient", p.RainfallGradient),
				floatParam("frac_available", "Infiltration rate", p.FracAvailable),
				floatParam("bare_soil_infilt", "Bare soil infiltration", p.BareSoilInfilt),
				floatParam("infilt_saturation", "Infiltration saturation", p.InfiltSaturation),
				floatParam("soil_water_evap", "Soil evaporation", p.SoilWaterEvap),
			},
		},
		{
			Name: "Coupling",
			Params: []core.Parameter{
				stringParam("kernel", "Kernel", p.Kernel),
				floatParam("redistribution", "Redistribution", p.Redistribution),
				intParam("radius", "Radius", p.Radius),
				floatParam("drift", "Drift", p.Drift),
				floatParam("soil_diffusion", "Soil diffusion", p.SoilDiffusion),
				floatParam("biomass_diffusion", "Biomass diffusion", p.BiomassDiffusion),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.Itoa(value),
	}
}

func int64Param(key, label string, value int64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.FormatInt(value, 10),
	}
}

func floatParam(key, label string, value float64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeFloat,
		Value: strconv.FormatFloat(value, 'f', -1, 64),
	}
}

func stringParam(key, label, value string) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeString,
		Value: value,
	}
}
