package rietkerk

import "math"

// PlantChange returns the biomass rate of change for a single cell: water
// limited growth minus senescence and grazing, both proportional to biomass.
//
// uptake converts absorbed water into biomass, growthConstant is the maximum
// specific water uptake and uptakeSaturation the half-saturation soil water.
func PlantChange(biomass, soilWater, uptake, uptakeSaturation, growthConstant, senescence, grazingLoss float64) (float64, error) {
	if err := checkDomain("PlantChange",
		arg{"biomass", biomass},
		arg{"soilWater", soilWater},
		arg{"uptake", uptake},
		arg{"growthConstant", growthConstant},
		arg{"senescence", senescence},
		arg{"grazingLoss", grazingLoss},
	); err != nil {
		return 0, err
	}
	if err := checkSaturation("PlantChange", "uptakeSaturation", uptakeSaturation); err != nil {
		return 0, err
	}
	if biomass == 0 {
		return 0, nil
	}
	growth := growthConstant * uptake * soilWater / (soilWater + uptakeSaturation)
	return (growth - senescence - grazingLoss) * biomass, nil
}

// SurfaceWaterChange returns the surface water rate of change: rainfall input
// minus infiltration into the soil.
func SurfaceWaterChange(surfaceWater, biomass, rainfall, fracAvailable, bareSoilInfilt, infiltSaturation float64) (float64, error) {
	if err := checkDomain("SurfaceWaterChange",
		arg{"surfaceWater", surfaceWater},
		arg{"biomass", biomass},
		arg{"rainfall", rainfall},
		arg{"fracAvailable", fracAvailable},
		arg{"bareSoilInfilt", bareSoilInfilt},
	); err != nil {
		return 0, err
	}
	if err := checkSaturation("SurfaceWaterChange", "infiltSaturation", infiltSaturation); err != nil {
		return 0, err
	}
	return rainfall - infiltration(surfaceWater, biomass, fracAvailable, bareSoilInfilt, infiltSaturation), nil
}

// SoilWaterChange returns the soil water rate of change: infiltration from
// the surface minus plant uptake and evaporation. The soil store has no
// autonomous decay beyond these fluxes.
func SoilWaterChange(soilWater, surfaceWater, biomass, fracAvailable, bareSoilInfilt, infiltSaturation, plantGrowth, soilWaterEvap, uptakeSaturation float64) (float64, error) {
	if err := checkDomain("SoilWaterChange",
		arg{"soilWater", soilWater},
		arg{"surfaceWater", surfaceWater},
		arg{"biomass", biomass},
		arg{"fracAvailable", fracAvailable},
		arg{"bareSoilInfilt", bareSoilInfilt},
		arg{"plantGrowth", plantGrowth},
		arg{"soilWaterEvap", soilWaterEvap},
	); err != nil {
		return 0, err
	}
	if err := checkSaturation("SoilWaterChange", "infiltSaturation", infiltSaturation); err != nil {
		return 0, err
	}
	if err := checkSaturation("SoilWaterChange", "uptakeSaturation", uptakeSaturation); err != nil {
		return 0, err
	}
	in := infiltration(surfaceWater, biomass, fracAvailable, bareSoilInfilt, infiltSaturation)
	uptake := plantGrowth * soilWater / (soilWater + uptakeSaturation) * biomass
	return in - uptake - soilWaterEvap*soilWater, nil
}

// Infiltration returns the flux from the surface store into the soil store.
// Vegetated cells infiltrate at fracAvailable; bare soil at the reduced
// fraction bareSoilInfilt of that rate.
func Infiltration(surfaceWater, biomass, fracAvailable, bareSoilInfilt, infiltSaturation float64) (float64, error) {
	if err := checkDomain("Infiltration",
		arg{"surfaceWater", surfaceWater},
		arg{"biomass", biomass},
		arg{"fracAvailable", fracAvailable},
		arg{"bareSoilInfilt", bareSoilInfilt},
	); err != nil {
		return 0, err
	}
	if err := checkSaturation("Infiltration", "infiltSaturation", infiltSaturation); err != nil {
		return 0, err
	}
	return infiltration(surfaceWater, biomass, fracAvailable, bareSoilInfilt, infiltSaturation), nil
}

func infiltration(surfaceWater, biomass, fracAvailable, bareSoilInfilt, infiltSaturation float64) float64 {
	return fracAvailable * surfaceWater * (biomass + infiltSaturation*bareSoilInfilt) / (biomass + infiltSaturation)
}

type arg struct {
	name  string
	value float64
}

func checkDomain(fn string, args ...arg) error {
	for _, a := range args {
		if a.value < 0 || math.IsNaN(a.value) || math.IsInf(a.value, 0) {
			return &DomainError{Func: fn, Arg: a.name, Value: a.value}
		}
	}
	return nil
}

func checkSaturation(fn, name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return &DomainError{Func: fn, Arg: name, Value: v}
	}
	return nil
}
