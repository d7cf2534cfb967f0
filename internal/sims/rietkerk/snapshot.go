package rietkerk

// Layer names used in snapshots and exports.
const (
	LayerBiomass      = "biomass"
	LayerSurfaceWater = "surface_water"
	LayerSoilWater    = "soil_water"
)

// Snapshot is a copy of one or more layers at a given step. Its slices are
// owned by the snapshot and must not be modified by receivers.
type Snapshot struct {
	Step   int
	Time   float64
	Width  int
	Height int

	Biomass      []float64
	SurfaceWater []float64
	SoilWater    []float64
}

// Layer returns the named layer, or false if it was not recorded.
func (s Snapshot) Layer(name string) ([]float64, bool) {
	var data []float64
	switch name {
	case LayerBiomass:
		data = s.Biomass
	case LayerSurfaceWater:
		data = s.SurfaceWater
	case LayerSoilWater:
		data = s.SoilWater
	}
	return data, data != nil
}

// Layers lists the names of the recorded layers in a stable order.
func (s Snapshot) Layers() []string {
	var names []string
	for _, name := range []string{LayerBiomass, LayerSurfaceWater, LayerSoilWater} {
		if _, ok := s.Layer(name); ok {
			names = append(names, name)
		}
	}
	return names
}

// Result is the outcome of a run: the recorded snapshots in step order and
// the terminal state. A failed run still carries every snapshot recorded
// before the failure.
type Result struct {
	State     State
	Steps     int
	Snapshots []Snapshot
}

// Final returns the last recorded snapshot.
func (r Result) Final() (Snapshot, bool) {
	if len(r.Snapshots) == 0 {
		return Snapshot{}, false
	}
	return r.Snapshots[len(r.Snapshots)-1], true
}
