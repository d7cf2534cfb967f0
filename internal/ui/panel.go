package ui

import (
	"fmt"
	"strings"

	"vegpattern/internal/core"
)

// Progress is the run status shown at the top of the panel.
type Progress struct {
	Step         int
	Biomass      float64
	SurfaceWater float64
	SoilWater    float64
}

type progressProvider interface {
	StepIndex() int
	Totals() (biomass, surface, soil float64)
}


// progressOf reports the run status of sim when it exposes one.
func progressOf(sim core.Sim) (Progress, bool) {
	p, ok := sim.(progressProvider)
	if !ok {
		return Progress{}, false
	}
	b, s, w := p.Totals()
	return Progress{Step: p.StepIndex(), Biomass: b, SurfaceWater: s, SoilWater: w}, true
}

// PanelLines lays out the text of the side panel: a title, the run status
// when known, then every parameter group with its values.
func PanelLines(title string, progress *Progress, snap core.ParameterSnapshot) []string {
	lines := []string{title}
	if progress != nil {
		lines = append(lines,
			fmt.Sprintf("step %d", progress.Step),
			fmt.Sprintf("biomass  %.1f", progress.Biomass),
			fmt.Sprintf("surface  %.1f", progress.SurfaceWater),
			fmt.Sprintf("soil     %.1f", progress.SoilWater),
		)
	}
	for _, g := range snap.Groups {
		lines = append(lines, "", strings.ToUpper(g.Name))
		for _, p := range g.Params {
			lines = append(lines, fmt.Sprintf("%-14s %s", truncate(p.Label, 14), p.Value))
		}
	}
	return lines
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func buildTitle(sim core.Sim) string {
	if sim == nil || sim.Name() == "" {
		return "Parameters"
	}
	name := sim.Name()
	return strings.ToUpper(name[:1]) + name[1:]
}
