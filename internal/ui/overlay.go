//go:build ebiten

package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"gonum.org/v1/gonum/floats"

	"vegpattern/internal/core"
	"vegpattern/internal/render"
)

type waterProvider interface {
	SurfaceWater() []float64
	SoilWater() []float64
}

var (
	surfaceTint = color.RGBA{R: 64, G: 164, B: 223, A: 255}
	soilTint    = color.RGBA{R: 150, G: 90, B: 200, A: 255}
)

// Overlay tints the water layers on top of the biomass view. Key 1 toggles
// surface water, key 2 soil water.
type Overlay struct {
	sim         core.Sim
	scale       int
	showSurface bool
	showSoil    bool
	painter     *render.GridPainter
}

// NewOverlay constructs a new overlay instance.
func NewOverlay(sim core.Sim, scale int) *Overlay {
	size := sim.Size()
	return &Overlay{sim: sim, scale: scale, painter: render.NewGridPainter(size.W, size.H)}
}

// Update handles the toggle keys.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showSurface = !o.showSurface
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showSoil = !o.showSoil
	}
}

// Draw renders the enabled layers onto screen.
func (o *Overlay) Draw(screen *ebiten.Image) {
	provider, ok := o.sim.(waterProvider)
	if !ok {
		return
	}
	if o.showSurface {
		o.drawLayer(screen, provider.SurfaceWater(), surfaceTint)
	}
	if o.showSoil {
		o.drawLayer(screen, provider.SoilWater(), soilTint)
	}
}

func (o *Overlay) drawLayer(screen *ebiten.Image, layer []float64, tint color.RGBA) {
	if len(layer) == 0 {
		return
	}
	o.painter.BlitTint(screen, layer, floats.Max(layer), tint, o.scale)
}
