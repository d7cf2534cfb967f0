//go:build ebiten

package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"vegpattern/internal/core"
)

const (
	panelPadding = 10
	lineHeight   = 15
)

// HUD renders the parameter panel to the right of the simulation view.
type HUD struct {
	sim        core.Sim
	width      int
	panel      *ebiten.Image
	lastHeight int
	title      string
	lines      []string
}

// NewHUD constructs a HUD for the provided simulation and panel width.
func NewHUD(sim core.Sim, width int) *HUD {
	if width < 0 {
		width = 0
	}
	return &HUD{sim: sim, width: width, title: buildTitle(sim)}
}

// Width returns the panel width in pixels.
func (h *HUD) Width() int {
	if h == nil {
		return 0
	}
	return h.width
}

// Update refreshes the panel text from the simulation.
func (h *HUD) Update() {
	if h == nil || h.width <= 0 {
		return
	}
	var snap core.ParameterSnapshot
	if provider, ok := h.sim.(core.ParameterProvider); ok {
		snap = provider.Parameters()
	}
	var progress *Progress
	if p, ok := progressOf(h.sim); ok {
		progress = &p
	}
	h.lines = PanelLines(h.title, progress, snap)
}

// Draw paints the HUD panel anchored to the right edge of the simulation view.
func (h *HUD) Draw(screen *ebiten.Image, offsetX int, scale int) {
	if h == nil || h.width <= 0 {
		return
	}
	if scale <= 0 {
		scale = 1
	}
	height := h.sim.Size().H * scale
	if height <= 0 {
		return
	}
	if h.panel == nil || h.lastHeight != height {
		h.panel = ebiten.NewImage(h.width, height)
		h.lastHeight = height
	}
	h.panel.Fill(color.RGBA{R: 16, G: 16, B: 20, A: 255})

	face := basicfont.Face7x13
	heading := color.RGBA{R: 200, G: 200, B: 210, A: 255}
	body := color.RGBA{R: 220, G: 220, B: 230, A: 255}
	y := panelPadding + lineHeight
	for i, line := range h.lines {
		if y > height {
			break
		}
		col := body
		if i == 0 {
			col = heading
		}
		text.Draw(h.panel, line, face, panelPadding, y, col)
		y += lineHeight
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}
