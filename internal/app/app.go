//go:build ebiten

package app

import (
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"vegpattern/internal/core"
	"vegpattern/internal/render"
	"vegpattern/internal/ui"
)

// maxStepsPerFrame caps catch-up stepping after a stalled frame.
const maxStepsPerFrame = 8

type paletteProvider interface {
	Palette() []color.RGBA
}

// Game adapts a core simulation to the ebiten.Game interface.
type Game struct {
	sim     core.Sim
	painter *render.GridPainter
	palette []color.RGBA
	hud     *ui.HUD
	overlay *ui.Overlay
	timer   *core.FixedStep

	scale    int
	paused   bool
	tickOnce bool
	seed     int64
}

// New constructs a Game for the provided simulation.
func New(sim core.Sim, cfg *Config) *Game {
	size := sim.Size()
	g := &Game{
		sim:     sim,
		painter: render.NewGridPainter(size.W, size.H),
		palette: grayscale(),
		hud:     ui.NewHUD(sim, cfg.HUDWidth),
		overlay: ui.NewOverlay(sim, cfg.Scale),
		timer:   core.NewFixedStep(cfg.SPS),
		scale:   cfg.Scale,
		seed:    cfg.Seed,
	}
	if p, ok := sim.(paletteProvider); ok {
		g.palette = p.Palette()
	}
	return g
}

// Reset reinitializes the simulation state with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.sim.Reset(seed)
	g.tickOnce = false
}

// Update handles per-frame logic and advances the simulation.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(time.Now().UnixNano())
	}
	g.overlay.Update()

	due := g.timer.Due(maxStepsPerFrame)
	switch {
	case g.tickOnce:
		g.sim.Step()
		g.tickOnce = false
	case !g.paused:
		for i := 0; i < due; i++ {
			g.sim.Step()
		}
	}
	g.hud.Update()
	return nil
}

// Draw renders the current simulation state.
func (g *Game) Draw(screen *ebiten.Image) {
	g.painter.BlitPalette(screen, g.sim.Cells(), g.palette, g.scale)
	g.overlay.Draw(screen)
	g.hud.Draw(screen, g.sim.Size().W*g.scale, g.scale)
}

// Layout returns the logical screen size including the HUD panel.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.sim.Size()
	return s.W*g.scale + g.hud.Width(), s.H * g.scale
}

func grayscale() []color.RGBA {
	p := make([]color.RGBA, 256)
	for i := range p {
		p[i] = color.RGBA{R: uint8(i), G: uint8(i), B: uint8(i), A: 255}
	}
	return p
}
