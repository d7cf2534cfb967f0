package rietkerk

import (
	"image/color"

	"gonum.org/v1/gonum/floats"
)

// displayLevels is the number of biomass shades in the viewer palette.
const displayLevels = 32

var vegetationPalette = buildVegetationPalette()

// Palette exposes the color palette used for rendering the biomass layer.
func (w *World) Palette() []color.RGBA {
	return vegetationPalette
}

// Cells exposes a display buffer of palette indices: the biomass layer
// quantized against its current maximum.
func (w *World) Cells() []uint8 {
	peak := 0.0
	if len(w.bioCurr) > 0 {
		peak = floats.Max(w.bioCurr)
	}
	for i, b := range w.bioCurr {
		w.display[i] = shade(b, peak)
	}
	return w.display
}

func shade(b, peak float64) uint8 {
	if peak <= 0 || b <= 0 {
		return 0
	}
	level := int(b / peak * float64(displayLevels-1))
	if level >= displayLevels {
		level = displayLevels - 1
	}
	return uint8(level)
}

func buildVegetationPalette() []color.RGBA {
	bare := color.NRGBA{R: 196, G: 164, B: 116, A: 255}
	dense := color.NRGBA{R: 24, G: 92, B: 40, A: 255}
	palette := make([]color.RGBA, displayLevels)
	for i := range palette {
		t := float64(i) / float64(displayLevels-1)
		palette[i] = toRGBA(blendColors(bare, dense, t))
	}
	return palette
}

func toRGBA(c color.NRGBA) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func blendColors(base, overlay color.NRGBA, overlayWeight float64) color.NRGBA {
	if overlayWeight <= 0 {
		return base
	}
	if overlayWeight >= 1 {
		return overlay
	}
	br, bg, bb, ba := float64(base.R), float64(base.G), float64(base.B), float64(base.A)
	or, og, ob, oa := float64(overlay.R), float64(overlay.G), float64(overlay.B), float64(overlay.A)
	w := overlayWeight
	inv := 1 - w
	return color.NRGBA{
		R: uint8(br*inv + or*w + 0.5),
		G: uint8(bg*inv + og*w + 0.5),
		B: uint8(bb*inv + ob*w + 0.5),
		A: uint8(ba*inv + oa*w + 0.5),
	}
}
