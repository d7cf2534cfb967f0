package render

import (
	"image/color"
	"math"
)

// fillPaletteRGBA converts cell values into RGBA pixels using a palette. When
// the palette is empty the buffer is cleared to transparent black.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:4*len(cells)])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := int(c)
		if idx > last {
			idx = last
		}
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

const (
	tintMaxAlpha  = 150.0
	tintGlowBase  = 0.35
	tintGlowRange = 0.65
	tintBias      = 0.75
)

// fillTintRGBA writes a translucent overlay of a continuous layer: cells are
// scaled against peak and drawn in tint with alpha rising with intensity.
// Cells at or below zero are fully transparent.
func fillTintRGBA(buf []byte, values []float64, peak float64, tint color.RGBA) {
	for i, v := range values {
		base := i * 4
		intensity := 0.0
		if peak > 0 {
			intensity = math.Min(1, math.Max(0, v/peak))
		}
		if intensity == 0 {
			buf[base+0] = 0
			buf[base+1] = 0
			buf[base+2] = 0
			buf[base+3] = 0
			continue
		}
		glow := tintGlowBase + tintGlowRange*math.Sqrt(intensity)
		buf[base+0] = scaleComponent(tint.R, glow)
		buf[base+1] = scaleComponent(tint.G, glow)
		buf[base+2] = scaleComponent(tint.B, glow)
		buf[base+3] = uint8(math.Round(tintMaxAlpha * math.Pow(intensity, tintBias)))
	}
}

func scaleComponent(v uint8, factor float64) uint8 {
	scaled := math.Round(float64(v) * factor)
	if scaled > 255 {
		return 255
	}
	if scaled < 0 {
		return 0
	}
	return uint8(scaled)
}
