//go:build ebiten

package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// GridPainter uploads per-cell colors into a single w*h image and draws it
// scaled onto the screen.
type GridPainter struct {
	w, h int
	img  *ebiten.Image
	buf  []byte
}

// NewGridPainter allocates a painter for a grid of size w*h.
func NewGridPainter(w, h int) *GridPainter {
	gp := &GridPainter{w: w, h: h, buf: make([]byte, 4*w*h)}
	gp.img = ebiten.NewImage(w, h)
	return gp
}

// BlitPalette draws palette-indexed cells.
func (gp *GridPainter) BlitPalette(dst *ebiten.Image, cells []uint8, palette []color.RGBA, scale int) {
	if len(cells) != gp.w*gp.h {
		return
	}
	fillPaletteRGBA(gp.buf, cells, palette)
	gp.draw(dst, scale)
}

// BlitTint draws a continuous layer as a translucent tint over dst.
func (gp *GridPainter) BlitTint(dst *ebiten.Image, values []float64, peak float64, tint color.RGBA, scale int) {
	if len(values) != gp.w*gp.h {
		return
	}
	fillTintRGBA(gp.buf, values, peak, tint)
	gp.draw(dst, scale)
}

func (gp *GridPainter) draw(dst *ebiten.Image, scale int) {
	if scale <= 0 {
		scale = 1
	}
	gp.img.WritePixels(gp.buf)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	dst.DrawImage(gp.img, op)
}

// Size returns the dimensions of the underlying image.
func (gp *GridPainter) Size() (int, int) { return gp.w, gp.h }
