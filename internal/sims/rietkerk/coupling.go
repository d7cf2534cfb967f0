package rietkerk

import (
	"fmt"
	"math"

	"vegpattern/internal/core"
)

// Kernel names accepted by KernelFromParams.
const (
	KernelNeighborhood = "neighborhood"
	KernelDiffusion    = "diffusion"
	KernelDownslope    = "downslope"
)

// Kernel redistributes a layer among neighbouring cells. Implementations
// must read only from src and write only rows [y0, y1) of dst, so disjoint
// row bands can run concurrently, and must preserve the grid total.
type Kernel interface {
	Name() string
	Redistribute(dst, src []float64, f core.Field, y0, y1 int)
}

// Offset is one weighted stencil entry: each step a cell sends Weight of its
// value to the cell at (x+DX, y+DY).
type Offset struct {
	DX, DY int
	Weight float64
}

// Stencil is a Kernel defined by a list of weighted offsets. Under a
// reflecting boundary a transfer whose target lies outside the grid does not
// happen, so the water stays in the sending cell.
type Stencil struct {
	name    string
	offsets []Offset
	total   float64
}

// NewStencil validates the offsets and returns a Stencil. Weights must be
// non-negative and sum to at most 1 so no cell can send more than it holds.
func NewStencil(name string, offsets []Offset) (*Stencil, error) {
	total := 0.0
	for _, o := range offsets {
		if o.DX == 0 && o.DY == 0 {
			return nil, fmt.Errorf("stencil %s: zero offset", name)
		}
		if o.Weight < 0 || math.IsNaN(o.Weight) {
			return nil, fmt.Errorf("stencil %s: negative weight %g at (%d,%d)", name, o.Weight, o.DX, o.DY)
		}
		total += o.Weight
	}
	if total > 1+1e-12 {
		return nil, fmt.Errorf("stencil %s: weights sum to %g, above 1", name, total)
	}
	return &Stencil{name: name, offsets: append([]Offset(nil), offsets...), total: total}, nil
}

// Name returns the kernel identifier.
func (s *Stencil) Name() string { return s.name }

// Offsets returns a copy of the stencil entries.
func (s *Stencil) Offsets() []Offset { return append([]Offset(nil), s.offsets...) }

// Redistribute gathers transfers into rows [y0, y1) of dst.
func (s *Stencil) Redistribute(dst, src []float64, f core.Field, y0, y1 int) {
	for y := y0; y < y1; y++ {
		for x := 0; x < f.W; x++ {
			i := f.Index(x, y)
			gain := 0.0
			loss := 0.0
			for _, o := range s.offsets {
				if j, ok := f.Resolve(x-o.DX, y-o.DY); ok {
					gain += o.Weight * src[j]
				}
				if _, ok := f.Resolve(x+o.DX, y+o.DY); ok {
					loss += o.Weight
				}
			}
			dst[i] = src[i]*math.Max(0, 1-loss) + gain
		}
	}
}

// NeighborhoodKernel spreads fraction of each cell's value evenly over its
// Moore neighbourhood of the given radius.
func NeighborhoodKernel(radius int, fraction float64) (*Stencil, error) {
	if radius < 1 {
		return nil, fmt.Errorf("neighbourhood radius %d must be at least 1", radius)
	}
	return NewStencil(KernelNeighborhood, mooreOffsets(radius, fraction))
}

// DiffusionKernel exchanges fraction of each cell's value with its four
// orthogonal neighbours: the explicit five-point Laplacian.
func DiffusionKernel(fraction float64) (*Stencil, error) {
	w := fraction / 4
	return NewStencil(KernelDiffusion, []Offset{
		{DX: 1, Weight: w},
		{DX: -1, Weight: w},
		{DY: 1, Weight: w},
		{DY: -1, Weight: w},
	})
}

// DownslopeKernel combines neighbourhood spreading with a drift of one row
// towards increasing y, as runoff on a uniform slope. Under a rainfall
// gradient this produces bands perpendicular to the slope.
func DownslopeKernel(radius int, fraction, drift float64) (*Stencil, error) {
	if radius < 1 {
		return nil, fmt.Errorf("neighbourhood radius %d must be at least 1", radius)
	}
	offsets := mooreOffsets(radius, fraction)
	for i := range offsets {
		if offsets[i].DX == 0 && offsets[i].DY == 1 {
			offsets[i].Weight += drift
			return NewStencil(KernelDownslope, offsets)
		}
	}
	return NewStencil(KernelDownslope, append(offsets, Offset{DY: 1, Weight: drift}))
}

// KernelFromParams builds the surface water kernel selected by p.Kernel.
func KernelFromParams(p Params) (Kernel, error) {
	switch p.Kernel {
	case KernelNeighborhood, "":
		return NeighborhoodKernel(p.Radius, p.Redistribution)
	case KernelDiffusion:
		return DiffusionKernel(p.Redistribution)
	case KernelDownslope:
		return DownslopeKernel(p.Radius, p.Redistribution, p.Drift)
	default:
		return nil, fmt.Errorf("unknown kernel %q", p.Kernel)
	}
}

func mooreOffsets(radius int, fraction float64) []Offset {
	side := 2*radius + 1
	n := side*side - 1
	w := fraction / float64(n)
	offsets := make([]Offset, 0, n)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			offsets = append(offsets, Offset{DX: dx, DY: dy, Weight: w})
		}
	}
	return offsets
}
