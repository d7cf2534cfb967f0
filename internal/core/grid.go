package core

import "fmt"

// Boundary selects how neighbours outside the grid are resolved.
type Boundary uint8

const (
	// BoundaryPeriodic wraps coordinates toroidally.
	BoundaryPeriodic Boundary = iota
	// BoundaryReflecting treats the grid edge as a zero-flux wall.
	BoundaryReflecting
)

// String returns the configuration name of the boundary.
func (b Boundary) String() string {
	switch b {
	case BoundaryPeriodic:
		return "periodic"
	case BoundaryReflecting:
		return "reflecting"
	default:
		return fmt.Sprintf("boundary(%d)", uint8(b))
	}
}

// ParseBoundary maps a configuration name to a Boundary.
func ParseBoundary(s string) (Boundary, error) {
	switch s {
	case "periodic", "wrap", "":
		return BoundaryPeriodic, nil
	case "reflecting", "reflect", "neumann":
		return BoundaryReflecting, nil
	}
	return 0, fmt.Errorf("unknown boundary %q", s)
}

// Field describes the geometry of a row-major 2D grid of cells. It carries no
// data; layers are plain slices of length W*H indexed with Index.
type Field struct {
	W, H     int
	Boundary Boundary
}

// NewField returns a field with the given dimensions, clamped to at least 1x1.
func NewField(w, h int, b Boundary) Field {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return Field{W: w, H: h, Boundary: b}
}

// Len returns the number of cells.
func (f Field) Len() int { return f.W * f.H }

// Index returns the linear slice index for coordinates (x, y).
func (f Field) Index(x, y int) int { return y*f.W + x }

// Wrap applies toroidal wrapping to the provided coordinates.
func (f Field) Wrap(x, y int) (int, int) {
	x = (x%f.W + f.W) % f.W
	y = (y%f.H + f.H) % f.H
	return x, y
}

// Resolve maps (x, y) to a linear index under the field's boundary. For a
// reflecting boundary, coordinates outside the grid do not resolve and ok is
// false.
func (f Field) Resolve(x, y int) (idx int, ok bool) {
	if f.Boundary == BoundaryPeriodic {
		x, y = f.Wrap(x, y)
		return f.Index(x, y), true
	}
	if x < 0 || x >= f.W || y < 0 || y >= f.H {
		return 0, false
	}
	return f.Index(x, y), true
}

// Bands splits the rows into at most n contiguous [start, end) ranges of
// near-equal height.
func (f Field) Bands(n int) [][2]int {
	if n <= 0 {
		n = 1
	}
	if n > f.H {
		n = f.H
	}
	bands := make([][2]int, 0, n)
	base := f.H / n
	extra := f.H % n
	start := 0
	for i := 0; i < n; i++ {
		rows := base
		if i < extra {
			rows++
		}
		bands = append(bands, [2]int{start, start + rows})
		start += rows
	}
	return bands
}
