// Package export turns simulation snapshots into gonum matrices and writes
// them out as CSV tables, grayscale masks and heatmap images.
package export

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"vegpattern/internal/sims/rietkerk"
)

// ErrLayerMissing is returned when a snapshot does not carry the requested layer.
var ErrLayerMissing = errors.New("export: layer not recorded in snapshot")

// Matrix copies the named layer of s into a Height x Width matrix. Row y of
// the matrix is grid row y. Values are copied without loss.
func Matrix(s rietkerk.Snapshot, layer string) (*mat.Dense, error) {
	data, ok := s.Layer(layer)
	if !ok {
		return nil, fmt.Errorf("%w: %s at step %d", ErrLayerMissing, layer, s.Step)
	}
	return FromLayer(data, s.Width, s.Height)
}

// FromLayer copies a row-major layer of w*h values into a matrix.
func FromLayer(data []float64, w, h int) (*mat.Dense, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("export: invalid dimensions %dx%d", w, h)
	}
	if len(data) != w*h {
		return nil, fmt.Errorf("export: layer holds %d values, want %d for %dx%d", len(data), w*h, w, h)
	}
	return mat.NewDense(h, w, append([]float64(nil), data...)), nil
}

// Threshold returns a 0/1 mask with the dimensions of m: 1 where the value is
// strictly above cutoff.
func Threshold(m *mat.Dense, cutoff float64) *mat.Dense {
	r, c := m.Dims()
	mask := mat.NewDense(r, c, nil)
	mask.Apply(func(_, _ int, v float64) float64 {
		if v > cutoff {
			return 1
		}
		return 0
	}, m)
	return mask
}

// Quantize maps values onto levels integer bins in [0, levels-1], scaling
// against peak. A non-positive peak scales against the matrix maximum.
func Quantize(m *mat.Dense, levels int, peak float64) *mat.Dense {
	if levels < 2 {
		levels = 2
	}
	if peak <= 0 {
		peak = mat.Max(m)
	}
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	if peak <= 0 {
		return out
	}
	top := float64(levels - 1)
	out.Apply(func(_, _ int, v float64) float64 {
		return math.Min(top, math.Max(0, math.Floor(v/peak*top)))
	}, m)
	return out
}

// Gray renders m as an 8-bit grayscale image, 0 mapping to black and peak or
// above to white. A non-positive peak scales against the matrix maximum.
func Gray(m *mat.Dense, peak float64) *image.Gray {
	r, c := m.Dims()
	img := image.NewGray(image.Rect(0, 0, c, r))
	if peak <= 0 {
		peak = mat.Max(m)
	}
	if peak <= 0 {
		return img
	}
	for y := 0; y < r; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+c]
		for x := range row {
			v := m.At(y, x) / peak
			row[x] = uint8(math.Round(255 * math.Min(1, math.Max(0, v))))
		}
	}
	return img
}

// Summary holds descriptive statistics of one exported layer.
type Summary struct {
	Rows, Cols int
	Total      float64
	Mean       float64
	StdDev     float64
	Min        float64
	Max        float64
	// Covered is the fraction of cells strictly above the cutoff.
	Covered float64
}

// Summarize computes descriptive statistics of m.
func Summarize(m *mat.Dense, cutoff float64) Summary {
	r, c := m.Dims()
	values := flatten(m)
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		std = 0
	}
	covered := 0
	for _, v := range values {
		if v > cutoff {
			covered++
		}
	}
	return Summary{
		Rows:    r,
		Cols:    c,
		Total:   floats.Sum(values),
		Mean:    mean,
		StdDev:  std,
		Min:     floats.Min(values),
		Max:     floats.Max(values),
		Covered: float64(covered) / float64(len(values)),
	}
}

func flatten(m *mat.Dense) []float64 {
	raw := m.RawMatrix()
	if raw.Stride == raw.Cols {
		return raw.Data[:raw.Rows*raw.Cols]
	}
	out := make([]float64, 0, raw.Rows*raw.Cols)
	for y := 0; y < raw.Rows; y++ {
		out = append(out, raw.Data[y*raw.Stride:y*raw.Stride+raw.Cols]...)
	}
	return out
}
