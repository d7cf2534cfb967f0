package export

import (
	"encoding/csv"
	"fmt"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"vegpattern/internal/sims/rietkerk"
)

// WriteCSV writes one CSV record per matrix row.
func WriteCSV(w io.Writer, m *mat.Dense) error {
	r, c := m.Dims()
	cw := csv.NewWriter(w)
	record := make([]string, c)
	for y := 0; y < r; y++ {
		for x := range record {
			record[x] = strconv.FormatFloat(m.At(y, x), 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", y, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// HeatmapSize is the rendered edge length of heatmap images.
var HeatmapSize = 6 * vg.Inch

// WriteHeatmap renders m as a PNG heatmap with a title. Grid row 0 is drawn at
// the top of the image.
func WriteHeatmap(w io.Writer, m *mat.Dense, title string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.HideAxes()

	grid := denseGrid{m: m}
	hm := plotter.NewHeatMap(grid, palette.Heat(64, 1))
	if hm.Min == hm.Max {
		hm.Max = hm.Min + 1
	}
	hm.Underflow = color.Black
	p.Add(hm)

	wt, err := p.WriterTo(HeatmapSize, HeatmapSize, "png")
	if err != nil {
		return fmt.Errorf("render heatmap: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write heatmap: %w", err)
	}
	return nil
}

// denseGrid adapts a matrix to plotter.GridXYZ with cell centres at integer
// coordinates. Rows are flipped so the first grid row lands on top.
type denseGrid struct {
	m *mat.Dense
}

func (g denseGrid) Dims() (c, r int) {
	rows, cols := g.m.Dims()
	return cols, rows
}

func (g denseGrid) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	return g.m.At(rows-1-r, c)
}

func (g denseGrid) X(c int) float64 { return float64(c) }
func (g denseGrid) Y(r int) float64 { return float64(r) }

// Options selects the files written by WriteSnapshot.
type Options struct {
	Layers  []string
	CSV     bool
	Heatmap bool
	// Mask writes a thresholded grayscale PNG per layer.
	Mask   bool
	Cutoff float64
}

// WriteSnapshot writes the selected layers of s into dir and returns the paths
// written. Layers missing from the snapshot are skipped.
func WriteSnapshot(dir string, s rietkerk.Snapshot, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	layers := opts.Layers
	if len(layers) == 0 {
		layers = s.Layers()
	}
	var written []string
	for _, layer := range layers {
		m, err := Matrix(s, layer)
		if err != nil {
			continue
		}
		base := filepath.Join(dir, fmt.Sprintf("%s_%06d", layer, s.Step))
		if opts.CSV {
			path := base + ".csv"
			if err := writeFile(path, func(w io.Writer) error { return WriteCSV(w, m) }); err != nil {
				return written, err
			}
			written = append(written, path)
		}
		if opts.Heatmap {
			path := base + ".png"
			title := fmt.Sprintf("%s step %d", layer, s.Step)
			if err := writeFile(path, func(w io.Writer) error { return WriteHeatmap(w, m, title) }); err != nil {
				return written, err
			}
			written = append(written, path)
		}
		if opts.Mask {
			path := base + "_mask.png"
			mask := Gray(Threshold(m, opts.Cutoff), 1)
			if err := writeFile(path, func(w io.Writer) error { return png.Encode(w, mask) }); err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}
	return written, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
