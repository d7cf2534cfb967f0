package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"vegpattern/internal/sims/rietkerk"
)

func testSnapshot() rietkerk.Snapshot {
	return rietkerk.Snapshot{
		Step:    12,
		Time:    3,
		Width:   3,
		Height:  2,
		Biomass: []float64{0, 0.5, 2, 4, 0.25, 1},
	}
}

func TestMatrixIsLosslessRowMajorCopy(t *testing.T) {
	s := testSnapshot()
	m, err := Matrix(s, rietkerk.LayerBiomass)
	require.NoError(t, err)

	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 2.0, m.At(0, 2))
	assert.Equal(t, 4.0, m.At(1, 0))

	s.Biomass[0] = 99
	assert.Equal(t, 0.0, m.At(0, 0), "matrix must not alias the snapshot")
}

func TestMatrixMissingLayer(t *testing.T) {
	_, err := Matrix(testSnapshot(), rietkerk.LayerSoilWater)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLayerMissing))
}

func TestFromLayerRejectsMismatch(t *testing.T) {
	_, err := FromLayer([]float64{1, 2, 3}, 2, 2)
	assert.Error(t, err)
	_, err = FromLayer(nil, 0, 2)
	assert.Error(t, err)
}

func TestThresholdKeepsDimensions(t *testing.T) {
	m, err := Matrix(testSnapshot(), rietkerk.LayerBiomass)
	require.NoError(t, err)

	mask := Threshold(m, 0.5)
	r, c := mask.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	want := mat.NewDense(2, 3, []float64{0, 0, 1, 1, 0, 1})
	assert.True(t, mat.Equal(want, mask), "mask = %v", mat.Formatted(mask))
}

func TestQuantize(t *testing.T) {
	m := mat.NewDense(1, 4, []float64{0, 1, 2, 4})
	q := Quantize(m, 5, 0)
	assert.Equal(t, []float64{0, 1, 2, 4}, mat.Row(nil, 0, q))

	q = Quantize(m, 3, 2)
	assert.Equal(t, []float64{0, 1, 2, 2}, mat.Row(nil, 0, q), "values above peak saturate")

	zero := Quantize(mat.NewDense(1, 2, nil), 4, 0)
	assert.Equal(t, []float64{0, 0}, mat.Row(nil, 0, zero))
}

func TestGray(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{0, 1, 2, 4})
	img := Gray(m, 2)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
	assert.Equal(t, uint8(0), img.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(128), img.GrayAt(1, 0).Y)
	assert.Equal(t, uint8(255), img.GrayAt(0, 1).Y)
	assert.Equal(t, uint8(255), img.GrayAt(1, 1).Y)
}

func TestSummarize(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{0, 2, 4, 6})
	s := Summarize(m, 1)
	assert.Equal(t, 2, s.Rows)
	assert.Equal(t, 2, s.Cols)
	assert.Equal(t, 12.0, s.Total)
	assert.Equal(t, 3.0, s.Mean)
	assert.InDelta(t, 2.581988897, s.StdDev, 1e-9)
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 6.0, s.Max)
	assert.Equal(t, 0.75, s.Covered)
}

func TestWriteCSV(t *testing.T) {
	m, err := Matrix(testSnapshot(), rietkerk.LayerBiomass)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, m))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	for y, rec := range records {
		require.Len(t, rec, 3)
		for x, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			require.NoError(t, err)
			assert.Equal(t, m.At(y, x), v)
		}
	}
}

func TestWriteHeatmapProducesPNG(t *testing.T) {
	m := mat.NewDense(4, 5, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, float64(i+1))
	}
	var buf bytes.Buffer
	require.NoError(t, WriteHeatmap(&buf, m, "biomass"))
	_, err := png.Decode(&buf)
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, WriteHeatmap(&buf, mat.NewDense(2, 2, nil), "flat"), "a constant layer still renders")
}

func TestWriteSnapshot(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteSnapshot(dir, testSnapshot(), Options{CSV: true, Mask: true, Cutoff: 0.5})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "biomass_000012.csv"),
		filepath.Join(dir, "biomass_000012_mask.png"),
	}, paths)

	f, err := os.Open(paths[1])
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())

	paths, err = WriteSnapshot(dir, testSnapshot(), Options{Layers: []string{rietkerk.LayerSoilWater}, CSV: true})
	require.NoError(t, err)
	assert.Empty(t, paths, "unrecorded layers are skipped")
}
