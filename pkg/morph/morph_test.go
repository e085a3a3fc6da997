package morph

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morphoseg/pkg/ordering"
	"morphoseg/pkg/raster"
	"morphoseg/pkg/structel"
)

func mustInts(t *testing.T, rows [][]int) *raster.Raster {
	t.Helper()
	r, err := raster.FromInts(rows)
	require.NoError(t, err)
	return r
}

func TestDilateErodeSquare(t *testing.T) {
	se, _ := structel.Square(1)
	r := mustInts(t, [][]int{
		{0, 0, 0, 0},
		{0, 5, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 2},
	})

	want := [][]int{
		{5, 5, 5, 0},
		{5, 5, 5, 0},
		{5, 5, 5, 2},
		{0, 0, 2, 2},
	}
	if diff := cmp.Diff(want, Dilate(r, se).Ints(0)); diff != "" {
		t.Errorf("Dilate mismatch (-want +got):\n%s", diff)
	}

	eroded := Erode(Dilate(r, se), se)
	assert.Equal(t, 5, eroded.Int(raster.Point{X: 1, Y: 1}, 0))
	assert.Equal(t, 0, eroded.Int(raster.Point{X: 3, Y: 0}, 0))
}

func TestDilateSkipsAbsentPixels(t *testing.T) {
	se, _ := structel.Cross(1)
	r := mustInts(t, [][]int{{9, 0, 0}})
	r.SetPresent(raster.Point{X: 0}, false)

	got := Dilate(r, se)
	assert.Equal(t, []int{9, 0, 0}, got.Ints(0)[0], "absent source must not spread")
}

func TestDilateAsymmetric(t *testing.T) {
	// Window {p, p+(1,0)} pulls values leftwards.
	se, _ := structel.Line(1, 0, 2)
	r := mustInts(t, [][]int{{0, 0, 7, 0}})
	assert.Equal(t, []int{0, 7, 7, 0}, Dilate(r, se).Ints(0)[0])
}

func TestDilateVector(t *testing.T) {
	se, _ := structel.Cross(1)
	r, err := raster.New(raster.Int, raster.Size{3, 1, 1, 1, 2})
	require.NoError(t, err)
	r.SetVectorAt(0, []float64{1, 9})
	r.SetVectorAt(1, []float64{2, 0})
	r.SetVectorAt(2, []float64{0, 0})

	got := DilateVector(r, se, ordering.Lexicographic{})
	assert.Equal(t, []float64{2, 0}, got.Vector(raster.Point{X: 0}))
	assert.Equal(t, []float64{2, 0}, got.Vector(raster.Point{X: 1}))
	assert.Equal(t, []float64{2, 0}, got.Vector(raster.Point{X: 2}))
}

func TestInfimum(t *testing.T) {
	a := mustInts(t, [][]int{{1, 5}, {3, 0}})
	b := mustInts(t, [][]int{{2, 4}, {3, 1}})
	got, err := Infimum(a, b)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1, 4}, {3, 0}}, got.Ints(0))

	c := mustInts(t, [][]int{{1}})
	_, err = Infimum(a, c)
	assert.True(t, errors.Is(err, raster.ErrSizeMismatch))
}

func TestInfimumVector(t *testing.T) {
	a, _ := raster.New(raster.Int, raster.Size{1, 1, 1, 1, 2})
	b, _ := raster.New(raster.Int, raster.Size{1, 1, 1, 1, 2})
	a.SetVectorAt(0, []float64{1, 9})
	b.SetVectorAt(0, []float64{2, 0})
	got, err := InfimumVector(a, b, ordering.Lexicographic{})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 9}, got.Vector(raster.Point{}))
}

func TestGradient(t *testing.T) {
	se, _ := structel.Cross(1)
	r := mustInts(t, [][]int{
		{10, 10, 10},
		{10, 40, 10},
		{10, 10, 10},
	})

	full, err := Gradient(r, se, nil)
	require.NoError(t, err)
	want := [][]int{
		{0, 30, 0},
		{30, 30, 30},
		{0, 30, 0},
	}
	if diff := cmp.Diff(want, full.Ints(0)); diff != "" {
		t.Errorf("Gradient mismatch (-want +got):\n%s", diff)
	}

	region, _ := raster.FromBools([][]bool{
		{false, false, false},
		{false, true, false},
		{false, false, false},
	})
	part, err := Gradient(r, se, region)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 0, 0}, {0, 30, 0}, {0, 0, 0}}, part.Ints(0))

	small, _ := raster.NewBool(2, 2)
	_, err = Gradient(r, se, small)
	assert.True(t, errors.Is(err, raster.ErrSizeMismatch))
}

func TestGradientMultiBand(t *testing.T) {
	se, _ := structel.Square(1)
	r, _ := raster.New(raster.Int, raster.Size{2, 1, 1, 1, 2})
	r.SetVectorAt(0, []float64{0, 100})
	r.SetVectorAt(1, []float64{20, 0})
	g, err := Gradient(r, se, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{100, 100}}, g.Ints(0))
}
