package raster

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewRejectsEmptyAxes(t *testing.T) {
	_, err := New(Int, Size{3, 0, 1, 1, 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSize))

	r, err := New(Float, Size{2, 3, 4, 5, 2})
	require.NoError(t, err)
	assert.Equal(t, 2*3*4*5, r.Len())
	assert.Equal(t, 2, r.Bands())
}

func TestIndexRoundTrip(t *testing.T) {
	r, err := New(Int, Size{3, 4, 2, 2, 1})
	require.NoError(t, err)

	for i := 0; i < r.Len(); i++ {
		p := r.PointAt(i)
		require.True(t, r.Contains(p), "point %v out of bounds", p)
		assert.Equal(t, i, r.Index(p))
	}
	assert.Equal(t, 1, r.Index(Point{X: 1}))
	assert.Equal(t, 3, r.Index(Point{Y: 1}))
	assert.Equal(t, 12, r.Index(Point{Z: 1}))
	assert.Equal(t, 24, r.Index(Point{T: 1}))
	assert.False(t, r.Contains(Point{X: -1}))
	assert.False(t, r.Contains(Point{X: 3}))
}

func TestQuantization(t *testing.T) {
	b, _ := NewBool(2, 1)
	b.SetFloat(Point{}, 0, 0.3)
	assert.True(t, b.Bool(Point{}, 0))
	assert.Equal(t, 1.0, b.Float(Point{}, 0))

	i, _ := NewInt(2, 1)
	i.SetFloat(Point{X: 1}, 0, 2.6)
	assert.Equal(t, 3, i.Int(Point{X: 1}, 0))

	f, _ := NewFloat(2, 1)
	f.SetFloat(Point{}, 0, 2.6)
	assert.Equal(t, 2.6, f.Float(Point{}, 0))
}

func TestVectorAccess(t *testing.T) {
	r, err := New(Float, Size{2, 2, 1, 1, 3})
	require.NoError(t, err)

	p := Point{X: 1, Y: 1}
	r.SetVector(p, []float64{1, 2, 3})
	v := r.Vector(p)
	assert.Equal(t, []float64{1, 2, 3}, v)

	// Vector returns a copy.
	v[0] = 9
	assert.Equal(t, 1.0, r.Float(p, 0))

	// VectorAt aliases storage.
	r.VectorAt(r.Index(p))[2] = 7
	assert.Equal(t, 7.0, r.Float(p, 2))
}

func TestPresence(t *testing.T) {
	r, _ := NewBool(3, 3)
	assert.False(t, r.HasPresence())
	assert.True(t, r.Present(Point{X: 1, Y: 1}))
	assert.False(t, r.Present(Point{X: 3}))

	r.SetPresent(Point{X: 1, Y: 1}, true)
	assert.False(t, r.HasPresence(), "marking present should not allocate a mask")

	r.SetPresent(Point{X: 1, Y: 1}, false)
	assert.True(t, r.HasPresence())
	assert.False(t, r.Present(Point{X: 1, Y: 1}))

	// Absent pixels are still accessible.
	r.SetBool(Point{X: 1, Y: 1}, 0, true)
	assert.True(t, r.Bool(Point{X: 1, Y: 1}, 0))

	c := r.Clone()
	assert.True(t, c.Equal(r))
	c.SetPresent(Point{X: 1, Y: 1}, true)
	assert.False(t, c.Equal(r))
}

func TestCopyPresenceSizeMismatch(t *testing.T) {
	a, _ := NewBool(3, 3)
	b, _ := NewBool(3, 4)
	err := a.CopyPresence(b)
	assert.True(t, errors.Is(err, ErrSizeMismatch))
}

func TestEqualAndClone(t *testing.T) {
	a, err := FromInts([][]int{{1, 2}, {3, 4}})
	require.NoError(t, err)
	b := a.Clone()
	assert.True(t, a.Equal(b))

	b.SetInt(Point{X: 1, Y: 1}, 0, 5)
	assert.False(t, a.Equal(b))
	assert.Equal(t, 4, a.Int(Point{X: 1, Y: 1}, 0))

	c, _ := FromBools([][]bool{{true, true}, {true, true}})
	assert.False(t, a.Equal(c), "kinds differ")
}

func TestFromIntsRejectsRaggedRows(t *testing.T) {
	_, err := FromInts([][]int{{1, 2}, {3}})
	assert.True(t, errors.Is(err, ErrInvalidSize))

	_, err = FromBools(nil)
	assert.True(t, errors.Is(err, ErrInvalidSize))
}

func TestDenseRoundTrip(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{
		0, 1, 2,
		3, 4, 5,
	})
	r, err := FromDense(m, Int)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Width())
	assert.Equal(t, 2, r.Height())
	assert.Equal(t, 5, r.Int(Point{X: 2, Y: 1}, 0))

	back, err := r.Plane(0, 0, 0)
	require.NoError(t, err)
	assert.True(t, mat.Equal(m, back))

	_, err = r.Plane(1, 0, 0)
	assert.Error(t, err)
}

func TestImageConversion(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		img.SetGray(x, 1, color.Gray{Y: uint8(60 * x)})
	}

	r, err := FromImage(img)
	require.NoError(t, err)
	want := [][]int{{0, 0, 0, 0}, {0, 60, 120, 180}}
	if diff := cmp.Diff(want, r.Ints(0)); diff != "" {
		t.Errorf("FromImage mismatch (-want +got):\n%s", diff)
	}

	out := r.ToGray(0)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestImageRGB(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	r, err := FromImageRGB(img)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30}, r.Vector(Point{}))
}

func TestMaxAndCount(t *testing.T) {
	r, _ := FromInts([][]int{{1, 7}, {0, 3}})
	m, ok := r.Max(0)
	require.True(t, ok)
	assert.Equal(t, 7.0, m)

	r.SetPresent(Point{X: 1}, false)
	m, _ = r.Max(0)
	assert.Equal(t, 3.0, m)
	assert.Equal(t, 2, r.Count(0))
}
