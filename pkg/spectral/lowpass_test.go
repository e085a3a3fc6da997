package spectral

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"morphoseg/pkg/morph"
	"morphoseg/pkg/raster"
	"morphoseg/pkg/structel"
	"morphoseg/pkg/watershed"
)

func TestNewLowpassRejectsBadSigma(t *testing.T) {
	for _, sigma := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := NewLowpass(sigma)
		assert.True(t, errors.Is(err, ErrInvalidSigma), "sigma %v", sigma)
	}
}

func TestZeroSigmaIsIdentity(t *testing.T) {
	r, err := raster.FromInts([][]int{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)

	l, err := NewLowpass(0)
	require.NoError(t, err)
	out := l.Smooth(r)
	assert.True(t, r.Equal(out))
	assert.NotSame(t, r, out)
}

func TestImpulseResponse(t *testing.T) {
	r, err := raster.NewFloat(17, 12)
	require.NoError(t, err)
	centre := raster.Point{X: 8, Y: 6}
	r.SetFloat(centre, 0, 1)

	l, _ := NewLowpass(1.5)
	out := l.Smooth(r)

	assert.InDelta(t, 1, floats.Sum(out.Values(0)), 1e-9, "DC gain is one")
	peak := out.Float(centre, 0)
	for _, o := range []raster.Point{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}} {
		v := out.Float(centre.Add(o), 0)
		assert.Less(t, v, peak)
		assert.InDelta(t, out.Float(centre.Sub(o), 0), v, 1e-12, "symmetric around the impulse")
	}
	assert.Less(t, out.Float(centre.Add(raster.Point{X: 3}), 0), out.Float(centre.Add(raster.Point{X: 1}), 0))
}

func TestConstantPlaneIsUnchanged(t *testing.T) {
	r, err := raster.New(raster.Int, raster.Size{6, 5, 2, 1, 2})
	require.NoError(t, err)
	for i := 0; i < r.Len(); i++ {
		r.SetVectorAt(i, []float64{42, 7})
	}

	l, _ := NewLowpass(2)
	assert.True(t, r.Equal(l.Smooth(r)))
}

func TestAbsentPixelsAreLeftAlone(t *testing.T) {
	r, _ := raster.NewFloat(8, 8)
	r.SetFloat(raster.Point{X: 4, Y: 4}, 0, 100)
	absent := raster.Point{X: 5, Y: 4}
	r.SetPresent(absent, false)

	l, _ := NewLowpass(1)
	out := l.Smooth(r)
	assert.Zero(t, out.Float(absent, 0))
	assert.False(t, out.Present(absent))
	assert.Greater(t, out.Float(raster.Point{X: 3, Y: 4}, 0), 0.0)
}

func TestSmoothingReducesOversegmentation(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	r, _ := raster.NewInt(32, 32)
	for i := 0; i < r.Len(); i++ {
		r.SetAt(i, 0, float64(rng.Intn(50)))
	}
	se, _ := structel.Square(1)

	basins := func(img *raster.Raster) int {
		g, err := morph.Gradient(img, se, nil)
		require.NoError(t, err)
		labels, err := watershed.Flood(g)
		require.NoError(t, err)
		return watershed.Summarize(labels).Basins
	}

	l, _ := NewLowpass(2)
	smooth := l.Smooth(r)
	assert.Less(t, stat.Variance(smooth.Values(0), nil), stat.Variance(r.Values(0), nil))
	assert.Less(t, basins(smooth), basins(r))
}
