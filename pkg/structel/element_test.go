package structel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morphoseg/pkg/raster"
)

func TestShapes(t *testing.T) {
	tests := []struct {
		name      string
		build     func(int) (*Element, error)
		radius    int
		wantLen   int
		symmetric bool
	}{
		{"square1", Square, 1, 9, true},
		{"square2", Square, 2, 25, true},
		{"cross1", Cross, 1, 5, true},
		{"cross2", Cross, 2, 13, true},
		{"disk1", Disk, 1, 5, true},
		{"disk2", Disk, 2, 13, true},
		{"disk3", Disk, 3, 29, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := tt.build(tt.radius)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, e.Len())
			assert.Equal(t, tt.wantLen-1, len(e.Neighbors()))
			assert.Equal(t, tt.symmetric, e.IsSymmetric())
		})
	}
}

func TestInvalidRadius(t *testing.T) {
	for _, build := range []func(int) (*Element, error){Square, Cross, Disk} {
		_, err := build(0)
		assert.True(t, errors.Is(err, ErrInvalidRadius))
	}
	_, err := Line(1, 0, 0)
	assert.True(t, errors.Is(err, ErrInvalidRadius))
}

func TestNewRelativeToAnchor(t *testing.T) {
	offs := []raster.Point{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 1, Y: 1}}
	e, err := New(offs, raster.Point{X: 1, Y: 1})
	require.NoError(t, err)

	assert.Equal(t, []raster.Point{{}, {X: 1}}, e.Offsets())
	assert.Equal(t, []raster.Point{{X: 1}}, e.Neighbors())
	assert.Equal(t, raster.Point{X: 1, Y: 1}, e.Anchor())
	assert.False(t, e.IsSymmetric())

	r := e.Reflect()
	assert.Equal(t, []raster.Point{{}, {X: -1}}, r.Offsets())

	_, err = New(nil, raster.Point{})
	assert.True(t, errors.Is(err, ErrEmptyElement))
}

func TestLine(t *testing.T) {
	e, err := Line(1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []raster.Point{{}, {X: 1, Y: 2}, {X: 2, Y: 4}}, e.Offsets())
	assert.False(t, e.IsSymmetric())
}

func TestByName(t *testing.T) {
	e, err := ByName("cross", 1)
	require.NoError(t, err)
	assert.Equal(t, 5, e.Len())

	_, err = ByName("hexagon", 1)
	assert.Error(t, err)
}

func TestConnectivity(t *testing.T) {
	assert.NoError(t, Four.Validate())
	assert.NoError(t, Eight.Validate())
	err := Connectivity(6).Validate()
	assert.True(t, errors.Is(err, ErrInvalidConnectivity))

	assert.Equal(t, []raster.Point{{Y: -1}, {X: -1}, {X: 1}, {Y: 1}}, Four.Offsets())
	assert.Len(t, Eight.Offsets(), 8)
	assert.Panics(t, func() { Connectivity(0).Offsets() })
}
