// Package watershed labels a gradient raster into catchment basins by
// immersion simulation (Vincent and Soille). Basins get labels 1..N and
// are separated by a one-pixel watershed line labelled 0.
//
// Flooding proceeds level by level in ascending gradient order. At each
// level the pixels next to already labelled ground are flooded breadth
// first, one geodesic distance round at a time; whatever remains unlabelled
// afterwards is a new local minimum and gets a fresh label.
package watershed

import (
	"errors"
	"fmt"
	"math"

	"morphoseg/pkg/fifo"
	"morphoseg/pkg/morph"
	"morphoseg/pkg/raster"
	"morphoseg/pkg/structel"
)

const (
	// Watershed is the label of pixels on the watershed line.
	Watershed = 0

	// MaxLevel is the largest accepted gradient value.
	MaxLevel = 65535
)

// Scratch states. Final states are Watershed or a positive label.
const (
	unvisited = -1
	queued    = -2
)

var (
	// ErrInvalidGradient is returned for gradients with negative,
	// fractional or too large values.
	ErrInvalidGradient = errors.New("watershed: invalid gradient")

	// ErrInvalidLabels is returned when a previous label raster holds
	// negative labels.
	ErrInvalidLabels = errors.New("watershed: invalid previous labels")

	// ErrNilRaster is returned when a required raster is nil.
	ErrNilRaster = errors.New("watershed: nil raster")

	// ErrSizeMismatch is returned when the region or previous labels do
	// not match the gradient extents.
	ErrSizeMismatch = fmt.Errorf("watershed: %w", raster.ErrSizeMismatch)
)

// Flooder floods gradients with a fixed neighbourhood. It keeps no state
// between calls.
type Flooder struct {
	conn    structel.Connectivity
	offsets []raster.Point
}

// NewFlooder returns a Flooder using the 4- or 8-neighbourhood.
func NewFlooder(conn structel.Connectivity) (*Flooder, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	return &Flooder{conn: conn, offsets: conn.Offsets()}, nil
}

// Connectivity returns the neighbourhood the flooder uses.
func (f *Flooder) Connectivity() structel.Connectivity {
	return f.conn
}

// Flood labels gradient from scratch using the 8-neighbourhood.
func Flood(gradient *raster.Raster) (*raster.Raster, error) {
	f, _ := NewFlooder(structel.Eight)
	return f.Flood(gradient)
}

// Flood labels band 0 of gradient from scratch.
//
// Parameters:
//   - gradient: integer values in 0..MaxLevel; absent pixels are skipped
//
// Returns:
//   - An Int label raster (0 = watershed line, 1..N = basins), or
//     ErrInvalidGradient
func (f *Flooder) Flood(gradient *raster.Raster) (*raster.Raster, error) {
	if gradient == nil {
		return nil, ErrNilRaster
	}
	return f.flood(gradient, nil, nil)
}

// FloodRegion floods only the pixels where region is set. Pixels outside
// the region keep their label from previous and act as already labelled
// ground; new basins are numbered after the largest label found outside
// the region.
func (f *Flooder) FloodRegion(gradient, region, previous *raster.Raster) (*raster.Raster, error) {
	if gradient == nil || region == nil || previous == nil {
		return nil, ErrNilRaster
	}
	if !gradient.SameExtent(region) {
		return nil, fmt.Errorf("%w: gradient %v, region %v", ErrSizeMismatch, gradient.Size(), region.Size())
	}
	if !gradient.SameExtent(previous) {
		return nil, fmt.Errorf("%w: gradient %v, previous %v", ErrSizeMismatch, gradient.Size(), previous.Size())
	}
	return f.flood(gradient, region, previous)
}

// floodState is the per-call scratch memory.
type floodState struct {
	grad    *raster.Raster
	offsets []raster.Point
	lab     []int
	dist    []int
}

func (s *floodState) neighbors(i int, fn func(j int)) {
	morph.Window(s.grad, i, s.offsets, fn)
}

func (f *Flooder) flood(grad, region, previous *raster.Raster) (*raster.Raster, error) {
	n := grad.Len()
	inRegion := func(i int) bool {
		return grad.PresentAt(i) && (region == nil || region.At(i, 0) != 0)
	}

	// Bucket the region by level; within a level, raster order.
	maxLevel := -1
	for i := 0; i < n; i++ {
		if !inRegion(i) {
			continue
		}
		v := grad.At(i, 0)
		if v < 0 || v > MaxLevel || v != math.Trunc(v) {
			return nil, fmt.Errorf("%w: value %v at %v", ErrInvalidGradient, v, grad.PointAt(i))
		}
		if int(v) > maxLevel {
			maxLevel = int(v)
		}
	}
	distro := make([][]int, maxLevel+1)
	for i := 0; i < n; i++ {
		if inRegion(i) {
			h := int(grad.At(i, 0))
			distro[h] = append(distro[h], i)
		}
	}

	s := &floodState{
		grad:    grad,
		offsets: f.offsets,
		lab:     make([]int, n),
		dist:    make([]int, n),
	}
	label := Watershed
	for i := 0; i < n; i++ {
		s.lab[i] = unvisited
		if region == nil || inRegion(i) || !grad.PresentAt(i) {
			continue
		}
		prev := int(previous.At(i, 0))
		if prev < 0 {
			return nil, fmt.Errorf("%w: label %d at %v", ErrInvalidLabels, prev, grad.PointAt(i))
		}
		s.lab[i] = prev
		if prev > label {
			label = prev
		}
	}

	for _, level := range distro {
		if len(level) == 0 {
			continue
		}
		s.propagate(level)
		label = s.discoverMinima(level, label)
	}

	out, err := raster.NewLike(grad, raster.Int, 1)
	if err != nil {
		return nil, err
	}
	for i, l := range s.lab {
		if l > 0 {
			out.SetAt(i, 0, float64(l))
		}
	}
	return out, nil
}

// propagate extends the existing basins into the pixels of one level, one
// geodesic distance round at a time.
func (s *floodState) propagate(level []int) {
	round := fifo.New()
	for _, p := range level {
		s.lab[p] = queued
		seeded := false
		s.neighbors(p, func(q int) {
			if s.lab[q] >= 0 {
				seeded = true
			}
		})
		if seeded {
			s.dist[p] = 1
			round.Push(p)
		}
	}

	for dist := 1; !round.Empty(); dist++ {
		next := fifo.New()
		for !round.Empty() {
			p := round.Pop()
			// inherited is set while p is on the line only because a
			// neighbour is; such a pixel still joins the next basin it sees.
			inherited := false
			s.neighbors(p, func(q int) {
				switch {
				case s.dist[q] < dist && s.lab[q] >= 0:
					if s.lab[q] > 0 {
						if s.lab[p] == queued || (s.lab[p] == Watershed && inherited) {
							s.lab[p] = s.lab[q]
						} else if s.lab[p] > 0 && s.lab[p] != s.lab[q] {
							s.lab[p] = Watershed
							inherited = false
						}
					} else if s.lab[p] == queued {
						s.lab[p] = Watershed
						inherited = true
					}
				case s.lab[q] == queued && s.dist[q] == 0:
					s.dist[q] = dist + 1
					next.Push(q)
				}
			})
		}
		round = next
	}
}

// discoverMinima gives a fresh label to every connected group of level
// pixels that propagation did not reach.
func (s *floodState) discoverMinima(level []int, label int) int {
	fill := fifo.New()
	for _, p := range level {
		s.dist[p] = 0
		if s.lab[p] != queued {
			continue
		}
		label++
		s.lab[p] = label
		fill.Push(p)
		for !fill.Empty() {
			r := fill.Pop()
			s.neighbors(r, func(q int) {
				if s.lab[q] == queued {
					s.lab[q] = label
					fill.Push(q)
				}
			})
		}
	}
	return label
}
