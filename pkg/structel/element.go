// Package structel provides structuring elements: finite neighbourhood
// shapes with an anchor, shared read-only by the morphological operators
// and the propagation engines.
package structel

import (
	"errors"
	"fmt"

	"morphoseg/pkg/raster"
)

var (
	// ErrEmptyElement is returned when an element has no offsets.
	ErrEmptyElement = errors.New("structel: element has no offsets")

	// ErrInvalidConnectivity is returned for connectivities other than 4 or 8.
	ErrInvalidConnectivity = errors.New("structel: connectivity must be 4 or 8")

	// ErrInvalidRadius is returned for non-positive shape radii.
	ErrInvalidRadius = errors.New("structel: radius must be positive")
)

// Element is an immutable set of integer offsets with a designated anchor.
type Element struct {
	offsets []raster.Point
	anchor  raster.Point
}

// New creates an element from raw offsets and an anchor. Offsets are
// stored relative to the anchor and de-duplicated, preserving the order of
// first appearance.
func New(offsets []raster.Point, anchor raster.Point) (*Element, error) {
	if len(offsets) == 0 {
		return nil, ErrEmptyElement
	}
	seen := make(map[raster.Point]bool, len(offsets))
	e := &Element{anchor: anchor}
	for _, o := range offsets {
		rel := o.Sub(anchor)
		if seen[rel] {
			continue
		}
		seen[rel] = true
		e.offsets = append(e.offsets, rel)
	}
	return e, nil
}

// Offsets returns the offsets relative to the anchor.
func (e *Element) Offsets() []raster.Point {
	return append([]raster.Point(nil), e.offsets...)
}

// Neighbors returns the offsets relative to the anchor, without the origin.
func (e *Element) Neighbors() []raster.Point {
	out := make([]raster.Point, 0, len(e.offsets))
	for _, o := range e.offsets {
		if !o.IsZero() {
			out = append(out, o)
		}
	}
	return out
}

// Anchor returns the anchor in the coordinates the element was built with.
func (e *Element) Anchor() raster.Point {
	return e.anchor
}

// Len returns the number of distinct offsets.
func (e *Element) Len() int {
	return len(e.offsets)
}

// Reflect returns the element mirrored through its anchor.
func (e *Element) Reflect() *Element {
	r := &Element{anchor: e.anchor, offsets: make([]raster.Point, len(e.offsets))}
	for i, o := range e.offsets {
		r.offsets[i] = o.Neg()
	}
	return r
}

// WithOrigin returns e when it already contains the origin, and otherwise
// a copy with the origin prepended. Dilation by the result is extensive.
func (e *Element) WithOrigin() *Element {
	for _, o := range e.offsets {
		if o.IsZero() {
			return e
		}
	}
	w := &Element{anchor: e.anchor, offsets: make([]raster.Point, 0, len(e.offsets)+1)}
	w.offsets = append(w.offsets, raster.Point{})
	w.offsets = append(w.offsets, e.offsets...)
	return w
}

// IsSymmetric reports whether the element equals its reflection.
func (e *Element) IsSymmetric() bool {
	set := make(map[raster.Point]bool, len(e.offsets))
	for _, o := range e.offsets {
		set[o] = true
	}
	for _, o := range e.offsets {
		if !set[o.Neg()] {
			return false
		}
	}
	return true
}

func (e *Element) String() string {
	return fmt.Sprintf("structel(%d offsets, anchor %v)", len(e.offsets), e.anchor)
}

// Square returns the (2r+1)x(2r+1) square in the XY plane, origin
// included. Square(1) is the 8-neighbourhood.
func Square(r int) (*Element, error) {
	if r < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRadius, r)
	}
	var offs []raster.Point
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			offs = append(offs, raster.Point{X: dx, Y: dy})
		}
	}
	return New(offs, raster.Point{})
}

// Cross returns the city-block ball of radius r in the XY plane. Cross(1)
// is the 4-neighbourhood.
func Cross(r int) (*Element, error) {
	if r < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRadius, r)
	}
	var offs []raster.Point
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if abs(dx)+abs(dy) <= r {
				offs = append(offs, raster.Point{X: dx, Y: dy})
			}
		}
	}
	return New(offs, raster.Point{})
}

// Disk returns the Euclidean disk of radius r in the XY plane.
func Disk(r int) (*Element, error) {
	if r < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRadius, r)
	}
	var offs []raster.Point
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				offs = append(offs, raster.Point{X: dx, Y: dy})
			}
		}
	}
	return New(offs, raster.Point{})
}

// Line returns n points starting at the origin and stepping by (dx, dy).
// The anchor is the first point, so the element is not symmetric.
func Line(dx, dy, n int) (*Element, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRadius, n)
	}
	offs := make([]raster.Point, n)
	for i := range offs {
		offs[i] = raster.Point{X: i * dx, Y: i * dy}
	}
	return New(offs, raster.Point{})
}

// ByName builds one of the named shapes: "square", "cross" or "disk".
func ByName(name string, r int) (*Element, error) {
	switch name {
	case "square":
		return Square(r)
	case "cross":
		return Cross(r)
	case "disk":
		return Disk(r)
	}
	return nil, fmt.Errorf("structel: unknown shape %q", name)
}

// Connectivity selects the 4- or 8-neighbourhood of the XY plane.
type Connectivity int

const (
	Four  Connectivity = 4
	Eight Connectivity = 8
)

// Validate reports ErrInvalidConnectivity for anything but Four or Eight.
func (c Connectivity) Validate() error {
	if c != Four && c != Eight {
		return fmt.Errorf("%w: got %d", ErrInvalidConnectivity, int(c))
	}
	return nil
}

// Element returns the unit element of the connectivity.
func (c Connectivity) Element() (*Element, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c == Four {
		return Cross(1)
	}
	return Square(1)
}

// Offsets returns the neighbour offsets of the connectivity in raster order.
// It panics on an invalid connectivity.
func (c Connectivity) Offsets() []raster.Point {
	e, err := c.Element()
	if err != nil {
		panic(err)
	}
	return e.Neighbors()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
