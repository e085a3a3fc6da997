// Package raster provides the pixel grid shared by the reconstruction,
// flooding and predictive engines. A Raster has up to five axes (X, Y, Z,
// T and the band axis B), typed scalar access for boolean, integer and real
// pixels, vector access across the band axis, and an optional per-pixel
// presence mask.
package raster

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidSize is returned when an extent is not strictly positive.
	ErrInvalidSize = errors.New("raster: invalid size")

	// ErrSizeMismatch is returned when two rasters that must share their
	// extents do not.
	ErrSizeMismatch = errors.New("raster: size mismatch")
)

// Axis names one of the five raster axes.
type Axis int

const (
	X Axis = iota
	Y
	Z
	T
	B
)

// Size holds the extent of a raster along each Axis.
type Size [5]int

// Points returns the number of spatial points (every axis but B).
func (s Size) Points() int {
	return s[X] * s[Y] * s[Z] * s[T]
}

// Bands returns the length of the band axis.
func (s Size) Bands() int {
	return s[B]
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%dx%dx%dx%d", s[X], s[Y], s[Z], s[T], s[B])
}

func (s Size) validate() error {
	for a, n := range s {
		if n < 1 {
			return fmt.Errorf("%w: axis %d has extent %d", ErrInvalidSize, a, n)
		}
	}
	return nil
}

// Point is a spatial coordinate. Bands are addressed separately.
type Point struct {
	X, Y, Z, T int
}

// Add returns p translated by o.
func (p Point) Add(o Point) Point {
	return Point{p.X + o.X, p.Y + o.Y, p.Z + o.Z, p.T + o.T}
}

// Sub returns p translated by -o.
func (p Point) Sub(o Point) Point {
	return Point{p.X - o.X, p.Y - o.Y, p.Z - o.Z, p.T - o.T}
}

// Neg returns the point mirrored through the origin.
func (p Point) Neg() Point {
	return Point{-p.X, -p.Y, -p.Z, -p.T}
}

// IsZero reports whether p is the origin.
func (p Point) IsZero() bool {
	return p == Point{}
}

// Kind selects how values written to a raster are quantized.
type Kind int

const (
	// Bool rasters store 0 or 1.
	Bool Kind = iota
	// Int rasters store values rounded to the nearest integer.
	Int
	// Float rasters store values unchanged.
	Float
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Raster is a dense 5-axis pixel grid. Pixels are laid out in raster order
// (X fastest, then Y, Z and T) with the bands of one point stored together.
type Raster struct {
	kind    Kind
	size    Size
	data    []float64
	present []bool
}

// New allocates a zeroed raster of the given kind and size.
func New(kind Kind, size Size) (*Raster, error) {
	if err := size.validate(); err != nil {
		return nil, err
	}
	return &Raster{
		kind: kind,
		size: size,
		data: make([]float64, size.Points()*size.Bands()),
	}, nil
}

// NewBool returns a single-plane, single-band boolean raster.
func NewBool(width, height int) (*Raster, error) {
	return New(Bool, Size{width, height, 1, 1, 1})
}

// NewInt returns a single-plane, single-band integer raster.
func NewInt(width, height int) (*Raster, error) {
	return New(Int, Size{width, height, 1, 1, 1})
}

// NewFloat returns a single-plane, single-band real raster.
func NewFloat(width, height int) (*Raster, error) {
	return New(Float, Size{width, height, 1, 1, 1})
}

// NewLike allocates a zeroed raster with the extents and presence of r
// but the given kind and band count.
func NewLike(r *Raster, kind Kind, bands int) (*Raster, error) {
	size := r.size
	size[B] = bands
	out, err := New(kind, size)
	if err != nil {
		return nil, err
	}
	if r.present != nil {
		out.present = append([]bool(nil), r.present...)
	}
	return out, nil
}

// Kind returns the quantization kind of r.
func (r *Raster) Kind() Kind { return r.kind }

// Size returns the extents of r.
func (r *Raster) Size() Size { return r.size }

// Width returns the X extent.
func (r *Raster) Width() int { return r.size[X] }

// Height returns the Y extent.
func (r *Raster) Height() int { return r.size[Y] }

// Bands returns the B extent.
func (r *Raster) Bands() int { return r.size[B] }

// Len returns the number of spatial points.
func (r *Raster) Len() int { return r.size.Points() }

// Contains reports whether p lies inside the raster bounds.
func (r *Raster) Contains(p Point) bool {
	return p.X >= 0 && p.X < r.size[X] &&
		p.Y >= 0 && p.Y < r.size[Y] &&
		p.Z >= 0 && p.Z < r.size[Z] &&
		p.T >= 0 && p.T < r.size[T]
}

// Index returns the linear raster-order index of p. p must be inside the
// bounds.
func (r *Raster) Index(p Point) int {
	return p.X + r.size[X]*(p.Y+r.size[Y]*(p.Z+r.size[Z]*p.T))
}

// PointAt is the inverse of Index.
func (r *Raster) PointAt(i int) Point {
	var p Point
	p.X = i % r.size[X]
	i /= r.size[X]
	p.Y = i % r.size[Y]
	i /= r.size[Y]
	p.Z = i % r.size[Z]
	p.T = i / r.size[Z]
	return p
}

// SameExtent reports whether r and o have the same spatial extents. The
// band axis is not compared.
func (r *Raster) SameExtent(o *Raster) bool {
	return r.size[X] == o.size[X] && r.size[Y] == o.size[Y] &&
		r.size[Z] == o.size[Z] && r.size[T] == o.size[T]
}

func (r *Raster) quantize(v float64) float64 {
	switch r.kind {
	case Bool:
		if v != 0 {
			return 1
		}
		return 0
	case Int:
		return math.Round(v)
	}
	return v
}

// At returns band b of the pixel at linear index i.
func (r *Raster) At(i, b int) float64 {
	return r.data[i*r.size[B]+b]
}

// SetAt writes band b of the pixel at linear index i.
func (r *Raster) SetAt(i, b int, v float64) {
	r.data[i*r.size[B]+b] = r.quantize(v)
}

// Float returns band b of the pixel at p.
func (r *Raster) Float(p Point, b int) float64 {
	return r.At(r.Index(p), b)
}

// SetFloat writes band b of the pixel at p.
func (r *Raster) SetFloat(p Point, b int, v float64) {
	r.SetAt(r.Index(p), b, v)
}

// Int returns band b of the pixel at p as an integer.
func (r *Raster) Int(p Point, b int) int {
	return int(math.Round(r.Float(p, b)))
}

// SetInt writes band b of the pixel at p.
func (r *Raster) SetInt(p Point, b int, v int) {
	r.SetFloat(p, b, float64(v))
}

// Bool reports whether band b of the pixel at p is non-zero.
func (r *Raster) Bool(p Point, b int) bool {
	return r.Float(p, b) != 0
}

// SetBool writes band b of the pixel at p as 1 or 0.
func (r *Raster) SetBool(p Point, b int, v bool) {
	if v {
		r.SetFloat(p, b, 1)
		return
	}
	r.SetFloat(p, b, 0)
}

// VectorAt returns the bands of the pixel at linear index i. The returned
// slice aliases the raster storage; callers must not keep it across writes
// to the same pixel.
func (r *Raster) VectorAt(i int) []float64 {
	n := r.size[B]
	return r.data[i*n : (i+1)*n : (i+1)*n]
}

// SetVectorAt copies v into the bands of the pixel at linear index i.
func (r *Raster) SetVectorAt(i int, v []float64) {
	n := r.size[B]
	dst := r.data[i*n : (i+1)*n]
	for b := range dst {
		dst[b] = r.quantize(v[b])
	}
}

// Vector returns a copy of the bands of the pixel at p.
func (r *Raster) Vector(p Point) []float64 {
	return append([]float64(nil), r.VectorAt(r.Index(p))...)
}

// SetVector copies v into the bands of the pixel at p. len(v) must equal
// the band count.
func (r *Raster) SetVector(p Point, v []float64) {
	r.SetVectorAt(r.Index(p), v)
}

// HasPresence reports whether a presence mask has been attached.
func (r *Raster) HasPresence() bool {
	return r.present != nil
}

// PresentAt reports whether the pixel at linear index i is present.
func (r *Raster) PresentAt(i int) bool {
	return r.present == nil || r.present[i]
}

// Present reports whether the pixel at p is inside the bounds and present.
func (r *Raster) Present(p Point) bool {
	return r.Contains(p) && r.PresentAt(r.Index(p))
}

// SetPresent marks the pixel at p present or absent. The mask is allocated
// on the first call.
func (r *Raster) SetPresent(p Point, v bool) {
	if r.present == nil {
		if v {
			return
		}
		r.present = make([]bool, r.Len())
		for i := range r.present {
			r.present[i] = true
		}
	}
	r.present[r.Index(p)] = v
}

// CopyPresence replaces the presence mask of r with that of o. Both rasters
// must share their spatial extents.
func (r *Raster) CopyPresence(o *Raster) error {
	if !r.SameExtent(o) {
		return fmt.Errorf("%w: %v vs %v", ErrSizeMismatch, r.size, o.size)
	}
	if o.present == nil {
		r.present = nil
		return nil
	}
	r.present = append([]bool(nil), o.present...)
	return nil
}

// Clone returns a deep copy of r.
func (r *Raster) Clone() *Raster {
	c := &Raster{
		kind: r.kind,
		size: r.size,
		data: append([]float64(nil), r.data...),
	}
	if r.present != nil {
		c.present = append([]bool(nil), r.present...)
	}
	return c
}

// Equal reports whether r and o have the same kind, extents, values and
// presence. A missing presence mask equals an all-present one.
func (r *Raster) Equal(o *Raster) bool {
	if r.kind != o.kind || r.size != o.size {
		return false
	}
	for i, v := range r.data {
		if o.data[i] != v {
			return false
		}
	}
	for i := 0; i < r.Len(); i++ {
		if r.PresentAt(i) != o.PresentAt(i) {
			return false
		}
	}
	return true
}

// Max returns the largest value of band b over the present pixels, and
// false when no pixel is present.
func (r *Raster) Max(b int) (float64, bool) {
	best, found := math.Inf(-1), false
	for i := 0; i < r.Len(); i++ {
		if !r.PresentAt(i) {
			continue
		}
		if v := r.At(i, b); v > best {
			best = v
		}
		found = true
	}
	return best, found
}

// Values returns a copy of band b in raster order.
func (r *Raster) Values(b int) []float64 {
	out := make([]float64, r.Len())
	for i := range out {
		out[i] = r.At(i, b)
	}
	return out
}

// Count returns the number of present pixels whose band b is non-zero.
func (r *Raster) Count(b int) int {
	n := 0
	for i := 0; i < r.Len(); i++ {
		if r.PresentAt(i) && r.At(i, b) != 0 {
			n++
		}
	}
	return n
}
