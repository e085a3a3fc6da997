// Package morph implements the elementary morphological operators the
// engines build on: dilation and erosion by a structuring element,
// pointwise infimum, and the morphological gradient.
//
// The window of a pixel p under an element is {p + o} for every offset o,
// clipped to the raster bounds and to present pixels. A pixel whose window
// is empty keeps its value.
package morph

import (
	"fmt"
	"math"

	"morphoseg/pkg/ordering"
	"morphoseg/pkg/raster"
	"morphoseg/pkg/structel"
)

// Window calls fn with the linear index of every present pixel in the
// window of the pixel at index i.
func Window(r *raster.Raster, i int, offsets []raster.Point, fn func(j int)) {
	p := r.PointAt(i)
	for _, o := range offsets {
		q := p.Add(o)
		if !r.Contains(q) {
			continue
		}
		j := r.Index(q)
		if r.PresentAt(j) {
			fn(j)
		}
	}
}

// Dilate returns the per-band maximum over each pixel's window.
func Dilate(r *raster.Raster, se *structel.Element) *raster.Raster {
	return rankFilter(r, se, math.Max)
}

// Erode returns the per-band minimum over each pixel's window.
func Erode(r *raster.Raster, se *structel.Element) *raster.Raster {
	return rankFilter(r, se, math.Min)
}

func rankFilter(r *raster.Raster, se *structel.Element, pick func(a, b float64) float64) *raster.Raster {
	out := r.Clone()
	offsets := se.Offsets()
	for i := 0; i < r.Len(); i++ {
		if !r.PresentAt(i) {
			continue
		}
		for b := 0; b < r.Bands(); b++ {
			acc, seen := 0.0, false
			Window(r, i, offsets, func(j int) {
				v := r.At(j, b)
				if !seen {
					acc, seen = v, true
					return
				}
				acc = pick(acc, v)
			})
			if seen {
				out.SetAt(i, b, acc)
			}
		}
	}
	return out
}

// DilateVector returns, for each pixel, the greatest vector of its window
// under ord.
func DilateVector(r *raster.Raster, se *structel.Element, ord ordering.Ordering) *raster.Raster {
	out := r.Clone()
	offsets := se.Offsets()
	set := make([][]float64, 0, len(offsets))
	for i := 0; i < r.Len(); i++ {
		if !r.PresentAt(i) {
			continue
		}
		set = set[:0]
		Window(r, i, offsets, func(j int) {
			set = append(set, r.VectorAt(j))
		})
		if len(set) > 0 {
			out.SetVectorAt(i, ord.Max(set))
		}
	}
	return out
}

// Infimum returns the per-band pointwise minimum of a and b. The result
// takes the kind and presence of a.
func Infimum(a, b *raster.Raster) (*raster.Raster, error) {
	if err := sameSize(a, b); err != nil {
		return nil, err
	}
	out := a.Clone()
	for i := 0; i < a.Len(); i++ {
		for k := 0; k < a.Bands(); k++ {
			out.SetAt(i, k, math.Min(a.At(i, k), b.At(i, k)))
		}
	}
	return out, nil
}

// InfimumVector returns the pointwise minimum of a and b under ord.
func InfimumVector(a, b *raster.Raster, ord ordering.Ordering) (*raster.Raster, error) {
	if err := sameSize(a, b); err != nil {
		return nil, err
	}
	out := a.Clone()
	for i := 0; i < a.Len(); i++ {
		out.SetVectorAt(i, ordering.Min2(ord, a.VectorAt(i), b.VectorAt(i)))
	}
	return out, nil
}

// Gradient returns the morphological gradient (dilation minus erosion) of
// r, taking the largest value over the bands. Only pixels where region is
// set are computed; the others are left 0. A nil region computes every
// pixel. The result is a single-band integer raster.
func Gradient(r *raster.Raster, se *structel.Element, region *raster.Raster) (*raster.Raster, error) {
	if region != nil && !r.SameExtent(region) {
		return nil, fmt.Errorf("%w: raster %v, region %v", raster.ErrSizeMismatch, r.Size(), region.Size())
	}
	out, err := raster.NewLike(r, raster.Int, 1)
	if err != nil {
		return nil, err
	}
	offsets := se.WithOrigin().Offsets()
	for i := 0; i < r.Len(); i++ {
		if !r.PresentAt(i) || (region != nil && region.At(i, 0) == 0) {
			continue
		}
		best := 0.0
		for b := 0; b < r.Bands(); b++ {
			lo, hi := math.Inf(1), math.Inf(-1)
			Window(r, i, offsets, func(j int) {
				v := r.At(j, b)
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			})
			best = math.Max(best, hi-lo)
		}
		out.SetAt(i, 0, best)
	}
	return out, nil
}

func sameSize(a, b *raster.Raster) error {
	if a.Size() != b.Size() {
		return fmt.Errorf("%w: %v vs %v", raster.ErrSizeMismatch, a.Size(), b.Size())
	}
	return nil
}
