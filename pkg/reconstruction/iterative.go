package reconstruction

import (
	"morphoseg/pkg/morph"
	"morphoseg/pkg/ordering"
	"morphoseg/pkg/raster"
)

// IterativeBinary computes the same result as Binary by alternating
// dilation and clipping to the mask until two iterates are equal. It is
// slow and serves as a reference.
func (r *Reconstructor) IterativeBinary(marker, mask *raster.Raster) (*raster.Raster, error) {
	if err := checkPair(marker, mask); err != nil {
		return nil, err
	}
	cur, err := start(marker, mask, raster.Bool)
	if err != nil {
		return nil, err
	}
	boolMask := mask.Clone()
	for i := 0; i < cur.Len(); i++ {
		for b := 0; b < cur.Bands(); b++ {
			on := marker.At(i, b) != 0 && mask.At(i, b) != 0
			if on {
				cur.SetAt(i, b, 1)
			}
			if mask.At(i, b) != 0 {
				boolMask.SetAt(i, b, 1)
			} else {
				boolMask.SetAt(i, b, 0)
			}
		}
	}
	for {
		next, err := morph.Infimum(morph.Dilate(cur, r.element), boolMask)
		if err != nil {
			return nil, err
		}
		if next.Equal(cur) {
			return cur, nil
		}
		cur = next
	}
}

// IterativeVector is the reference counterpart of Vector.
func (r *Reconstructor) IterativeVector(marker, mask *raster.Raster, ord ordering.Ordering) (*raster.Raster, error) {
	if err := checkPair(marker, mask); err != nil {
		return nil, err
	}
	cur, err := start(marker, mask, mask.Kind())
	if err != nil {
		return nil, err
	}
	for i := 0; i < cur.Len(); i++ {
		cur.SetVectorAt(i, ordering.Min2(ord, marker.VectorAt(i), mask.VectorAt(i)))
	}
	for {
		next, err := morph.InfimumVector(morph.DilateVector(cur, r.element, ord), mask, ord)
		if err != nil {
			return nil, err
		}
		if next.Equal(cur) {
			return cur, nil
		}
		cur = next
	}
}
