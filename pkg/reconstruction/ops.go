package reconstruction

import (
	"morphoseg/pkg/raster"
)

// FillHoles sets every background region of mask that does not reach the
// XY border of its plane. The background is reconstructed from its border
// pixels; whatever the reconstruction misses is a hole.
func (r *Reconstructor) FillHoles(mask *raster.Raster) (*raster.Raster, error) {
	if mask == nil {
		return nil, ErrNilRaster
	}
	background := invert(mask)
	seeds := borderOf(background)
	reached, err := r.Binary(seeds, background)
	if err != nil {
		return nil, err
	}
	return invert(reached), nil
}

// RemoveBorderObjects clears every foreground component of mask that
// touches the XY border of its plane.
func (r *Reconstructor) RemoveBorderObjects(mask *raster.Raster) (*raster.Raster, error) {
	if mask == nil {
		return nil, ErrNilRaster
	}
	touching, err := r.Binary(borderOf(mask), mask)
	if err != nil {
		return nil, err
	}
	out := touching.Clone()
	for i := 0; i < out.Len(); i++ {
		for b := 0; b < out.Bands(); b++ {
			out.SetAt(i, b, boolTo(mask.At(i, b) != 0 && touching.At(i, b) == 0))
		}
	}
	return out, nil
}

func invert(r *raster.Raster) *raster.Raster {
	out, _ := raster.NewLike(r, raster.Bool, r.Bands())
	for i := 0; i < r.Len(); i++ {
		for b := 0; b < r.Bands(); b++ {
			out.SetAt(i, b, boolTo(r.At(i, b) == 0))
		}
	}
	return out
}

// borderOf keeps the foreground pixels lying on the first or last row or
// column of their plane.
func borderOf(r *raster.Raster) *raster.Raster {
	out, _ := raster.NewLike(r, raster.Bool, r.Bands())
	w, h := r.Width(), r.Height()
	for i := 0; i < r.Len(); i++ {
		p := r.PointAt(i)
		if p.X != 0 && p.Y != 0 && p.X != w-1 && p.Y != h-1 {
			continue
		}
		for b := 0; b < r.Bands(); b++ {
			if r.At(i, b) != 0 {
				out.SetAt(i, b, 1)
			}
		}
	}
	return out
}

func boolTo(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
