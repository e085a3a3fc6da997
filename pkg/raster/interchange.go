package raster

import (
	"fmt"
	"image"
	"image/color"

	"gonum.org/v1/gonum/mat"
)

// FromDense builds a single-plane, single-band raster from a gonum matrix.
// Rows map to Y and columns to X.
func FromDense(m *mat.Dense, kind Kind) (*Raster, error) {
	rows, cols := m.Dims()
	r, err := New(kind, Size{cols, rows, 1, 1, 1})
	if err != nil {
		return nil, err
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			r.SetAt(y*cols+x, 0, m.At(y, x))
		}
	}
	return r, nil
}

// Plane returns band b of the (z, t) plane as a gonum matrix with one row
// per Y coordinate.
func (r *Raster) Plane(z, t, b int) (*mat.Dense, error) {
	if z < 0 || z >= r.size[Z] || t < 0 || t >= r.size[T] || b < 0 || b >= r.size[B] {
		return nil, fmt.Errorf("plane z=%d t=%d b=%d outside %v", z, t, b, r.size)
	}
	w, h := r.size[X], r.size[Y]
	m := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(y, x, r.At(r.Index(Point{X: x, Y: y, Z: z, T: t}), b))
		}
	}
	return m, nil
}

// FromImage converts an image to an 8-bit grey integer raster.
func FromImage(img image.Image) (*Raster, error) {
	bounds := img.Bounds()
	r, err := NewInt(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			g := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			r.SetAt(y*bounds.Dx()+x, 0, float64(g.Y))
		}
	}
	return r, nil
}

// FromImageRGB converts an image to a three-band integer raster (R, G, B
// in 0..255), suitable for vector reconstruction.
func FromImageRGB(img image.Image) (*Raster, error) {
	bounds := img.Bounds()
	r, err := New(Int, Size{bounds.Dx(), bounds.Dy(), 1, 1, 3})
	if err != nil {
		return nil, err
	}
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			c := color.RGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.RGBA)
			r.SetVectorAt(y*bounds.Dx()+x, []float64{float64(c.R), float64(c.G), float64(c.B)})
		}
	}
	return r, nil
}

// ToGray renders band b of the first plane as an 8-bit grey image,
// clamping values to 0..255.
func (r *Raster) ToGray(b int) *image.Gray {
	w, h := r.size[X], r.size[Y]
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := r.At(y*w+x, b)
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			img.SetGray(x, y, color.Gray{Y: uint8(v)})
		}
	}
	return img
}

// FromInts builds an integer raster from rows of values, one row per Y
// coordinate. All rows must have the same length.
func FromInts(rows [][]int) (*Raster, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidSize)
	}
	r, err := NewInt(len(rows[0]), len(rows))
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != r.Width() {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrInvalidSize, y, len(row), r.Width())
		}
		for x, v := range row {
			r.SetAt(y*r.Width()+x, 0, float64(v))
		}
	}
	return r, nil
}

// FromBools builds a boolean raster from rows of values.
func FromBools(rows [][]bool) (*Raster, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidSize)
	}
	r, err := NewBool(len(rows[0]), len(rows))
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != r.Width() {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrInvalidSize, y, len(row), r.Width())
		}
		for x, v := range row {
			if v {
				r.SetAt(y*r.Width()+x, 0, 1)
			}
		}
	}
	return r, nil
}

// Ints returns band b of the first plane as rows of integers.
func (r *Raster) Ints(b int) [][]int {
	w, h := r.size[X], r.size[Y]
	rows := make([][]int, h)
	for y := range rows {
		rows[y] = make([]int, w)
		for x := range rows[y] {
			rows[y][x] = int(r.At(y*w+x, b))
		}
	}
	return rows
}
