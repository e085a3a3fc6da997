// Package spectral smooths rasters in the frequency domain. Flooding a raw
// gradient of a noisy frame over-segments it into one basin per noise
// minimum; a Gaussian low-pass before the gradient merges them.
package spectral

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"morphoseg/pkg/raster"
)

// ErrInvalidSigma is returned for negative or non-finite widths.
var ErrInvalidSigma = errors.New("spectral: sigma must be finite and >= 0")

// Lowpass is a Gaussian low-pass filter applied to each XY plane and band.
// The plane is treated as periodic, so content near one edge bleeds into
// the opposite edge by about Sigma pixels.
type Lowpass struct {
	// Sigma is the spatial standard deviation in pixels. Zero disables
	// the filter.
	Sigma float64

	rows, cols *fourier.CmplxFFT
}

// NewLowpass returns a filter with the given spatial width.
func NewLowpass(sigma float64) (*Lowpass, error) {
	if sigma < 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSigma, sigma)
	}
	return &Lowpass{Sigma: sigma}, nil
}

// Smooth returns a filtered copy of r with the same kind, size and
// presence. Absent pixels take part in the transform with their stored
// value but are left untouched in the result.
func (l *Lowpass) Smooth(r *raster.Raster) *raster.Raster {
	out := r.Clone()
	if l.Sigma == 0 {
		return out
	}

	w, h := r.Width(), r.Height()
	if l.cols == nil || l.cols.Len() != w {
		l.cols = fourier.NewCmplxFFT(w)
	}
	if l.rows == nil || l.rows.Len() != h {
		l.rows = fourier.NewCmplxFFT(h)
	}
	gain := l.transfer(w, h)

	size := r.Size()
	plane := make([]complex128, w*h)
	row := make([]complex128, w)
	col := make([]complex128, h)
	for t := 0; t < size[raster.T]; t++ {
		for z := 0; z < size[raster.Z]; z++ {
			base := r.Index(raster.Point{Z: z, T: t})
			for b := 0; b < r.Bands(); b++ {
				for i := range plane {
					plane[i] = complex(r.At(base+i, b), 0)
				}

				l.transform2D(plane, row, col, false)
				for i := range plane {
					plane[i] *= complex(gain[i], 0)
				}
				l.transform2D(plane, row, col, true)

				// The inverse transforms are unnormalized.
				scale := 1 / float64(w*h)
				for i := range plane {
					if r.PresentAt(base + i) {
						out.SetAt(base+i, b, real(plane[i])*scale)
					}
				}
			}
		}
	}
	return out
}

// transfer returns the Gaussian frequency response over a w x h plane in
// raster order.
func (l *Lowpass) transfer(w, h int) []float64 {
	gain := make([]float64, w*h)
	c := -2 * math.Pi * math.Pi * l.Sigma * l.Sigma
	for v := 0; v < h; v++ {
		fv := signedFreq(v, h)
		for u := 0; u < w; u++ {
			fu := signedFreq(u, w)
			gain[v*w+u] = math.Exp(c * (fu*fu + fv*fv))
		}
	}
	return gain
}

// signedFreq maps coefficient k of an n-point transform to its frequency
// in cycles per pixel, in [-0.5, 0.5).
func signedFreq(k, n int) float64 {
	if k >= (n+1)/2 {
		k -= n
	}
	return float64(k) / float64(n)
}

func (l *Lowpass) transform2D(plane, row, col []complex128, inverse bool) {
	w, h := len(row), len(col)
	for y := 0; y < h; y++ {
		copy(row, plane[y*w:(y+1)*w])
		if inverse {
			l.cols.Sequence(row, row)
		} else {
			l.cols.Coefficients(row, row)
		}
		copy(plane[y*w:(y+1)*w], row)
	}
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = plane[y*w+x]
		}
		if inverse {
			l.rows.Sequence(col, col)
		} else {
			l.rows.Coefficients(col, col)
		}
		for y := 0; y < h; y++ {
			plane[y*w+x] = col[y]
		}
	}
}
