package predictive

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"morphoseg/pkg/raster"
)

// BlockStats summarizes one change detection pass.
type BlockStats struct {
	// Changed and Total count blocks; Total includes only covered blocks.
	Changed int
	Total   int

	// Mean and StdDev describe the per-block absolute difference sums.
	Mean   float64
	StdDev float64

	// Uncovered counts pixels that lie in no block.
	Uncovered int
}

// Fraction returns the share of covered blocks marked changed.
func (s BlockStats) Fraction() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Changed) / float64(s.Total)
}

// ChangeMask compares two frames block by block. Each XY plane is tiled
// with blockSize x blockSize blocks from its top-left corner; a block whose
// sum of absolute differences over all bands is at least threshold marks
// every one of its pixels in the returned Bool raster.
//
// Rows and columns past the last whole block are not covered by any block
// and are never marked, unless coverPartial is set, in which case the
// truncated border blocks are tested like the others.
//
// Parameters:
//   - prev, cur: frames with identical sizes
//   - blockSize: block edge in pixels, > 0
//   - threshold: change threshold, >= 0
//   - coverPartial: also test border blocks smaller than blockSize
//
// Returns:
//   - The change mask, the block statistics, or an error
func ChangeMask(prev, cur *raster.Raster, blockSize int, threshold float64, coverPartial bool) (*raster.Raster, BlockStats, error) {
	var stats BlockStats
	if prev == nil || cur == nil {
		return nil, stats, ErrNilFrame
	}
	if prev.Size() != cur.Size() {
		return nil, stats, fmt.Errorf("%w: %v vs %v", ErrSizeMismatch, prev.Size(), cur.Size())
	}
	if blockSize <= 0 {
		return nil, stats, fmt.Errorf("%w: block size %d", ErrInvalidParams, blockSize)
	}
	if threshold < 0 || math.IsNaN(threshold) {
		return nil, stats, fmt.Errorf("%w: block threshold %v", ErrInvalidParams, threshold)
	}

	mask, err := raster.NewLike(cur, raster.Bool, 1)
	if err != nil {
		return nil, stats, err
	}

	size := cur.Size()
	w, h := size[raster.X], size[raster.Y]
	nx, ny := w/blockSize, h/blockSize
	if coverPartial {
		nx, ny = (w+blockSize-1)/blockSize, (h+blockSize-1)/blockSize
	}
	coveredW, coveredH := min(w, nx*blockSize), min(h, ny*blockSize)
	planes := size[raster.Z] * size[raster.T]
	stats.Uncovered = planes * (w*h - coveredW*coveredH)

	sums := make([]float64, 0, planes*nx*ny)
	diffs := make([]float64, 0, blockSize*blockSize*cur.Bands())
	for t := 0; t < size[raster.T]; t++ {
		for z := 0; z < size[raster.Z]; z++ {
			for by := 0; by < ny; by++ {
				for bx := 0; bx < nx; bx++ {
					x0, y0 := bx*blockSize, by*blockSize
					x1, y1 := min(x0+blockSize, w), min(y0+blockSize, h)

					diffs = diffs[:0]
					for y := y0; y < y1; y++ {
						for x := x0; x < x1; x++ {
							i := cur.Index(raster.Point{X: x, Y: y, Z: z, T: t})
							if !cur.PresentAt(i) || !prev.PresentAt(i) {
								continue
							}
							for b := 0; b < cur.Bands(); b++ {
								diffs = append(diffs, math.Abs(cur.At(i, b)-prev.At(i, b)))
							}
						}
					}
					sum := floats.Sum(diffs)
					sums = append(sums, sum)
					if sum < threshold {
						continue
					}
					stats.Changed++
					for y := y0; y < y1; y++ {
						for x := x0; x < x1; x++ {
							mask.SetAt(mask.Index(raster.Point{X: x, Y: y, Z: z, T: t}), 0, 1)
						}
					}
				}
			}
		}
	}

	stats.Total = len(sums)
	switch len(sums) {
	case 0:
	case 1:
		stats.Mean = sums[0]
	default:
		stats.Mean, stats.StdDev = stat.MeanStdDev(sums, nil)
	}
	return mask, stats, nil
}
