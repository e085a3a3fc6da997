package watershed

import (
	"sort"

	"morphoseg/pkg/raster"
)

// Summary describes a label raster.
type Summary struct {
	// Basins is the number of distinct positive labels.
	Basins int

	// WatershedPixels counts present pixels on the watershed line.
	WatershedPixels int

	// Areas maps each basin label to its pixel count.
	Areas map[int]int
}

// Labels returns the basin labels in ascending order.
func (s Summary) Labels() []int {
	out := make([]int, 0, len(s.Areas))
	for l := range s.Areas {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

// Summarize counts basins and watershed pixels in labels.
func Summarize(labels *raster.Raster) Summary {
	s := Summary{Areas: make(map[int]int)}
	for i := 0; i < labels.Len(); i++ {
		if !labels.PresentAt(i) {
			continue
		}
		l := int(labels.At(i, 0))
		if l == Watershed {
			s.WatershedPixels++
			continue
		}
		s.Areas[l]++
	}
	s.Basins = len(s.Areas)
	return s
}

// Boundaries returns a boolean raster set on the watershed line.
func Boundaries(labels *raster.Raster) *raster.Raster {
	out, _ := raster.NewLike(labels, raster.Bool, 1)
	for i := 0; i < labels.Len(); i++ {
		if labels.PresentAt(i) && labels.At(i, 0) == Watershed {
			out.SetAt(i, 0, 1)
		}
	}
	return out
}

// Canonical renumbers basins 1..N in order of first appearance in raster
// order, leaving the watershed line at 0. Two label rasters describing the
// same partition have equal canonical forms.
func Canonical(labels *raster.Raster) *raster.Raster {
	out := labels.Clone()
	mapping := make(map[float64]float64)
	next := 1.0
	for i := 0; i < labels.Len(); i++ {
		l := labels.At(i, 0)
		if l == Watershed {
			continue
		}
		m, ok := mapping[l]
		if !ok {
			m = next
			mapping[l] = m
			next++
		}
		out.SetAt(i, 0, m)
	}
	return out
}
