// Package tracking follows watershed basins from one label raster to the
// next by their centroids.
package tracking

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"morphoseg/pkg/raster"
)

// Centroid is the mean position of one basin.
type Centroid struct {
	Label   int
	X, Y, Z float64
	Area    int
}

// Compare implements the kdtree.Comparable interface
func (c Centroid) Compare(o kdtree.Comparable, d kdtree.Dim) float64 {
	q := o.(Centroid)
	switch d {
	case 0:
		return c.X - q.X
	case 1:
		return c.Y - q.Y
	case 2:
		return c.Z - q.Z
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (c Centroid) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two centroids
func (c Centroid) Distance(o kdtree.Comparable) float64 {
	q := o.(Centroid)
	dx, dy, dz := c.X-q.X, c.Y-q.Y, c.Z-q.Z
	return dx*dx + dy*dy + dz*dz
}

// Centroids is a collection of Centroid that satisfies kdtree.Interface
type Centroids []Centroid

func (c Centroids) Index(i int) kdtree.Comparable         { return c[i] }
func (c Centroids) Len() int                              { return len(c) }
func (c Centroids) Slice(start, end int) kdtree.Interface { return c[start:end] }

// Pivot implements the kdtree.Interface method
func (c Centroids) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(centroidPlane{Centroids: c, Dim: d}, kdtree.MedianOfRandoms(centroidPlane{Centroids: c, Dim: d}, 100))
}

// centroidPlane implements sort.Interface and kdtree.SortSlicer for Centroids
type centroidPlane struct {
	Centroids
	kdtree.Dim
}

func (p centroidPlane) Less(i, j int) bool {
	return p.Centroids[i].Compare(p.Centroids[j], p.Dim) < 0
}

func (p centroidPlane) Slice(start, end int) kdtree.SortSlicer {
	return centroidPlane{Centroids: p.Centroids[start:end], Dim: p.Dim}
}

func (p centroidPlane) Swap(i, j int) {
	p.Centroids[i], p.Centroids[j] = p.Centroids[j], p.Centroids[i]
}

// FindCentroids returns the centroid of every basin of a label raster,
// ordered by label. The watershed line and absent pixels are ignored.
func FindCentroids(labels *raster.Raster) Centroids {
	acc := make(map[int]*Centroid)
	for i := 0; i < labels.Len(); i++ {
		l := int(labels.At(i, 0))
		if l <= 0 || !labels.PresentAt(i) {
			continue
		}
		c, ok := acc[l]
		if !ok {
			c = &Centroid{Label: l}
			acc[l] = c
		}
		p := labels.PointAt(i)
		c.X += float64(p.X)
		c.Y += float64(p.Y)
		c.Z += float64(p.Z)
		c.Area++
	}

	out := make(Centroids, 0, len(acc))
	for _, c := range acc {
		n := float64(c.Area)
		c.X, c.Y, c.Z = c.X/n, c.Y/n, c.Z/n
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Match pairs a current basin with the previous basin whose centroid is
// nearest to its own.
type Match struct {
	Current  int
	Previous int
	Distance float64
}

// Tracker matches the basins of consecutive label rasters.
type Tracker struct {
	// MaxDistance is the largest centroid displacement, in pixels, that
	// still counts as the same basin.
	MaxDistance float64
}

// NewTracker returns a tracker accepting displacements up to maxDistance.
func NewTracker(maxDistance float64) (*Tracker, error) {
	if maxDistance < 0 || math.IsNaN(maxDistance) {
		return nil, fmt.Errorf("tracking: invalid max distance %v", maxDistance)
	}
	return &Tracker{MaxDistance: maxDistance}, nil
}

// Match returns, in current label order, every current basin whose nearest
// previous basin lies within MaxDistance. Several current basins may match
// the same previous one when a basin splits.
func (t *Tracker) Match(previous, current *raster.Raster) ([]Match, error) {
	if !previous.SameExtent(current) {
		return nil, fmt.Errorf("tracking: %w: %v vs %v", raster.ErrSizeMismatch, previous.Size(), current.Size())
	}

	prev := FindCentroids(previous)
	if len(prev) == 0 {
		return nil, nil
	}
	tree := kdtree.New(prev, true)

	limit := t.MaxDistance * t.MaxDistance
	var matches []Match
	for _, c := range FindCentroids(current) {
		nearest, d2 := tree.Nearest(c)
		if nearest == nil || d2 > limit {
			continue
		}
		matches = append(matches, Match{
			Current:  c.Label,
			Previous: nearest.(Centroid).Label,
			Distance: math.Sqrt(d2),
		})
	}
	return matches, nil
}
