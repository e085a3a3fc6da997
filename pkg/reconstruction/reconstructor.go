// Package reconstruction implements geodesic morphological reconstruction
// by dilation for binary and vector-valued rasters.
//
// The reconstruction of a marker under a mask is the least raster that
// contains marker AND mask, is contained in the mask, and is closed under
// dilation by the structuring element clipped to the mask. For binary
// rasters this is the union of the mask components that meet the marker.
package reconstruction

import (
	"errors"
	"fmt"

	"morphoseg/pkg/fifo"
	"morphoseg/pkg/morph"
	"morphoseg/pkg/ordering"
	"morphoseg/pkg/raster"
	"morphoseg/pkg/structel"
)

var (
	// ErrSizeMismatch is returned when marker and mask extents differ.
	ErrSizeMismatch = fmt.Errorf("reconstruction: marker and mask differ: %w", raster.ErrSizeMismatch)

	// ErrNilRaster is returned when marker or mask is nil.
	ErrNilRaster = errors.New("reconstruction: nil raster")
)

// Params holds the reconstruction neighbourhood.
type Params struct {
	// Element is the structuring element whose dilation the result is
	// closed under. When nil, the unit element of Connectivity is used.
	Element *structel.Element

	// Connectivity must be 4 or 8. It is validated even when Element is set.
	Connectivity structel.Connectivity
}

// Reconstructor runs geodesic reconstructions with a fixed neighbourhood.
// It holds no per-call state, so one Reconstructor may serve concurrent
// calls.
type Reconstructor struct {
	params *Params

	// element always contains the origin, for the iterative oracle.
	element *structel.Element

	// window holds the offsets o such that p+o feeds p; spread holds the
	// reflected offsets, i.e. the pixels p feeds.
	window []raster.Point
	spread []raster.Point
}

// NewReconstructor validates params and prepares the neighbourhood tables.
//
// Parameters:
//   - params: neighbourhood configuration; Connectivity must be 4 or 8
//
// Returns:
//   - A Reconstructor, or an error wrapping structel.ErrInvalidConnectivity
func NewReconstructor(params *Params) (*Reconstructor, error) {
	if params == nil {
		params = &Params{Connectivity: structel.Eight}
	}
	if err := params.Connectivity.Validate(); err != nil {
		return nil, err
	}
	se := params.Element
	if se == nil {
		var err error
		if se, err = params.Connectivity.Element(); err != nil {
			return nil, err
		}
	}
	return &Reconstructor{
		params:  params,
		element: se.WithOrigin(),
		window:  se.Neighbors(),
		spread:  se.Reflect().Neighbors(),
	}, nil
}

// Reconstruct is a one-shot binary reconstruction.
func Reconstruct(marker, mask *raster.Raster, se *structel.Element, conn structel.Connectivity) (*raster.Raster, error) {
	r, err := NewReconstructor(&Params{Element: se, Connectivity: conn})
	if err != nil {
		return nil, err
	}
	return r.Binary(marker, mask)
}

// ReconstructVector is a one-shot vector reconstruction.
func ReconstructVector(marker, mask *raster.Raster, se *structel.Element, conn structel.Connectivity, ord ordering.Ordering) (*raster.Raster, error) {
	r, err := NewReconstructor(&Params{Element: se, Connectivity: conn})
	if err != nil {
		return nil, err
	}
	return r.Vector(marker, mask, ord)
}

func checkPair(marker, mask *raster.Raster) error {
	if marker == nil || mask == nil {
		return ErrNilRaster
	}
	if marker.Size() != mask.Size() {
		return fmt.Errorf("%w: marker %v, mask %v", ErrSizeMismatch, marker.Size(), mask.Size())
	}
	return nil
}

// start allocates the output with the mask's presence narrowed by the
// marker's, so that absent pixels of either are never propagated through.
func start(marker, mask *raster.Raster, kind raster.Kind) (*raster.Raster, error) {
	out, err := raster.NewLike(mask, kind, mask.Bands())
	if err != nil {
		return nil, err
	}
	if marker.HasPresence() {
		for i := 0; i < marker.Len(); i++ {
			if !marker.PresentAt(i) {
				out.SetPresent(out.PointAt(i), false)
			}
		}
	}
	return out, nil
}

// Binary reconstructs a boolean marker under a boolean mask using the
// hybrid queue algorithm: every foreground pixel on the boundary of the
// marker seeds a FIFO queue, and the queue then grows the marker into the
// mask one neighbourhood at a time. Each band is processed independently;
// non-zero values are foreground.
//
// Marker pixels outside the mask are dropped, so the result is always
// contained in the mask.
//
// Parameters:
//   - marker: the seed raster
//   - mask: the raster bounding the growth; must have the marker's size
//
// Returns:
//   - A new Bool raster, or ErrSizeMismatch / ErrNilRaster
func (r *Reconstructor) Binary(marker, mask *raster.Raster) (*raster.Raster, error) {
	if err := checkPair(marker, mask); err != nil {
		return nil, err
	}
	out, err := start(marker, mask, raster.Bool)
	if err != nil {
		return nil, err
	}
	for b := 0; b < out.Bands(); b++ {
		r.binaryBand(marker, mask, out, b)
	}
	return out, nil
}

func (r *Reconstructor) binaryBand(marker, mask, out *raster.Raster, b int) {
	n := out.Len()

	// Step 1: output = marker AND mask.
	for i := 0; i < n; i++ {
		if marker.At(i, b) != 0 && mask.At(i, b) != 0 {
			out.SetAt(i, b, 1)
		}
	}

	// Step 2: seed the queue with foreground pixels that touch background.
	q := fifo.New()
	for i := 0; i < n; i++ {
		if !out.PresentAt(i) || out.At(i, b) == 0 {
			continue
		}
		boundary := false
		morph.Window(out, i, r.spread, func(j int) {
			if out.At(j, b) == 0 {
				boundary = true
			}
		})
		if boundary {
			q.Push(i)
		}
	}

	// Step 3: grow into the mask.
	for !q.Empty() {
		p := q.Pop()
		morph.Window(out, p, r.spread, func(j int) {
			if out.At(j, b) == 0 && mask.At(j, b) != 0 {
				out.SetAt(j, b, 1)
				q.Push(j)
			}
		})
	}
}

// Vector reconstructs a vector-valued marker under a vector-valued mask,
// with min and max taken from ord.
//
// A forward raster scan propagates the maximum over already visited
// neighbours, clipped by the mask; a backward scan does the same from the
// other side and seeds the queue with every pixel that can still raise a
// neighbour; the queue then propagates to stability.
//
// The result is only the least fixpoint when ord is vector-preserving
// (see ordering.VerifyPreserving). This is not checked here.
func (r *Reconstructor) Vector(marker, mask *raster.Raster, ord ordering.Ordering) (*raster.Raster, error) {
	if err := checkPair(marker, mask); err != nil {
		return nil, err
	}
	out, err := start(marker, mask, mask.Kind())
	if err != nil {
		return nil, err
	}
	n := out.Len()
	for i := 0; i < n; i++ {
		out.SetVectorAt(i, ordering.Min2(ord, marker.VectorAt(i), mask.VectorAt(i)))
	}

	set := make([][]float64, 0, len(r.window)+1)

	// Forward scan over causal neighbours.
	for i := 0; i < n; i++ {
		if !out.PresentAt(i) {
			continue
		}
		set = append(set[:0], out.VectorAt(i))
		morph.Window(out, i, r.window, func(j int) {
			if j < i {
				set = append(set, out.VectorAt(j))
			}
		})
		out.SetVectorAt(i, ordering.Min2(ord, ord.Max(set), mask.VectorAt(i)))
	}

	// Backward scan over anti-causal neighbours, seeding the queue.
	q := fifo.New()
	for i := n - 1; i >= 0; i-- {
		if !out.PresentAt(i) {
			continue
		}
		set = append(set[:0], out.VectorAt(i))
		morph.Window(out, i, r.window, func(j int) {
			if j > i {
				set = append(set, out.VectorAt(j))
			}
		})
		out.SetVectorAt(i, ordering.Min2(ord, ord.Max(set), mask.VectorAt(i)))

		seed := false
		morph.Window(out, i, r.spread, func(j int) {
			if j > i && ordering.Less(ord, out.VectorAt(j), out.VectorAt(i)) &&
				ordering.Less(ord, out.VectorAt(j), mask.VectorAt(j)) {
				seed = true
			}
		})
		if seed {
			q.Push(i)
		}
	}

	// Queue propagation.
	for !q.Empty() {
		p := q.Pop()
		morph.Window(out, p, r.spread, func(j int) {
			if ordering.Less(ord, out.VectorAt(j), out.VectorAt(p)) &&
				ordering.Less(ord, out.VectorAt(j), mask.VectorAt(j)) {
				out.SetVectorAt(j, ordering.Min2(ord, out.VectorAt(p), mask.VectorAt(j)))
				q.Push(j)
			}
		})
	}
	return out, nil
}
