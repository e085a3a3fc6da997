// Package predictive floods a sequence of frames, reusing the previous
// frame's gradient and labels wherever the frame did not change.
//
// The first frame is flooded in full. For each later frame a block change
// mask is computed against the previous raw frame; the gradient is
// recomputed and the watershed re-run only inside that mask, with the
// previous labels outside it acting as already flooded ground.
package predictive

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"morphoseg/internal/monitoring"
	"morphoseg/pkg/morph"
	"morphoseg/pkg/raster"
	"morphoseg/pkg/structel"
	"morphoseg/pkg/watershed"
)

var (
	// ErrInvalidParams is returned for a non-positive block size, a
	// negative threshold or a bad connectivity.
	ErrInvalidParams = errors.New("predictive: invalid parameters")

	// ErrSizeMismatch is returned when a frame differs in size from the
	// previous one.
	ErrSizeMismatch = fmt.Errorf("predictive: frame size changed: %w", raster.ErrSizeMismatch)

	// ErrNilFrame is returned for a nil frame.
	ErrNilFrame = errors.New("predictive: nil frame")

	// ErrSequenceConsumed is yielded when a FloodSequence is ranged over
	// a second time.
	ErrSequenceConsumed = errors.New("predictive: sequence already consumed")
)

// ProgressCallback reports per-frame progress: completed and total count
// the changed and covered blocks of the frame.
type ProgressCallback func(completed, total int, message string)

// Params configures a Predictor.
type Params struct {
	// BlockSize is the edge of the change detection blocks, in pixels.
	BlockSize int

	// BlockThreshold is the absolute difference sum at which a block
	// counts as changed. Zero marks every covered block.
	BlockThreshold float64

	// Element is the gradient structuring element. When nil, the unit
	// element of Connectivity is used.
	Element *structel.Element

	// Connectivity is the flooding neighbourhood, 4 or 8.
	Connectivity structel.Connectivity

	// CoverPartialBlocks also tests the truncated blocks on the right and
	// bottom borders when the frame size is not a multiple of BlockSize.
	CoverPartialBlocks bool
}

// DefaultParams returns 8-connected flooding with 8x8 blocks.
func DefaultParams() *Params {
	return &Params{
		BlockSize:      8,
		BlockThreshold: 64,
		Connectivity:   structel.Eight,
	}
}

// Validate checks the parameter ranges.
func (p *Params) Validate() error {
	if p.BlockSize <= 0 {
		return fmt.Errorf("%w: block size %d", ErrInvalidParams, p.BlockSize)
	}
	if p.BlockThreshold < 0 || math.IsNaN(p.BlockThreshold) {
		return fmt.Errorf("%w: block threshold %v", ErrInvalidParams, p.BlockThreshold)
	}
	if err := p.Connectivity.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return nil
}

// Result is the outcome for one frame.
type Result struct {
	// Index is the position of the frame in the sequence.
	Index int

	// Gradient and Labels are the frame's gradient and label rasters.
	Gradient *raster.Raster
	Labels   *raster.Raster

	// Changed is the change mask; nil for the first frame, which is
	// flooded in full.
	Changed *raster.Raster

	// Blocks summarizes change detection; zero for the first frame.
	Blocks BlockStats
}

// Predictor carries the state between frames. A Predictor is not safe for
// concurrent use.
type Predictor struct {
	params   Params
	element  *structel.Element
	flooder  *watershed.Flooder
	progress ProgressCallback

	index    int
	raw      *raster.Raster
	gradient *raster.Raster
	labels   *raster.Raster
}

// NewPredictor validates params and returns a Predictor waiting for its
// first frame.
func NewPredictor(params *Params) (*Predictor, error) {
	if params == nil {
		params = DefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	se := params.Element
	if se == nil {
		var err error
		if se, err = params.Connectivity.Element(); err != nil {
			return nil, err
		}
	}
	f, err := watershed.NewFlooder(params.Connectivity)
	if err != nil {
		return nil, err
	}
	return &Predictor{params: *params, element: se, flooder: f}, nil
}

// SetProgressCallback installs a per-frame progress callback. Without one,
// progress goes to the diagnostic logger.
func (p *Predictor) SetProgressCallback(callback ProgressCallback) {
	p.progress = callback
}

func (p *Predictor) reportProgress(completed, total int, message string) {
	if p.progress != nil {
		p.progress(completed, total, message)
		return
	}
	if total == 0 {
		monitoring.Logf("%s", message)
		return
	}
	monitoring.Logf("%s (%d/%d blocks changed)", message, completed, total)
}

// Step floods the next frame. On error the predictor state is unchanged,
// so the caller may retry with another frame.
func (p *Predictor) Step(frame *raster.Raster) (*Result, error) {
	if frame == nil {
		return nil, ErrNilFrame
	}
	if p.raw == nil {
		return p.first(frame)
	}
	if frame.Size() != p.raw.Size() {
		return nil, fmt.Errorf("%w: frame %d is %v, previous %v", ErrSizeMismatch, p.index, frame.Size(), p.raw.Size())
	}

	changed, blocks, err := ChangeMask(p.raw, frame, p.params.BlockSize, p.params.BlockThreshold, p.params.CoverPartialBlocks)
	if err != nil {
		return nil, err
	}
	gradient, err := morph.Gradient(frame, p.element, changed)
	if err != nil {
		return nil, err
	}
	for i := 0; i < gradient.Len(); i++ {
		if changed.At(i, 0) == 0 {
			gradient.SetAt(i, 0, p.gradient.At(i, 0))
		}
	}
	labels, err := p.flooder.FloodRegion(gradient, changed, p.labels)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", p.index, err)
	}

	res := &Result{Index: p.index, Gradient: gradient, Labels: labels, Changed: changed, Blocks: blocks}
	p.advance(frame, res)
	p.reportProgress(blocks.Changed, blocks.Total, fmt.Sprintf("frame %d: reflooded", res.Index))
	return res, nil
}

func (p *Predictor) first(frame *raster.Raster) (*Result, error) {
	gradient, err := morph.Gradient(frame, p.element, nil)
	if err != nil {
		return nil, err
	}
	labels, err := p.flooder.Flood(gradient)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", p.index, err)
	}
	res := &Result{Index: p.index, Gradient: gradient, Labels: labels}
	p.advance(frame, res)
	p.reportProgress(0, 0, fmt.Sprintf("frame %d: flooded %d basins", res.Index, watershed.Summarize(labels).Basins))
	return res, nil
}

func (p *Predictor) advance(frame *raster.Raster, res *Result) {
	p.raw = frame.Clone()
	p.gradient = res.Gradient
	p.labels = res.Labels
	p.index++
}

// FloodSequence returns a lazy sequence of per-frame results. Frames are
// pulled one at a time and each result depends on the frames before it,
// so the sequence can be ranged over once; a second range yields only
// ErrSequenceConsumed. Iteration stops after the first error.
func FloodSequence(frames iter.Seq[*raster.Raster], params *Params) iter.Seq2[*Result, error] {
	used := false
	return func(yield func(*Result, error) bool) {
		if used {
			yield(nil, ErrSequenceConsumed)
			return
		}
		used = true

		p, err := NewPredictor(params)
		if err != nil {
			yield(nil, err)
			return
		}
		for frame := range frames {
			res, err := p.Step(frame)
			if !yield(res, err) || err != nil {
				return
			}
		}
	}
}
