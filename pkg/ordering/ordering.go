// Package ordering provides vectorial orderings: total preorders over
// equal-length band vectors, used to define min and max for multi-band
// morphology.
//
// Geodesic reconstruction of vector rasters is only a least fixpoint when
// Min and Max return one of their literal inputs. Lexicographic and Norm
// have this property; Marginal does not and exists so callers can see the
// difference. Use VerifyPreserving to check an ordering before relying on it.
package ordering

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrNotVectorPreserving is returned by VerifyPreserving when Min or Max
// synthesizes a vector that is not one of its inputs.
var ErrNotVectorPreserving = errors.New("ordering: min/max is not vector-preserving")

// Ordering is a total preorder over band vectors.
type Ordering interface {
	// Compare returns a negative number when a precedes b, zero when they
	// are equivalent and a positive number otherwise.
	Compare(a, b []float64) int

	// Min returns the least element of a non-empty set.
	Min(set [][]float64) []float64

	// Max returns the greatest element of a non-empty set.
	Max(set [][]float64) []float64
}

// Lexicographic orders vectors by band 0, then band 1, and so on.
type Lexicographic struct{}

// Compare implements Ordering.
func (Lexicographic) Compare(a, b []float64) int {
	return compareLex(a, b)
}

// Min implements Ordering. Among equivalent vectors the first wins.
func (l Lexicographic) Min(set [][]float64) []float64 {
	return pick(l, set, -1)
}

// Max implements Ordering. Among equivalent vectors the first wins.
func (l Lexicographic) Max(set [][]float64) []float64 {
	return pick(l, set, 1)
}

// Norm orders vectors by Euclidean norm and breaks ties lexicographically,
// which keeps it total.
type Norm struct{}

// Compare implements Ordering.
func (Norm) Compare(a, b []float64) int {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	}
	return compareLex(a, b)
}

// Min implements Ordering.
func (n Norm) Min(set [][]float64) []float64 {
	return pick(n, set, -1)
}

// Max implements Ordering.
func (n Norm) Max(set [][]float64) []float64 {
	return pick(n, set, 1)
}

// Marginal applies min and max independently per band. Its results are in
// general new vectors, so it is not vector-preserving. Compare is the
// product order broken lexicographically.
type Marginal struct{}

// Compare implements Ordering.
func (Marginal) Compare(a, b []float64) int {
	return compareLex(a, b)
}

// Min implements Ordering.
func (Marginal) Min(set [][]float64) []float64 {
	out := append([]float64(nil), set[0]...)
	for _, v := range set[1:] {
		for i := range out {
			if v[i] < out[i] {
				out[i] = v[i]
			}
		}
	}
	return out
}

// Max implements Ordering.
func (Marginal) Max(set [][]float64) []float64 {
	out := append([]float64(nil), set[0]...)
	for _, v := range set[1:] {
		for i := range out {
			if v[i] > out[i] {
				out[i] = v[i]
			}
		}
	}
	return out
}

// Min2 is a convenience for o.Min over two vectors.
func Min2(o Ordering, a, b []float64) []float64 {
	return o.Min([][]float64{a, b})
}

// Max2 is a convenience for o.Max over two vectors.
func Max2(o Ordering, a, b []float64) []float64 {
	return o.Max([][]float64{a, b})
}

// Less reports whether a strictly precedes b.
func Less(o Ordering, a, b []float64) bool {
	return o.Compare(a, b) < 0
}

func pick(o Ordering, set [][]float64, sign int) []float64 {
	best := set[0]
	for _, v := range set[1:] {
		if o.Compare(v, best)*sign > 0 {
			best = v
		}
	}
	return best
}

func compareLex(a, b []float64) int {
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// VerifyPreserving checks that o.Min and o.Max return one of their literal
// inputs for every pair and every consecutive triple of samples.
func VerifyPreserving(o Ordering, samples [][]float64) error {
	check := func(set [][]float64) error {
		for _, f := range []struct {
			name string
			op   func([][]float64) []float64
		}{{"min", o.Min}, {"max", o.Max}} {
			got := f.op(set)
			if !containsVector(set, got) {
				return fmt.Errorf("%w: %s(%v) = %v", ErrNotVectorPreserving, f.name, set, got)
			}
		}
		return nil
	}
	for i := range samples {
		for j := i + 1; j < len(samples); j++ {
			if err := check([][]float64{samples[i], samples[j]}); err != nil {
				return err
			}
		}
		if i+2 < len(samples) {
			if err := check(samples[i : i+3]); err != nil {
				return err
			}
		}
	}
	return nil
}

func containsVector(set [][]float64, v []float64) bool {
	for _, s := range set {
		if floats.Equal(s, v) {
			return true
		}
	}
	return false
}
