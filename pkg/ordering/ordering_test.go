package ordering

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samples = [][]float64{
	{0, 5, 1},
	{3, 0, 0},
	{0, 5, 2},
	{1, 1, 1},
	{3, 4, 0},
	{0, 0, 5},
}

func TestLexicographic(t *testing.T) {
	var o Lexicographic
	assert.Equal(t, -1, o.Compare([]float64{0, 9}, []float64{1, 0}))
	assert.Equal(t, 1, o.Compare([]float64{1, 1}, []float64{1, 0}))
	assert.Equal(t, 0, o.Compare([]float64{2, 2}, []float64{2, 2}))

	assert.Equal(t, []float64{0, 0, 5}, o.Min(samples))
	assert.Equal(t, []float64{3, 4, 0}, o.Max(samples))
}

func TestNorm(t *testing.T) {
	var o Norm
	// {3,0,0} and {0,0,3} have the same norm; lexicographic tie-break.
	assert.Equal(t, 1, o.Compare([]float64{3, 0, 0}, []float64{0, 0, 3}))
	assert.Equal(t, -1, o.Compare([]float64{1, 1, 1}, []float64{3, 0, 0}))

	assert.Equal(t, []float64{1, 1, 1}, o.Min(samples))
	assert.Equal(t, []float64{0, 5, 2}, o.Max(samples))
}

func TestMarginalSynthesizes(t *testing.T) {
	var o Marginal
	got := o.Max([][]float64{{3, 0}, {0, 4}})
	assert.Equal(t, []float64{3, 4}, got)
}

func TestMinMaxReturnInputs(t *testing.T) {
	a := []float64{1, 2}
	b := []float64{1, 3}
	for _, o := range []Ordering{Lexicographic{}, Norm{}} {
		lo := Min2(o, a, b)
		hi := Max2(o, a, b)
		// Identity, not just equality.
		assert.Same(t, &a[0], &lo[0])
		assert.Same(t, &b[0], &hi[0])
		assert.True(t, Less(o, a, b))
	}
}

func TestVerifyPreserving(t *testing.T) {
	require.NoError(t, VerifyPreserving(Lexicographic{}, samples))
	require.NoError(t, VerifyPreserving(Norm{}, samples))

	err := VerifyPreserving(Marginal{}, samples)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotVectorPreserving))
}
