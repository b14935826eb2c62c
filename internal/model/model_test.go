package model

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// twoClassData builds a linearly separated two-feature problem: positives
// centered at +2 on the first feature, negatives at -2. The second feature
// is uninformative noise.
func twoClassData(n int, seed int64) (*mat.Dense, []bool) {
	rnd := rand.New(rand.NewSource(seed))
	x := mat.NewDense(2*n, 2, nil)
	labels := make([]bool, 2*n)
	for i := 0; i < n; i++ {
		x.SetRow(i, []float64{2 + rnd.NormFloat64()*0.5, rnd.NormFloat64()})
		labels[i] = true
		x.SetRow(n+i, []float64{-2 + rnd.NormFloat64()*0.5, rnd.NormFloat64()})
	}
	return x, labels
}

func TestLinearFitSeparates(t *testing.T) {
	x, labels := twoClassData(50, 1)
	m, err := NewLinear().Fit(x, labels)
	require.NoError(t, err)

	scores := m.Score(x)
	require.Len(t, scores, 100)

	// Every positive example should outscore every negative one.
	minPos, maxNeg := scores[0], scores[50]
	for i := 0; i < 50; i++ {
		if scores[i] < minPos {
			minPos = scores[i]
		}
		if scores[50+i] > maxNeg {
			maxNeg = scores[50+i]
		}
	}
	assert.Greater(t, minPos, maxNeg)
}

func TestLinearFitDeterministic(t *testing.T) {
	x, labels := twoClassData(30, 2)
	m1, err := NewLinear().Fit(x, labels)
	require.NoError(t, err)
	m2, err := NewLinear().Fit(x, labels)
	require.NoError(t, err)

	assert.Equal(t, m1.Score(x), m2.Score(x))
}

func TestLinearFitErrors(t *testing.T) {
	x, labels := twoClassData(10, 3)

	// Shape mismatch.
	_, err := NewLinear().Fit(x, labels[:5])
	require.ErrorIs(t, err, ErrModelFit)

	// Single class.
	allTrue := make([]bool, 20)
	for i := range allTrue {
		allTrue[i] = true
	}
	_, err = NewLinear().Fit(x, allTrue)
	require.ErrorIs(t, err, ErrModelFit)
}

func TestLinearHandlesConstantFeature(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	x := mat.NewDense(40, 2, nil)
	labels := make([]bool, 40)
	for i := 0; i < 20; i++ {
		x.SetRow(i, []float64{1 + rnd.NormFloat64()*0.1, 7})
		labels[i] = true
		x.SetRow(20+i, []float64{-1 + rnd.NormFloat64()*0.1, 7})
	}
	m, err := NewLinear().Fit(x, labels)
	require.NoError(t, err)
	scores := m.Score(x)
	assert.Greater(t, scores[0], scores[39])
}
