package dataset

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// groupedPSMs builds 3 PSMs per group key so leakage is observable.
func groupedPSMs(keys int) []PSM {
	var psms []PSM
	for k := 0; k < keys; k++ {
		for r := 0; r < 3; r++ {
			psms = append(psms, PSM{
				SpecID:   fmt.Sprintf("s%d_%d", k, r),
				Peptide:  fmt.Sprintf("PEP%d", k),
				GroupKey: fmt.Sprintf("scan%d", k),
				Features: []float64{float64(k)},
				IsDecoy:  k%2 == 0,
			})
		}
	}
	return psms
}

func TestAssignFoldsNoLeakage(t *testing.T) {
	for _, keys := range []int{2, 3, 5, 17, 100, 1000} {
		c, err := New(groupedPSMs(keys), []string{"f1"})
		require.NoError(t, err)

		k := 3
		if keys == 2 {
			k = 2
		}
		folds, err := c.AssignFolds(k, 42)
		require.NoError(t, err, "keys=%d", keys)

		keyFold := make(map[string]int)
		counts := make([]int, k)
		seenKeys := make(map[string]struct{})
		for i := 0; i < c.Len(); i++ {
			key := c.PSM(i).GroupKey
			f := folds.Fold(i)
			if prev, ok := keyFold[key]; ok {
				assert.Equal(t, prev, f, "group %s split across folds", key)
			} else {
				keyFold[key] = f
				counts[f]++
			}
			seenKeys[key] = struct{}{}
		}
		// Balanced in unique group keys to within one.
		min, max := counts[0], counts[0]
		for _, n := range counts[1:] {
			if n < min {
				min = n
			}
			if n > max {
				max = n
			}
		}
		assert.LessOrEqual(t, max-min, 1, "keys=%d counts=%v", keys, counts)
	}
}

func TestAssignFoldsDeterministic(t *testing.T) {
	c, err := New(groupedPSMs(50), []string{"f1"})
	require.NoError(t, err)

	a, err := c.AssignFolds(3, 7)
	require.NoError(t, err)
	b, err := c.AssignFolds(3, 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other, err := c.AssignFolds(3, 8)
	require.NoError(t, err)
	assert.NotEqual(t, a, other, "different seeds should shuffle differently")
}

func TestAssignFoldsErrors(t *testing.T) {
	c, err := New(groupedPSMs(2), []string{"f1"})
	require.NoError(t, err)

	_, err = c.AssignFolds(3, 1)
	require.ErrorIs(t, err, ErrInsufficientGroups)

	_, err = c.AssignFolds(1, 1)
	require.Error(t, err)
}

func TestSplitCoversAll(t *testing.T) {
	c, err := New(groupedPSMs(9), []string{"f1"})
	require.NoError(t, err)
	folds, err := c.AssignFolds(3, 1)
	require.NoError(t, err)

	for f := 0; f < 3; f++ {
		held, train := folds.Split(f)
		assert.Equal(t, c.Len(), len(held)+len(train))
		for _, i := range held {
			assert.Equal(t, f, folds.Fold(i))
		}
		for _, i := range train {
			assert.NotEqual(t, f, folds.Fold(i))
		}
	}
}
