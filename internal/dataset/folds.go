package dataset

import (
	"fmt"
	"math/rand"
	"sort"
)

// Folds maps every PSM in a collection to a cross-validation fold.
// All PSMs that share a group key are assigned to the same fold.
type Folds struct {
	K     int
	byPSM []int
}

// AssignFolds partitions the unique group keys of the collection into k
// folds. The keys are sorted, shuffled with a PRNG seeded from seed and
// bucketed round-robin, so folds are balanced in unique-key count and the
// partition is reproducible for a given seed.
func (c *Collection) AssignFolds(k int, seed int64) (Folds, error) {
	if k < 2 {
		return Folds{}, fmt.Errorf("dataset: fold count %d, must be at least 2", k)
	}
	keySet := make(map[string]struct{})
	for i := range c.psms {
		keySet[c.psms[i].GroupKey] = struct{}{}
	}
	if len(keySet) < k {
		return Folds{}, fmt.Errorf("%w: %d keys, %d folds", ErrInsufficientGroups, len(keySet), k)
	}

	// Map iteration order is random, so sort before shuffling to keep
	// the partition a pure function of the keys and the seed.
	keys := make([]string, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	rnd := rand.New(rand.NewSource(seed))
	rnd.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	keyFold := make(map[string]int, len(keys))
	for i, key := range keys {
		keyFold[key] = i % k
	}
	byPSM := make([]int, len(c.psms))
	for i := range c.psms {
		byPSM[i] = keyFold[c.psms[i].GroupKey]
	}
	return Folds{K: k, byPSM: byPSM}, nil
}

// Fold returns the fold index of PSM i.
func (f Folds) Fold(i int) int { return f.byPSM[i] }

// Split returns the held-out PSM indices of fold f and the training
// indices (all other folds), both in ascending order.
func (f Folds) Split(fold int) (held, train []int) {
	for i, fi := range f.byPSM {
		if fi == fold {
			held = append(held, i)
		} else {
			train = append(train, i)
		}
	}
	return held, train
}
