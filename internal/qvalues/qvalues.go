// Package qvalues implements target-decoy competition and the conversion
// of scores into monotonic q-values.
package qvalues

import (
	"errors"
	"sort"
)

var ErrDegenerateRanking = errors.New("qvalues: all scores are identical")

// Compute ranks the entries by score, estimates the false discovery rate at
// every rank by target-decoy competition and returns q-values aligned to the
// input order.
//
// Entries are sorted by score descending; ties are broken by input index so
// the ranking is stable and reproducible. At rank i the raw FDR is
// (decoys+1)/max(targets, 1), or 0 while no decoy has been seen yet. The
// q-value at rank i is the minimum raw FDR at rank i or worse, which makes
// the q-value sequence non-decreasing as the score decreases.
//
// Decoy entries receive a q-value like any other rank; whether they are
// reported is up to the caller.
func Compute(scores []float64, decoy []bool) ([]float64, error) {
	if len(scores) != len(decoy) {
		return nil, errors.New("qvalues: scores and labels differ in length")
	}
	if len(scores) == 0 {
		return nil, errors.New("qvalues: empty input")
	}
	allEqual := true
	for _, s := range scores[1:] {
		if s != scores[0] {
			allEqual = false
			break
		}
	}
	if allEqual && len(scores) > 1 {
		return nil, ErrDegenerateRanking
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		return order[a] < order[b]
	})

	fdr := make([]float64, len(order))
	var targets, decoys int
	for rank, i := range order {
		if decoy[i] {
			decoys++
		} else {
			targets++
		}
		if decoys == 0 {
			fdr[rank] = 0
			continue
		}
		t := targets
		if t < 1 {
			t = 1
		}
		f := float64(decoys+1) / float64(t)
		if f > 1 {
			f = 1
		}
		fdr[rank] = f
	}

	// Running minimum from the worst rank upward enforces monotonicity.
	qvals := make([]float64, len(scores))
	runMin := fdr[len(fdr)-1]
	for rank := len(order) - 1; rank >= 0; rank-- {
		if fdr[rank] < runMin {
			runMin = fdr[rank]
		}
		qvals[order[rank]] = runMin
	}
	return qvals, nil
}

// TargetsAt returns how many target entries have a q-value at or below
// the given threshold.
func TargetsAt(qvals []float64, decoy []bool, threshold float64) int {
	var n int
	for i, q := range qvals {
		if !decoy[i] && q <= threshold {
			n++
		}
	}
	return n
}
