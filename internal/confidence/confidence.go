// Package confidence rolls PSM-level scores up to peptide- and
// protein-level confidence estimates and writes the per-level reports.
package confidence

import (
	"fmt"
	"sort"

	"github.com/psmkit/rescore/internal/dataset"
	"github.com/psmkit/rescore/internal/qvalues"
)

// Level identifies a confidence granularity.
type Level string

const (
	LevelPSMs     Level = "psms"
	LevelPeptides Level = "peptides"
	LevelProteins Level = "proteins"
)

// Record is the confidence estimate of one entity (PSM, peptide or
// protein group): its best representative score, the derived q-value and
// the number of PSMs that contributed.
type Record struct {
	ID      string
	Peptide string // peptide of the best-scoring member
	Score   float64
	QValue  float64
	NumPSMs int
}

// Levels holds the target confidence records of every granularity,
// ordered by score descending. Decoy representatives take part in the
// group-level competition but are not reported.
type Levels struct {
	PSMs     []Record
	Peptides []Record
	Proteins []Record
}

// group collects the member PSMs of one representative. A decoy and a
// target are never pooled under the same representative.
type group struct {
	id      string
	decoy   bool
	bestIdx int // collection index of the best-scoring member
	count   int
}

// Assign computes confidence records at the PSM, peptide and protein-group
// level for a collection with final held-out scores. The PSM level keeps
// only the best candidate match of each spectrum, so every spectrum
// contributes exactly one competitor. Running it twice on the same input
// yields identical records.
func Assign(ds *dataset.Collection, scores []float64) (*Levels, error) {
	if len(scores) != ds.Len() {
		return nil, fmt.Errorf("confidence: %d scores for %d PSMs", len(scores), ds.Len())
	}

	psms, err := assignLevel(ds, scores,
		func(p dataset.PSM) string { return p.GroupKey },
		func(p dataset.PSM) string { return p.SpecID })
	if err != nil {
		return nil, fmt.Errorf("confidence: %s level: %w", LevelPSMs, err)
	}
	peptideKey := func(p dataset.PSM) string { return p.Peptide }
	peptides, err := assignLevel(ds, scores, peptideKey, peptideKey)
	if err != nil {
		return nil, fmt.Errorf("confidence: %s level: %w", LevelPeptides, err)
	}
	proteinKey := func(p dataset.PSM) string { return p.Proteins }
	proteins, err := assignLevel(ds, scores, proteinKey, proteinKey)
	if err != nil {
		return nil, fmt.Errorf("confidence: %s level: %w", LevelProteins, err)
	}
	return &Levels{PSMs: psms, Peptides: peptides, Proteins: proteins}, nil
}

// assignLevel groups PSMs by key, keeps the best-scoring member of each
// group as its representative ("best hit wins"), re-runs target-decoy
// competition over the representatives and returns the target records,
// identified by recordID of the best member. PSMs with an empty key
// (e.g. no protein group) are left out.
func assignLevel(ds *dataset.Collection, scores []float64,
	key, recordID func(dataset.PSM) string) ([]Record, error) {

	type groupKey struct {
		id    string
		decoy bool
	}
	groups := make(map[groupKey]*group)
	for i := 0; i < ds.Len(); i++ {
		p := ds.PSM(i)
		id := key(p)
		if id == "" {
			continue
		}
		k := groupKey{id: id, decoy: p.IsDecoy}
		g, ok := groups[k]
		if !ok {
			groups[k] = &group{id: id, decoy: p.IsDecoy, bestIdx: i, count: 1}
			continue
		}
		g.count++
		// Ties keep the earlier PSM so the choice is reproducible.
		if scores[i] > scores[g.bestIdx] {
			g.bestIdx = i
		}
	}
	if len(groups) == 0 {
		return nil, nil
	}

	reps := make([]*group, 0, len(groups))
	for _, g := range groups {
		reps = append(reps, g)
	}
	// Map order is random; order representatives by their best member's
	// position in the input so the competition tie-break is stable.
	sort.Slice(reps, func(a, b int) bool { return reps[a].bestIdx < reps[b].bestIdx })

	repScores := make([]float64, len(reps))
	repDecoy := make([]bool, len(reps))
	for i, g := range reps {
		repScores[i] = scores[g.bestIdx]
		repDecoy[i] = g.decoy
	}
	qvals, err := qvalues.Compute(repScores, repDecoy)
	if err != nil {
		return nil, err
	}

	var records []Record
	for i, g := range reps {
		if g.decoy {
			continue
		}
		best := ds.PSM(g.bestIdx)
		records = append(records, Record{
			ID:      recordID(best),
			Peptide: best.Peptide,
			Score:   repScores[i],
			QValue:  qvals[i],
			NumPSMs: g.count,
		})
	}
	sort.SliceStable(records, func(a, b int) bool { return records[a].Score > records[b].Score })
	return records, nil
}
