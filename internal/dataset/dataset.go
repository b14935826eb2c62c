// Package dataset holds the in-memory collection of peptide-spectrum
// matches (PSMs) that the rescoring engine operates on, and the
// cross-validation fold assignment over it.
package dataset

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrInsufficientData   = errors.New("dataset: not enough targets or decoys")
	ErrInsufficientGroups = errors.New("dataset: fewer unique group keys than folds")
)

// PSM is one candidate peptide-spectrum match.
// IsDecoy is the ground-truth label and is never altered after construction.
type PSM struct {
	SpecID   string    // unique spectrum identifier
	Peptide  string    // peptide sequence
	Proteins string    // protein group identifier, may be empty
	GroupKey string    // key used for fold partitioning
	Features []float64 // fixed-length feature vector
	IsDecoy  bool
	Score    float64 // initial score, replaced by the trainer's held-out score
}

// Collection is a validated set of PSMs with a shared feature schema.
type Collection struct {
	psms     []PSM
	featName []string
}

// New validates the PSM records and builds a Collection.
// It rejects duplicate spectrum identifiers, feature vectors whose length
// does not match the feature names, and non-finite feature values.
// At least one target and one decoy must be present.
func New(psms []PSM, featNames []string) (*Collection, error) {
	if len(psms) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInsufficientData)
	}
	seen := make(map[string]struct{}, len(psms))
	var targets, decoys int
	for i := range psms {
		p := &psms[i]
		if _, ok := seen[p.SpecID]; ok {
			return nil, fmt.Errorf("dataset: duplicate spectrum identifier %q", p.SpecID)
		}
		seen[p.SpecID] = struct{}{}
		if len(p.Features) != len(featNames) {
			return nil, fmt.Errorf("dataset: PSM %q has %d features, expected %d",
				p.SpecID, len(p.Features), len(featNames))
		}
		for j, v := range p.Features {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("dataset: PSM %q has invalid value for feature %q",
					p.SpecID, featNames[j])
			}
		}
		if p.IsDecoy {
			decoys++
		} else {
			targets++
		}
	}
	if targets == 0 || decoys == 0 {
		return nil, fmt.Errorf("%w: %d targets, %d decoys", ErrInsufficientData, targets, decoys)
	}
	return &Collection{psms: psms, featName: featNames}, nil
}

// Len returns the number of PSMs in the collection.
func (c *Collection) Len() int { return len(c.psms) }

// NumFeatures returns the length of the feature vectors.
func (c *Collection) NumFeatures() int { return len(c.featName) }

// FeatureNames returns the feature schema in column order.
func (c *Collection) FeatureNames() []string { return c.featName }

// PSM returns the record at index i.
func (c *Collection) PSM(i int) PSM { return c.psms[i] }

// Decoys returns the label vector, true for decoy PSMs.
func (c *Collection) Decoys() []bool {
	d := make([]bool, len(c.psms))
	for i := range c.psms {
		d[i] = c.psms[i].IsDecoy
	}
	return d
}

// Scores returns a copy of the current score vector.
func (c *Collection) Scores() []float64 {
	s := make([]float64, len(c.psms))
	for i := range c.psms {
		s[i] = c.psms[i].Score
	}
	return s
}

// SetScores replaces the score vector, typically with the held-out
// scores produced by the trainer.
func (c *Collection) SetScores(scores []float64) error {
	if len(scores) != len(c.psms) {
		return fmt.Errorf("dataset: score vector length %d, expected %d",
			len(scores), len(c.psms))
	}
	for i := range c.psms {
		c.psms[i].Score = scores[i]
	}
	return nil
}

// FeatureColumn returns feature j for all PSMs.
func (c *Collection) FeatureColumn(j int) []float64 {
	col := make([]float64, len(c.psms))
	for i := range c.psms {
		col[i] = c.psms[i].Features[j]
	}
	return col
}

// FeatureRows builds the feature matrix for the PSMs at the given indices,
// in the given order.
func (c *Collection) FeatureRows(idx []int) *mat.Dense {
	m := mat.NewDense(len(idx), len(c.featName), nil)
	for r, i := range idx {
		m.SetRow(r, c.psms[i].Features)
	}
	return m
}
