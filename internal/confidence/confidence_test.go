package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psmkit/rescore/internal/dataset"
)

// testCollection has two PSMs for one peptide, a shared protein group with
// a decoy peptide in it, and enough spread for competition to be defined.
func testCollection(t *testing.T) (*dataset.Collection, []float64) {
	t.Helper()
	psms := []dataset.PSM{
		{SpecID: "s1", Peptide: "AAAK", Proteins: "P1", GroupKey: "1", Features: []float64{0}},
		{SpecID: "s2", Peptide: "AAAK", Proteins: "P1", GroupKey: "2", Features: []float64{0}},
		{SpecID: "s3", Peptide: "CCCK", Proteins: "P2", GroupKey: "3", Features: []float64{0}},
		{SpecID: "s4", Peptide: "KAAA", Proteins: "P1", GroupKey: "4", Features: []float64{0}, IsDecoy: true},
		{SpecID: "s5", Peptide: "KCCC", Proteins: "P2", GroupKey: "5", Features: []float64{0}, IsDecoy: true},
	}
	ds, err := dataset.New(psms, []string{"f1"})
	require.NoError(t, err)
	// The CCCK/P2 target scores below both decoys, so group-level
	// competition assigns it a non-zero q-value.
	scores := []float64{5, 4, 1, 2, 3}
	return ds, scores
}

func TestAssignBestHitPerGroup(t *testing.T) {
	ds, scores := testCollection(t)
	levels, err := Assign(ds, scores)
	require.NoError(t, err)

	// PSM level: every target spectrum is its own group.
	require.Len(t, levels.PSMs, 3)
	assert.Equal(t, "s1", levels.PSMs[0].ID)

	// Peptide level: AAAK is represented by its best PSM (s1, score 5).
	require.Len(t, levels.Peptides, 2)
	assert.Equal(t, "AAAK", levels.Peptides[0].ID)
	assert.Equal(t, 5.0, levels.Peptides[0].Score)
	assert.Equal(t, 2, levels.Peptides[0].NumPSMs)
	assert.Equal(t, "CCCK", levels.Peptides[1].ID)
	assert.Equal(t, 1, levels.Peptides[1].NumPSMs)
}

func TestAssignBestMatchPerSpectrum(t *testing.T) {
	psms := []dataset.PSM{
		{SpecID: "scan2_rank1", Peptide: "AAAK", Proteins: "P1", GroupKey: "2", Features: []float64{0}},
		{SpecID: "scan2_rank2", Peptide: "CCCK", Proteins: "P2", GroupKey: "2", Features: []float64{0}},
		{SpecID: "scan3_rank1", Peptide: "KAAA", Proteins: "P1", GroupKey: "3", Features: []float64{0}, IsDecoy: true},
	}
	ds, err := dataset.New(psms, []string{"f1"})
	require.NoError(t, err)

	levels, err := Assign(ds, []float64{5, 4, 1})
	require.NoError(t, err)

	// Candidate matches of the same spectrum compete before any q-value is
	// computed: only the best one represents the spectrum.
	require.Len(t, levels.PSMs, 1)
	best := levels.PSMs[0]
	assert.Equal(t, "scan2_rank1", best.ID)
	assert.Equal(t, "AAAK", best.Peptide)
	assert.Equal(t, 5.0, best.Score)
	assert.Equal(t, 2, best.NumPSMs)

	// The losing candidate still exists at the peptide level, where its
	// own sequence is the group key.
	require.Len(t, levels.Peptides, 2)
}

func TestAssignProteinGroupsKeepDecoysSeparate(t *testing.T) {
	ds, scores := testCollection(t)
	levels, err := Assign(ds, scores)
	require.NoError(t, err)

	// P1 contains the decoy peptide KAAA, but its reported confidence
	// must come from the target PSMs only.
	require.Len(t, levels.Proteins, 2)
	p1 := levels.Proteins[0]
	assert.Equal(t, "P1", p1.ID)
	assert.Equal(t, "AAAK", p1.Peptide, "best member's peptide is reported")
	assert.Equal(t, 5.0, p1.Score)
	assert.Equal(t, 2, p1.NumPSMs, "decoy members are not pooled into the target group")

	// The decoy representatives still take part in the competition: the
	// lowest-scoring target protein ranks below a decoy, so its q-value
	// reflects that evidence.
	p2 := levels.Proteins[1]
	assert.Equal(t, "P2", p2.ID)
	assert.Greater(t, p2.QValue, 0.0)
}

func TestAssignIdempotent(t *testing.T) {
	ds, scores := testCollection(t)
	a, err := Assign(ds, scores)
	require.NoError(t, err)
	b, err := Assign(ds, scores)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAssignSkipsEmptyProteinKeys(t *testing.T) {
	psms := []dataset.PSM{
		{SpecID: "s1", Peptide: "AAAK", GroupKey: "1", Features: []float64{0}},
		{SpecID: "s2", Peptide: "KAAA", GroupKey: "2", Features: []float64{0}, IsDecoy: true},
	}
	ds, err := dataset.New(psms, []string{"f1"})
	require.NoError(t, err)

	levels, err := Assign(ds, []float64{2, 1})
	require.NoError(t, err)
	assert.Empty(t, levels.Proteins)
	assert.Len(t, levels.PSMs, 1)
}

func TestAssignScoreLengthMismatch(t *testing.T) {
	ds, _ := testCollection(t)
	_, err := Assign(ds, []float64{1, 2})
	require.Error(t, err)
}
