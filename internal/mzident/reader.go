package mzident

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/psmkit/rescore/internal/dataset"
)

// Charge and mass error are always derivable from the identification
// attributes; the remaining features come from score CV terms.
var builtinFeatures = []string{"Charge", "dM"}

// Read parses mzIdentML content and returns PSM records with the feature
// column names. Features are the charge state, the m/z error and every
// numeric score CV term that is present on all identifications (terms
// missing from some identifications cannot form a column).
func Read(reader io.Reader) ([]dataset.PSM, []string, error) {
	var content mzIdentMLContent
	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel
	if err := d.Decode(&content); err != nil {
		return nil, nil, fmt.Errorf("mzident: %w", err)
	}

	pepSeq := make(map[string]string, len(content.Peptide))
	for _, p := range content.Peptide {
		pepSeq[p.ID] = p.PeptideSequence
	}
	evidence := make(map[string]peptideEvidence, len(content.PeptideEvidence))
	for _, ev := range content.PeptideEvidence {
		evidence[ev.ID] = ev
	}
	accession := make(map[string]string, len(content.DBSequence))
	for _, db := range content.DBSequence {
		accession[db.ID] = db.Accession
	}

	scoreNames, err := commonScores(content.SpectrumResult)
	if err != nil {
		return nil, nil, err
	}
	featNames := append(append([]string{}, builtinFeatures...), scoreNames...)

	var psms []dataset.PSM
	for _, res := range content.SpectrumResult {
		for i, item := range res.Item {
			features := make([]float64, 0, len(featNames))
			features = append(features,
				float64(item.ChargeState),
				item.ExperimentalMz-item.CalculatedMz)
			scores := numericCvValues(item.CvPar)
			for _, name := range scoreNames {
				features = append(features, scores[name])
			}

			specID := item.ID
			if specID == "" {
				specID = fmt.Sprintf("%s_%d", res.SpectrumID, i)
			}
			decoy, proteins := evidenceInfo(item.EvidenceRef, evidence, accession)
			psms = append(psms, dataset.PSM{
				SpecID:   specID,
				Peptide:  pepSeq[item.PeptideRef],
				Proteins: proteins,
				GroupKey: res.SpectrumID,
				Features: features,
				IsDecoy:  decoy,
			})
		}
	}
	if len(psms) == 0 {
		return nil, nil, ErrNoIdentifications
	}
	return psms, featNames, nil
}

// commonScores returns the sorted accessions of numeric CV terms present
// on every spectrum identification item.
func commonScores(results []spectrumResult) ([]string, error) {
	var common map[string]struct{}
	for _, res := range results {
		for _, item := range res.Item {
			scores := numericCvValues(item.CvPar)
			if common == nil {
				common = make(map[string]struct{}, len(scores))
				for name := range scores {
					common[name] = struct{}{}
				}
				continue
			}
			for name := range common {
				if _, ok := scores[name]; !ok {
					delete(common, name)
				}
			}
		}
	}
	if common == nil {
		return nil, ErrNoIdentifications
	}
	if len(common) == 0 {
		return nil, ErrNoScores
	}
	names := make([]string, 0, len(common))
	for name := range common {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// numericCvValues extracts the CV terms of an identification that carry a
// parseable numeric value, keyed by accession.
func numericCvValues(cvPars []cvParam) map[string]float64 {
	values := make(map[string]float64)
	for _, cv := range cvPars {
		if cv.Value == "" {
			continue
		}
		v, err := strconv.ParseFloat(cv.Value, 64)
		if err != nil {
			continue
		}
		values[cv.Accession] = v
	}
	return values
}

// evidenceInfo resolves the peptide evidences of an identification into a
// decoy flag and a protein group identifier. An identification is a decoy
// only when all of its evidences are decoy.
func evidenceInfo(refs []evidenceRef, evidence map[string]peptideEvidence,
	accession map[string]string) (bool, string) {

	if len(refs) == 0 {
		return false, ""
	}
	decoy := true
	seen := make(map[string]struct{})
	var proteins []string
	for _, ref := range refs {
		ev, ok := evidence[ref.PeptideEvidenceRef]
		if !ok {
			continue
		}
		if !ev.IsDecoy {
			decoy = false
		}
		acc := accession[ev.DBSequenceRef]
		if acc == "" {
			acc = ev.DBSequenceRef
		}
		if acc == "" {
			continue
		}
		if _, ok := seen[acc]; !ok {
			seen[acc] = struct{}{}
			proteins = append(proteins, acc)
		}
	}
	sort.Strings(proteins)
	return decoy, strings.Join(proteins, ";")
}
