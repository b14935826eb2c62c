// Package mzident reads PSM records from mzIdentML files.
// Only the parts of the format needed for rescoring are parsed: peptides,
// peptide evidences (for the decoy flag and protein accessions) and the
// spectrum identification items with their score CV terms.
package mzident

import (
	"encoding/xml"
	"errors"
)

var (
	ErrNoIdentifications = errors.New("mzident: no spectrum identifications")
	ErrNoScores          = errors.New("mzident: no numeric score shared by all identifications")
)

type mzIdentMLContent struct {
	XMLName         xml.Name          `xml:"MzIdentML"`
	Peptide         []peptide         `xml:"SequenceCollection>Peptide"`
	PeptideEvidence []peptideEvidence `xml:"SequenceCollection>PeptideEvidence"`
	DBSequence      []dbSequence      `xml:"SequenceCollection>DBSequence"`
	SpectrumResult  []spectrumResult  `xml:"DataCollection>AnalysisData>SpectrumIdentificationList>SpectrumIdentificationResult"`
}

type peptide struct {
	ID              string `xml:"id,attr"`
	PeptideSequence string
}

type peptideEvidence struct {
	ID            string `xml:"id,attr"`
	IsDecoy       bool   `xml:"isDecoy,attr"`
	DBSequenceRef string `xml:"dBSequence_ref,attr"`
}

type dbSequence struct {
	ID        string `xml:"id,attr"`
	Accession string `xml:"accession,attr"`
}

type spectrumResult struct {
	SpectrumID string         `xml:"spectrumID,attr"`
	Item       []spectrumItem `xml:"SpectrumIdentificationItem"`
}

type spectrumItem struct {
	ID             string        `xml:"id,attr"`
	ChargeState    int           `xml:"chargeState,attr"`
	ExperimentalMz float64       `xml:"experimentalMassToCharge,attr"`
	CalculatedMz   float64       `xml:"calculatedMassToCharge,attr"`
	PeptideRef     string        `xml:"peptide_ref,attr"`
	EvidenceRef    []evidenceRef `xml:"PeptideEvidenceRef"`
	CvPar          []cvParam     `xml:"cvParam"`
}

type evidenceRef struct {
	PeptideEvidenceRef string `xml:"peptideEvidence_ref,attr"`
}

type cvParam struct {
	Accession string `xml:"accession,attr"`
	Name      string `xml:"name,attr"`
	Value     string `xml:"value,attr"`
}
