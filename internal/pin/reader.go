// Package pin reads Percolator tab-delimited input (PIN) files.
//
// The expected layout is a header line
//
//	SpecId	Label	ScanNr	<feature columns...>	Peptide	Proteins...
//
// followed by one PSM per line. An optional DefaultDirection line after
// the header is skipped. Everything between ScanNr and Peptide is treated
// as a feature column.
package pin

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/psmkit/rescore/internal/dataset"
)

var ErrBadHeader = errors.New("pin: missing required column")

// maxLineSize accommodates PIN lines with very long protein lists.
const maxLineSize = 4 * 1024 * 1024

// Read parses PIN content and returns the PSM records together with the
// feature column names.
func Read(r io.Reader) ([]dataset.PSM, []string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, nil, err
		}
		return nil, nil, errors.New("pin: empty input")
	}
	header := strings.Split(sc.Text(), "\t")
	specCol, labelCol, scanCol, pepCol := -1, -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "specid":
			specCol = i
		case "label":
			labelCol = i
		case "scannr":
			scanCol = i
		case "peptide":
			pepCol = i
		}
	}
	if specCol != 0 || labelCol != 1 || scanCol != 2 {
		return nil, nil, fmt.Errorf("%w: header must start with SpecId, Label, ScanNr", ErrBadHeader)
	}
	if pepCol < 0 {
		return nil, nil, fmt.Errorf("%w: Peptide", ErrBadHeader)
	}
	if pepCol <= scanCol+1 {
		return nil, nil, errors.New("pin: no feature columns between ScanNr and Peptide")
	}
	featNames := make([]string, pepCol-scanCol-1)
	copy(featNames, header[scanCol+1:pepCol])

	var psms []dataset.PSM
	lineNo := 1
	seenData := false
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		// Percolator allows a per-feature search direction line, but only
		// directly after the header; it carries no PSM. Later lines with
		// that first column are ordinary records.
		if !seenData && fields[0] == "DefaultDirection" {
			seenData = true
			continue
		}
		seenData = true
		if len(fields) <= pepCol {
			return nil, nil, fmt.Errorf("pin: line %d has %d columns, expected at least %d",
				lineNo, len(fields), pepCol+1)
		}

		var decoy bool
		switch fields[labelCol] {
		case "1":
			decoy = false
		case "-1":
			decoy = true
		default:
			return nil, nil, fmt.Errorf("pin: line %d: invalid label %q", lineNo, fields[labelCol])
		}

		features := make([]float64, len(featNames))
		for j := range featNames {
			v, err := strconv.ParseFloat(fields[scanCol+1+j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("pin: line %d: invalid value %q for feature %s",
					lineNo, fields[scanCol+1+j], featNames[j])
			}
			features[j] = v
		}

		psms = append(psms, dataset.PSM{
			SpecID:   fields[specCol],
			Peptide:  fields[pepCol],
			Proteins: strings.Join(fields[pepCol+1:], ";"),
			GroupKey: fields[scanCol],
			Features: features,
			IsDecoy:  decoy,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	return psms, featNames, nil
}
