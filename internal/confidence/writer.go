package confidence

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// idColumn is the identifier column header of each level's report.
var idColumn = map[Level]string{
	LevelPSMs:     "SpecId",
	LevelPeptides: "Peptide",
	LevelProteins: "ProteinGroup",
}

// WriteTSV writes one tab-delimited file per confidence level into dir,
// named <fileRoot>.<level>.txt, and returns the paths written. Levels
// without records are skipped. Consumers apply their own q-value cutoff;
// nothing is filtered here.
func (l *Levels) WriteTSV(dir, fileRoot string) ([]string, error) {
	var paths []string
	for _, lv := range []struct {
		level   Level
		records []Record
	}{
		{LevelPSMs, l.PSMs},
		{LevelPeptides, l.Peptides},
		{LevelProteins, l.Proteins},
	} {
		if len(lv.records) == 0 {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("%s.%s.txt", fileRoot, lv.level))
		f, err := os.Create(path)
		if err != nil {
			return paths, err
		}
		err = writeLevel(f, lv.level, lv.records)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return paths, fmt.Errorf("confidence: write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeLevel(w io.Writer, level Level, records []Record) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\tscore\tq-value\tpsms\n", idColumn[level])
	for _, r := range records {
		fmt.Fprintf(bw, "%s\t%s\t%s\t%d\n", r.ID,
			strconv.FormatFloat(r.Score, 'g', -1, 64),
			strconv.FormatFloat(r.QValue, 'g', -1, 64),
			r.NumPSMs)
	}
	return bw.Flush()
}
