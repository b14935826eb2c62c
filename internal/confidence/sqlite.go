package confidence

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// WriteSQLite stores the confidence records in a SQLite database, one
// table per level, replacing any previous contents. All rows are written
// inside a single transaction.
func (l *Levels) WriteSQLite(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("confidence: open database: %w", err)
	}
	defer db.Close()

	for _, lv := range []struct {
		level   Level
		records []Record
	}{
		{LevelPSMs, l.PSMs},
		{LevelPeptides, l.Peptides},
		{LevelProteins, l.Proteins},
	} {
		if err := writeTable(db, lv.level, lv.records); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(db *sql.DB, level Level, records []Record) error {
	schema := fmt.Sprintf(`
	DROP TABLE IF EXISTS %[1]s;
	CREATE TABLE %[1]s (
		Id TEXT NOT NULL,
		Peptide TEXT,
		Score DOUBLE NOT NULL,
		QValue DOUBLE NOT NULL,
		NumPSMs INTEGER NOT NULL
	);`, level)
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("confidence: create table %s: %w", level, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("confidence: begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO %s (Id, Peptide, Score, QValue, NumPSMs) VALUES (?, ?, ?, ?, ?)", level))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("confidence: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.ID, r.Peptide, r.Score, r.QValue, r.NumPSMs); err != nil {
			tx.Rollback()
			return fmt.Errorf("confidence: insert into %s: %w", level, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("confidence: commit %s: %w", level, err)
	}
	return nil
}
