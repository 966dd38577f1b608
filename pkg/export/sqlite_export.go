package export

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/trackfeat/pkg/features"
	"github.com/vanderheijden86/trackfeat/pkg/metrics"
	"github.com/vanderheijden86/trackfeat/pkg/trackmodel"
)

// SQLiteExporter writes computed features to a SQLite database.
type SQLiteExporter struct {
	Store *features.Store
	Model *trackmodel.Model
	Batch *features.BatchReport // optional
}

// NewSQLiteExporter creates a new exporter for the given results.
func NewSQLiteExporter(store *features.Store, m *trackmodel.Model, batch *features.BatchReport) *SQLiteExporter {
	return &SQLiteExporter{Store: store, Model: m, Batch: batch}
}

// Export writes the database to path, replacing any existing file.
func (e *SQLiteExporter) Export(path string) error {
	defer metrics.Timer(metrics.Export)()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := CreateSchema(db); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	doc := NewDocument(e.Store, e.Model, e.Batch)
	if err := insertDocument(tx, doc); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return db.Close()
}

func insertDocument(tx *sql.Tx, doc *Document) error {
	if err := insertDeclarations(tx, doc.Features); err != nil {
		return fmt.Errorf("insert declarations: %w", err)
	}
	if err := insertTracks(tx, doc.Tracks); err != nil {
		return fmt.Errorf("insert tracks: %w", err)
	}
	if err := insertFailures(tx, doc.Failures); err != nil {
		return fmt.Errorf("insert failures: %w", err)
	}
	if err := insertMeta(tx, doc); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}
	return nil
}

func insertDeclarations(tx *sql.Tx, cols []Column) error {
	stmt, err := tx.Prepare(`INSERT INTO feature_declarations
		(feature, analyzer, name, short_name, dimension, unit, is_int, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, c := range cols {
		isInt := 0
		if c.IsInt {
			isInt = 1
		}
		if _, err := stmt.Exec(c.Key, c.Analyzer, c.Name, c.ShortName, c.Dimension, c.Unit, isInt, i); err != nil {
			return fmt.Errorf("%s: %w", c.Key, err)
		}
	}
	return nil
}

func insertTracks(tx *sql.Tx, rows []TrackRow) error {
	trackStmt, err := tx.Prepare(`INSERT INTO tracks (track_id, n_spots) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer trackStmt.Close()
	featStmt, err := tx.Prepare(`INSERT INTO track_features (track_id, feature, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer featStmt.Close()

	for _, row := range rows {
		if _, err := trackStmt.Exec(row.TrackID, row.NSpots); err != nil {
			return fmt.Errorf("track %d: %w", row.TrackID, err)
		}
		for key, v := range row.Values {
			var value sql.NullFloat64
			value.Float64, value.Valid = v.Float64()
			if _, err := featStmt.Exec(row.TrackID, key, value); err != nil {
				return fmt.Errorf("track %d %s: %w", row.TrackID, key, err)
			}
		}
	}
	return nil
}

func insertFailures(tx *sql.Tx, rows []FailureRow) error {
	for _, f := range rows {
		if _, err := tx.Exec(`INSERT INTO track_failures (track_id, analyzer, error) VALUES (?, ?, ?)`,
			f.TrackID, f.Analyzer, f.Error); err != nil {
			return err
		}
	}
	return nil
}

func insertMeta(tx *sql.Tx, doc *Document) error {
	meta := map[string]string{
		"schema_version": strconv.Itoa(SchemaVersion),
		"run_id":         doc.RunID,
		"version":        doc.Version,
		"generated_at":   doc.GeneratedAt.Format(time.RFC3339),
		"space_units":    doc.SpaceUnits,
		"time_units":     doc.TimeUnits,
		"track_count":    strconv.Itoa(len(doc.Tracks)),
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT INTO export_meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return err
		}
	}
	return nil
}
