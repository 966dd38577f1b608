package export

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is recorded in export_meta.
const SchemaVersion = 1

// CreateSchema creates all tables and indexes in the database.
func CreateSchema(db *sql.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"feature_declarations", `
			CREATE TABLE IF NOT EXISTS feature_declarations (
				feature TEXT PRIMARY KEY,
				analyzer TEXT NOT NULL,
				name TEXT NOT NULL,
				short_name TEXT NOT NULL,
				dimension TEXT NOT NULL,
				unit TEXT,
				is_int INTEGER NOT NULL DEFAULT 0,
				position INTEGER NOT NULL
			)`},
		{"tracks", `
			CREATE TABLE IF NOT EXISTS tracks (
				track_id INTEGER PRIMARY KEY,
				n_spots INTEGER NOT NULL
			)`},
		// value is NULL for undefined features
		{"track_features", `
			CREATE TABLE IF NOT EXISTS track_features (
				track_id INTEGER NOT NULL,
				feature TEXT NOT NULL,
				value REAL,
				PRIMARY KEY (track_id, feature)
			)`},
		{"track_failures", `
			CREATE TABLE IF NOT EXISTS track_failures (
				track_id INTEGER NOT NULL,
				analyzer TEXT NOT NULL,
				error TEXT NOT NULL
			)`},
		{"export_meta", `
			CREATE TABLE IF NOT EXISTS export_meta (
				key TEXT PRIMARY KEY,
				value TEXT
			)`},
		{"idx_track_features_feature", `
			CREATE INDEX IF NOT EXISTS idx_track_features_feature ON track_features(feature)`},
	}
	for _, s := range stmts {
		if _, err := db.Exec(s.sql); err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
