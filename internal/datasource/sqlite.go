package datasource

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/trackfeat/pkg/model"
	"github.com/vanderheijden86/trackfeat/pkg/trackmodel"
)

// SQLiteReader provides read access to a track-graph SQLite database.
//
// Expected schema:
//
//	spots(id INTEGER PRIMARY KEY, name TEXT)
//	spot_features(spot_id INTEGER, feature TEXT, value REAL)
//	edges(source INTEGER, target INTEGER)
//	settings(key TEXT PRIMARY KEY, value TEXT)  -- optional: space_units, time_units
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading
func NewSQLiteReader(source DataSource) (*SQLiteReader, error) {
	if source.Type != SourceTypeSQLite {
		return nil, fmt.Errorf("source is not SQLite: %s", source.Type)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", source.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	return &SQLiteReader{db: db, path: source.Path}, nil
}

// Close closes the database connection
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadModel reads every spot, feature and edge and builds the track model.
func (r *SQLiteReader) LoadModel() (*trackmodel.Model, error) {
	b := trackmodel.NewBuilder()
	if err := r.loadSettings(b); err != nil {
		return nil, err
	}

	features, err := r.loadFeatures()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query("SELECT id, COALESCE(name, '') FROM spots ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query spots: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id   int
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan spot: %w", err)
		}
		if err := b.AddSpot(model.NewSpot(id, name, features[id])); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadEdges(b); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

func (r *SQLiteReader) loadFeatures() (map[int]map[string]float64, error) {
	rows, err := r.db.Query("SELECT spot_id, feature, value FROM spot_features WHERE value IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("query spot features: %w", err)
	}
	defer rows.Close()

	out := make(map[int]map[string]float64)
	for rows.Next() {
		var (
			id      int
			feature string
			value   float64
		)
		if err := rows.Scan(&id, &feature, &value); err != nil {
			return nil, fmt.Errorf("scan spot feature: %w", err)
		}
		m := out[id]
		if m == nil {
			m = make(map[string]float64)
			out[id] = m
		}
		m[feature] = value
	}
	return out, rows.Err()
}

func (r *SQLiteReader) loadEdges(b *trackmodel.Builder) error {
	rows, err := r.db.Query("SELECT source, target FROM edges ORDER BY rowid")
	if err != nil {
		return fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var source, target int
		if err := rows.Scan(&source, &target); err != nil {
			return fmt.Errorf("scan edge: %w", err)
		}
		if err := b.Link(source, target); err != nil {
			return err
		}
	}
	return rows.Err()
}

// loadSettings applies optional unit settings. A missing table is fine.
func (r *SQLiteReader) loadSettings(b *trackmodel.Builder) error {
	var exists int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'settings'",
	).Scan(&exists)
	if err != nil || exists == 0 {
		return err
	}

	rows, err := r.db.Query("SELECT key, value FROM settings WHERE key IN ('space_units', 'time_units')")
	if err != nil {
		return fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan setting: %w", err)
		}
		if value == "" {
			continue
		}
		switch key {
		case "space_units":
			b.SpaceUnits = value
		case "time_units":
			b.TimeUnits = value
		}
	}
	return rows.Err()
}
