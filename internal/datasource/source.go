// Package datasource detects and opens track-graph sources. A source is
// either a JSON interchange file or a SQLite database holding spots,
// their features and the links between them.
package datasource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeJSON is a JSON track-graph file
	SourceTypeJSON SourceType = "json"
	// SourceTypeSQLite is a SQLite database
	SourceTypeSQLite SourceType = "sqlite"
)

// ErrUnknownSourceType is returned for files whose extension is not recognised.
var ErrUnknownSourceType = errors.New("unknown source type")

// DataSource describes one track-graph source on disk
type DataSource struct {
	// Type identifies the source type
	Type SourceType `json:"type"`
	// Path is the absolute path to the source file
	Path string `json:"path"`
	// ModTime is the last modification time of the source
	ModTime time.Time `json:"mod_time"`
	// Size is the file size in bytes
	Size int64 `json:"size"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	return fmt.Sprintf("%s (%s, mod=%s, %s)",
		s.Path, s.Type, s.ModTime.Format(time.RFC3339), humanize.Bytes(uint64(s.Size)))
}

// TypeOf classifies path by its extension.
func TypeOf(path string) (SourceType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return SourceTypeJSON, nil
	case ".db", ".sqlite", ".sqlite3":
		return SourceTypeSQLite, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownSourceType, path)
}

// Detect stats path and classifies it.
func Detect(path string) (DataSource, error) {
	typ, err := TypeOf(path)
	if err != nil {
		return DataSource{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return DataSource{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return DataSource{}, err
	}
	if info.IsDir() {
		return DataSource{}, fmt.Errorf("%s is a directory", abs)
	}
	return DataSource{
		Type:    typ,
		Path:    abs,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}, nil
}

// Changed reports whether the file behind s was modified since s was detected.
func (s DataSource) Changed() (bool, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return false, err
	}
	return !info.ModTime().Equal(s.ModTime) || info.Size() != s.Size, nil
}
