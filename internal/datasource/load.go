package datasource

import (
	"fmt"

	"github.com/vanderheijden86/trackfeat/pkg/debug"
	"github.com/vanderheijden86/trackfeat/pkg/loader"
	"github.com/vanderheijden86/trackfeat/pkg/metrics"
	"github.com/vanderheijden86/trackfeat/pkg/trackmodel"
)

// LoadPath detects the source at path and loads it.
func LoadPath(path string) (*trackmodel.Model, DataSource, error) {
	source, err := Detect(path)
	if err != nil {
		return nil, DataSource{}, err
	}
	m, err := Load(source)
	return m, source, err
}

// Load reads the track model from a specific source
func Load(source DataSource) (*trackmodel.Model, error) {
	debug.Log("loading %s", source)

	switch source.Type {
	case SourceTypeJSON:
		return loader.LoadFile(source.Path)
	case SourceTypeSQLite:
		defer metrics.Timer(metrics.GraphLoad)()
		reader, err := NewSQLiteReader(source)
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		m, err := reader.LoadModel()
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", source.Path, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSourceType, source.Type)
	}
}
