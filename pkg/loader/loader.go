// Package loader reads and writes track graphs in the JSON interchange
// format:
//
//	{"space_units": "µm", "time_units": "s",
//	 "spots": [{"id": 0, "name": "A", "features": {"POSITION_X": 0, ...}}],
//	 "edges": [{"source": 0, "target": 1}]}
package loader

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/trackfeat/pkg/metrics"
	"github.com/vanderheijden86/trackfeat/pkg/model"
	"github.com/vanderheijden86/trackfeat/pkg/trackmodel"
)

// File is the on-disk shape of a track graph.
type File struct {
	SpaceUnits string     `json:"space_units,omitempty"`
	TimeUnits  string     `json:"time_units,omitempty"`
	Spots      []SpotJSON `json:"spots"`
	Edges      []EdgeJSON `json:"edges"`
}

// SpotJSON is one spot record.
type SpotJSON struct {
	ID       int                `json:"id"`
	Name     string             `json:"name,omitempty"`
	Features map[string]float64 `json:"features"`
}

// EdgeJSON is one edge record.
type EdgeJSON struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// LoadFile reads a track graph from path.
func LoadFile(path string) (*trackmodel.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return m, nil
}

// Decode reads a track graph from r.
func Decode(r io.Reader) (*trackmodel.Model, error) {
	defer metrics.Timer(metrics.GraphLoad)()

	var file File
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode track graph: %w", err)
	}
	return file.Build()
}

// Build turns decoded records into a model.
func (f *File) Build() (*trackmodel.Model, error) {
	b := trackmodel.NewBuilder()
	if f.SpaceUnits != "" {
		b.SpaceUnits = f.SpaceUnits
	}
	if f.TimeUnits != "" {
		b.TimeUnits = f.TimeUnits
	}
	for _, s := range f.Spots {
		if err := b.AddSpot(model.NewSpot(s.ID, s.Name, s.Features)); err != nil {
			return nil, err
		}
	}
	for i, e := range f.Edges {
		if err := b.Link(e.Source, e.Target); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
	}
	return b.Build(), nil
}

// FromModel converts a model back to its file representation.
func FromModel(m *trackmodel.Model) *File {
	f := &File{
		SpaceUnits: m.SpaceUnits,
		TimeUnits:  m.TimeUnits,
		Spots:      make([]SpotJSON, 0, m.NSpots()),
		Edges:      make([]EdgeJSON, 0, m.NEdges()),
	}
	for _, s := range m.Spots() {
		f.Spots = append(f.Spots, SpotJSON{ID: s.ID, Name: s.Name, Features: s.Features()})
	}
	for _, e := range m.Edges() {
		f.Edges = append(f.Edges, EdgeJSON{Source: e.Source.ID, Target: e.Target.ID})
	}
	return f
}

// Encode writes m to w as indented JSON.
func Encode(w io.Writer, m *trackmodel.Model) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(FromModel(m))
}

// SaveFile writes m to path.
func SaveFile(path string, m *trackmodel.Model) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
