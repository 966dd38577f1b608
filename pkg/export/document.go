// Package export writes computed track features to JSON documents and
// SQLite databases.
package export

import (
	"time"

	"github.com/google/uuid"

	"github.com/vanderheijden86/trackfeat/pkg/features"
	"github.com/vanderheijden86/trackfeat/pkg/trackmodel"
	"github.com/vanderheijden86/trackfeat/pkg/version"
)

// Column describes one exported feature.
type Column struct {
	Key       string `json:"key"`
	Analyzer  string `json:"analyzer"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Dimension string `json:"dimension"`
	Unit      string `json:"unit,omitempty"`
	IsInt     bool   `json:"is_int"`
}

// TrackRow holds the features of one track. Undefined values encode as null.
type TrackRow struct {
	TrackID int             `json:"track_id"`
	NSpots  int             `json:"n_spots"`
	Values  features.Values `json:"features"`
}

// FailureRow records one analyzer failing on one track.
type FailureRow struct {
	TrackID  int    `json:"track_id"`
	Analyzer string `json:"analyzer"`
	Error    string `json:"error"`
}

// Document is the complete export of one computation.
type Document struct {
	RunID       string       `json:"run_id"`
	Version     string       `json:"version"`
	GeneratedAt time.Time    `json:"generated_at"`
	SpaceUnits  string       `json:"space_units"`
	TimeUnits   string       `json:"time_units"`
	Features    []Column     `json:"features"`
	Tracks      []TrackRow   `json:"tracks"`
	Failures    []FailureRow `json:"failures,omitempty"`
}

// NewDocument collects the declarations and values held in store. batch
// may be nil when no failure information is available.
func NewDocument(store *features.Store, m *trackmodel.Model, batch *features.BatchReport) *Document {
	doc := &Document{
		RunID:       uuid.NewString(),
		Version:     version.Version,
		GeneratedAt: time.Now().UTC(),
		SpaceUnits:  m.SpaceUnits,
		TimeUnits:   m.TimeUnits,
	}
	for _, d := range store.Declarations() {
		doc.Features = append(doc.Features, Column{
			Key:       d.Key,
			Analyzer:  d.Analyzer,
			Name:      d.Name,
			ShortName: d.ShortName,
			Dimension: d.Dimension.String(),
			Unit:      d.Dimension.Unit(m.SpaceUnits, m.TimeUnits),
			IsInt:     d.IsInt,
		})
	}
	for _, id := range store.TrackIDs() {
		doc.Tracks = append(doc.Tracks, TrackRow{
			TrackID: id,
			NSpots:  len(m.TrackSpots(id)),
			Values:  store.TrackFeatures(id),
		})
	}
	if batch != nil {
		for _, rep := range batch.Reports {
			for _, f := range rep.Failures {
				doc.Failures = append(doc.Failures, FailureRow{
					TrackID:  f.TrackID,
					Analyzer: f.Analyzer,
					Error:    f.Err.Error(),
				})
			}
		}
	}
	return doc
}
