package export

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderheijden86/trackfeat/pkg/features"
	"github.com/vanderheijden86/trackfeat/pkg/features/track"
	"github.com/vanderheijden86/trackfeat/pkg/model"
	"github.com/vanderheijden86/trackfeat/pkg/trackmodel"
)

// fixture holds a 3-4-5 track, a single-spot track and an incomplete track.
func fixture(t *testing.T) (*trackmodel.Model, *features.Store, *features.BatchReport) {
	t.Helper()
	b := trackmodel.NewBuilder()
	b.SpaceUnits, b.TimeUnits = "µm", "s"
	require.NoError(t, b.AddSpot(model.NewSpotAt(0, 0, 0, 0, 0, 1)))
	require.NoError(t, b.AddSpot(model.NewSpotAt(1, 3, 4, 0, 1, 1)))
	require.NoError(t, b.AddSpot(model.NewSpotAt(2, 7, 7, 7, 0, 1)))
	require.NoError(t, b.AddSpot(model.NewSpot(3, "broken", map[string]float64{model.PositionX: 1})))
	require.NoError(t, b.Link(0, 1))
	m := b.Build()

	store := features.NewStore()
	lengths, err := track.ByKey(track.LengthKey)
	require.NoError(t, err)
	batch := features.NewCalculator(lengths...).Compute(context.Background(), m.TrackIDs(), m, store)
	require.Len(t, batch.FailedTracks(), 1)
	return m, store, batch
}

func TestWriteJSON(t *testing.T) {
	m, store, batch := fixture(t)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, store, m, batch))

	var doc struct {
		SpaceUnits string `json:"space_units"`
		Features   []Column
		Tracks     []struct {
			TrackID int                 `json:"track_id"`
			NSpots  int                 `json:"n_spots"`
			Values  map[string]*float64 `json:"features"`
		}
		Failures []FailureRow
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "µm", doc.SpaceUnits)
	require.Len(t, doc.Features, 2)
	assert.Equal(t, track.TrackLength, doc.Features[0].Key)
	assert.Equal(t, "LENGTH", doc.Features[0].Dimension)
	assert.Equal(t, "µm", doc.Features[0].Unit)

	require.Len(t, doc.Tracks, 3)
	first := doc.Tracks[0]
	assert.Equal(t, 2, first.NSpots)
	require.NotNil(t, first.Values[track.TrackLength])
	assert.InDelta(t, 5.0, *first.Values[track.TrackLength], 1e-12)
	assert.InDelta(t, 1.0, *first.Values[track.ConfinementIndex], 1e-12)

	single := doc.Tracks[1]
	assert.InDelta(t, 0.0, *single.Values[track.TrackLength], 1e-12)
	assert.Nil(t, single.Values[track.ConfinementIndex], "undefined confinement must encode as null")

	broken := doc.Tracks[2]
	assert.Contains(t, broken.Values, track.TrackLength)
	assert.Nil(t, broken.Values[track.TrackLength])

	require.Len(t, doc.Failures, 1)
	assert.Equal(t, 2, doc.Failures[0].TrackID)
	assert.Contains(t, doc.Failures[0].Error, model.ErrIncompleteSpotData.Error())
}

func TestWriteJSONFileWithoutBatch(t *testing.T) {
	m, store, _ := fixture(t)
	path := filepath.Join(t.TempDir(), "features.json")
	require.NoError(t, WriteJSONFile(path, store, m, nil))

	doc := NewDocument(store, m, nil)
	assert.Empty(t, doc.Failures)
	assert.Len(t, doc.RunID, 36)
	assert.Len(t, doc.Tracks, 3)
}

func TestSQLiteExport(t *testing.T) {
	m, store, batch := fixture(t)
	path := filepath.Join(t.TempDir(), "features.sqlite3")

	exp := NewSQLiteExporter(store, m, batch)
	require.NoError(t, exp.Export(path))
	// Exporting again replaces the file.
	require.NoError(t, exp.Export(path))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM feature_declarations`).Scan(&n))
	assert.Equal(t, 2, n)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&n))
	assert.Equal(t, 3, n)

	var length sql.NullFloat64
	require.NoError(t, db.QueryRow(
		`SELECT value FROM track_features WHERE track_id = 0 AND feature = ?`, track.TrackLength,
	).Scan(&length))
	assert.True(t, length.Valid)
	assert.InDelta(t, 5.0, length.Float64, 1e-12)

	var confinement sql.NullFloat64
	require.NoError(t, db.QueryRow(
		`SELECT value FROM track_features WHERE track_id = 1 AND feature = ?`, track.ConfinementIndex,
	).Scan(&confinement))
	assert.False(t, confinement.Valid, "undefined values are stored as NULL")

	var failed int
	var analyzer string
	require.NoError(t, db.QueryRow(`SELECT track_id, analyzer FROM track_failures`).Scan(&failed, &analyzer))
	assert.Equal(t, 2, failed)
	assert.Equal(t, track.LengthKey, analyzer)

	var schema string
	require.NoError(t, db.QueryRow(`SELECT value FROM export_meta WHERE key = 'schema_version'`).Scan(&schema))
	assert.Equal(t, "1", schema)
}
