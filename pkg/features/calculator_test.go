package features_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/vanderheijden86/trackfeat/pkg/features"
	"github.com/vanderheijden86/trackfeat/pkg/features/track"
	"github.com/vanderheijden86/trackfeat/pkg/model"
	"github.com/vanderheijden86/trackfeat/pkg/testutil"
	"github.com/vanderheijden86/trackfeat/pkg/trackmodel"
)

func TestCalculatorRunsAllAnalyzers(t *testing.T) {
	cfg := testutil.DefaultConfig()
	cfg.Tracks = 30
	cfg.Singletons = 2
	m := testutil.New(cfg).Model()

	calc := features.NewCalculator(track.Default()...)
	calc.SetNumThreads(3)
	store := features.NewStore()
	batch := calc.Compute(context.Background(), m.TrackIDs(), m, store)

	if err := batch.Err(); err != nil {
		t.Fatalf("unexpected failures: %v", err)
	}
	if len(batch.Reports) != len(track.Keys) {
		t.Fatalf("expected %d reports, got %d", len(track.Keys), len(batch.Reports))
	}
	for _, a := range calc.Analyzers() {
		if a.NumThreads() != 3 {
			t.Errorf("%s: expected 3 threads, got %d", a.Key(), a.NumThreads())
		}
	}

	decls := store.Declarations()
	if len(decls) == 0 || decls[0].Key != track.TrackLength {
		t.Errorf("expected TRACK_LENGTH declared first, got %+v", decls)
	}
	for _, id := range m.TrackIDs() {
		for _, d := range decls {
			if _, ok := store.TrackFeature(id, d.Key); !ok {
				t.Errorf("track %d: %s missing", id, d.Key)
			}
		}
	}
}

func TestCalculatorLogsFailures(t *testing.T) {
	b := trackmodel.NewBuilder()
	good := model.NewSpotAt(1, 0, 0, 0, 0, 1)
	bad := model.NewSpot(2, "", map[string]float64{model.PositionX: 0})
	for _, s := range []*model.Spot{good, bad} {
		if err := b.AddSpot(s); err != nil {
			t.Fatal(err)
		}
	}
	m := b.Build()

	var buf bytes.Buffer
	calc := features.NewCalculator(track.NewLengthAnalyzer())
	calc.SetLogger(log.New(&buf, "", 0))
	batch := calc.Compute(context.Background(), m.TrackIDs(), m, features.NewStore())

	failed := batch.FailedTracks()
	if len(failed) != 1 || len(failed[1]) != 1 {
		t.Fatalf("expected track 1 to fail once, got %v", failed)
	}
	if !errors.Is(batch.Err(), model.ErrIncompleteSpotData) {
		t.Errorf("expected ErrIncompleteSpotData, got %v", batch.Err())
	}
	if !strings.Contains(buf.String(), "Track 1: Length failed") {
		t.Errorf("expected failure to be logged, got %q", buf.String())
	}
	rep, ok := batch.Report(track.LengthKey)
	if !ok || rep.Computed != 1 {
		t.Errorf("expected 1 computed track in Length report, got %+v", rep)
	}
}

func TestCalculatorCancelled(t *testing.T) {
	m := testutil.New(testutil.DefaultConfig()).Model()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := features.NewCalculator(track.Default()...).Compute(ctx, m.TrackIDs(), m, features.NewStore())
	if len(batch.Reports) != 0 {
		t.Errorf("expected no analyzer to run, got %d reports", len(batch.Reports))
	}
}
