package track

import (
	"context"
	"errors"
	"math"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/trackfeat/pkg/features"
	"github.com/vanderheijden86/trackfeat/pkg/model"
	"github.com/vanderheijden86/trackfeat/pkg/testutil"
)

// fakeGraph lets tests hand analyzers spot and edge sets that a connected
// model would never produce, such as spots no edge covers.
type fakeGraph struct {
	spots map[int][]*model.Spot
	edges map[int][]model.Edge
}

func (g fakeGraph) TrackSpots(id int) []*model.Spot { return g.spots[id] }
func (g fakeGraph) TrackEdges(id int) []model.Edge  { return g.edges[id] }

func abc() (a, b, c *model.Spot) {
	a = model.NewSpotAt(1, 0, 0, 0, 0, 1)
	b = model.NewSpotAt(2, 3, 4, 0, 1, 1)
	c = model.NewSpotAt(3, 3, 4, 0, 2, 1)
	return a, b, c
}

func TestLengthThreeSpotTrack(t *testing.T) {
	a, b, c := abc()
	g := fakeGraph{
		spots: map[int][]*model.Spot{0: {a, b, c}},
		edges: map[int][]model.Edge{0: {model.NewEdge(a, b), model.NewEdge(b, c)}},
	}
	store := features.NewStore()
	rep := NewLengthAnalyzer().Process(context.Background(), []int{0}, g, store)
	if err := rep.Err(); err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}

	testutil.AssertFeature(t, store, 0, TrackLength, 5)
	testutil.AssertFeature(t, store, 0, ConfinementIndex, 1)
}

func TestLengthCountsIsolatedSpotForEndpoints(t *testing.T) {
	// C belongs to the track's spot set but no edge covers it. Length only
	// counts A-B; the end spot is still C.
	a, b, c := abc()
	g := fakeGraph{
		spots: map[int][]*model.Spot{0: {a, b, c}},
		edges: map[int][]model.Edge{0: {model.NewEdge(a, b)}},
	}
	store := features.NewStore()
	NewLengthAnalyzer().Process(context.Background(), []int{0}, g, store)

	testutil.AssertFeature(t, store, 0, TrackLength, 5)
	testutil.AssertFeature(t, store, 0, ConfinementIndex, 1)
}

func TestLengthTwoSpotsIsStraight(t *testing.T) {
	m := testutil.Chain(0, testutil.Point{X: 1, Y: 2, Z: 3, T: 0}, testutil.Point{X: -4, Y: 7, Z: 0.5, T: 3})
	store := features.NewStore()
	NewLengthAnalyzer().Process(context.Background(), m.TrackIDs(), m, store)

	want := math.Sqrt(25 + 25 + 6.25)
	testutil.AssertFeature(t, store, 0, TrackLength, want)
	testutil.AssertFeature(t, store, 0, ConfinementIndex, 1)
}

func TestLengthSingleSpotIsUndefined(t *testing.T) {
	m := testutil.Chain(0, testutil.Point{X: 1, Y: 1, T: 4})
	store := features.NewStore()
	rep := NewLengthAnalyzer().Process(context.Background(), m.TrackIDs(), m, store)
	if rep.Err() != nil {
		t.Fatalf("a single-spot track is not a failure: %v", rep.Err())
	}

	testutil.AssertFeature(t, store, 0, TrackLength, 0)
	testutil.AssertUndefined(t, store, 0, ConfinementIndex)
}

func TestLengthZeroLengthLoopIsUndefined(t *testing.T) {
	a := model.NewSpotAt(1, 2, 2, 2, 0, 1)
	b := model.NewSpotAt(2, 2, 2, 2, 1, 1)
	g := fakeGraph{
		spots: map[int][]*model.Spot{7: {a, b}},
		edges: map[int][]model.Edge{7: {model.NewEdge(a, b)}},
	}
	store := features.NewStore()
	NewLengthAnalyzer().Process(context.Background(), []int{7}, g, store)

	testutil.AssertFeature(t, store, 7, TrackLength, 0)
	testutil.AssertUndefined(t, store, 7, ConfinementIndex)
}

func TestLengthTieBreakKeepsFirstSpot(t *testing.T) {
	// Two spots share the earliest and the latest time; the first one in
	// iteration order wins both ties.
	s1 := model.NewSpotAt(1, 0, 0, 0, 0, 1)
	s2 := model.NewSpotAt(2, 10, 0, 0, 0, 1)
	s3 := model.NewSpotAt(3, 0, 3, 0, 5, 1)
	s4 := model.NewSpotAt(4, 0, 50, 0, 5, 1)
	g := fakeGraph{
		spots: map[int][]*model.Spot{0: {s1, s2, s3, s4}},
		edges: map[int][]model.Edge{0: {model.NewEdge(s1, s3)}},
	}
	store := features.NewStore()
	NewLengthAnalyzer().Process(context.Background(), []int{0}, g, store)

	// start = s1, end = s3: displacement 3 over length 3.
	testutil.AssertFeature(t, store, 0, ConfinementIndex, 1)
}

func TestLengthIncompleteSpotFailsOnlyItsTrack(t *testing.T) {
	a, b, _ := abc()
	broken := model.NewSpot(9, "broken", map[string]float64{model.PositionX: 1, model.PositionY: 1, model.PositionT: 1})
	ok := model.NewSpotAt(10, 0, 0, 0, 0, 1)
	g := fakeGraph{
		spots: map[int][]*model.Spot{0: {a, b}, 1: {ok, broken}},
		edges: map[int][]model.Edge{0: {model.NewEdge(a, b)}, 1: {model.NewEdge(ok, broken)}},
	}
	store := features.NewStore()
	rep := NewLengthAnalyzer().Process(context.Background(), []int{0, 1}, g, store)

	if rep.Computed != 1 || len(rep.Failures) != 1 {
		t.Fatalf("expected 1 computed / 1 failed, got %d / %d", rep.Computed, len(rep.Failures))
	}
	f, failed := rep.Failed(1)
	if !failed {
		t.Fatal("expected track 1 to fail")
	}
	if !errors.Is(f, model.ErrIncompleteSpotData) {
		t.Errorf("expected ErrIncompleteSpotData, got %v", f)
	}
	testutil.AssertFeature(t, store, 0, TrackLength, 5)
	testutil.AssertUndefined(t, store, 1, TrackLength)
	testutil.AssertUndefined(t, store, 1, ConfinementIndex)
}

func TestLengthUnknownTrackFails(t *testing.T) {
	store := features.NewStore()
	rep := NewLengthAnalyzer().Process(context.Background(), []int{42}, fakeGraph{}, store)
	if f, ok := rep.Failed(42); !ok || !errors.Is(f, features.ErrEmptyTrack) {
		t.Errorf("expected ErrEmptyTrack for unknown track, got %v", rep.Err())
	}
}

func TestLengthEmptyBatch(t *testing.T) {
	a := NewLengthAnalyzer()
	store := features.NewStore()
	rep := a.Process(context.Background(), nil, fakeGraph{}, store)
	if rep.Tracks != 0 || rep.Elapsed != 0 || a.ProcessingTime() != 0 {
		t.Errorf("expected an immediate no-op, got %+v", rep)
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d tracks", store.Len())
	}
}

func TestLengthIndependentOfEdgeOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 30).Draw(t, "spots")
		spots := make([]*model.Spot, n)
		for i := range spots {
			spots[i] = model.NewSpotAt(i,
				rapid.Float64Range(-100, 100).Draw(t, "x"),
				rapid.Float64Range(-100, 100).Draw(t, "y"),
				rapid.Float64Range(-10, 10).Draw(t, "z"),
				float64(i), 1)
		}
		edges := make([]model.Edge, 0, n-1)
		want := 0.0
		for i := 1; i < n; i++ {
			e := model.NewEdge(spots[i-1], spots[i])
			d, _ := e.Length()
			want += d
			edges = append(edges, e)
		}
		perm := rapid.Permutation(edges).Draw(t, "order")
		// Flip some edges too; edges are unordered pairs.
		for i := range perm {
			if rapid.Bool().Draw(t, "flip") {
				perm[i] = model.NewEdge(perm[i].Target, perm[i].Source)
			}
		}

		vals, err := computeLength(spots, perm)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, _ := vals[TrackLength].Float64()
		if math.Abs(got-want) > 1e-9*math.Max(1, want) {
			t.Fatalf("length %g, want %g", got, want)
		}
	})
}

func TestLengthSameResultForAnyWorkerCount(t *testing.T) {
	cfg := testutil.DefaultConfig()
	cfg.Tracks = 200
	cfg.Singletons = 10
	cfg.SplitChance = 0.05
	m := testutil.New(cfg).Model()

	serial := NewLengthAnalyzer()
	serial.SetNumThreads(1)
	s1 := features.NewStore()
	serial.Process(context.Background(), m.TrackIDs(), m, s1)

	parallel := NewLengthAnalyzer()
	parallel.SetNumThreads(8)
	s8 := features.NewStore()
	parallel.Process(context.Background(), m.TrackIDs(), m, s8)

	if s1.Len() != m.NTracks() {
		t.Fatalf("expected %d tracks, got %d", m.NTracks(), s1.Len())
	}
	testutil.AssertSameStores(t, s1, s8)
}

func TestLengthFewerTracksThanWorkers(t *testing.T) {
	cfg := testutil.DefaultConfig()
	cfg.Tracks = 3
	m := testutil.New(cfg).Model()

	a := NewLengthAnalyzer()
	a.SetNumThreads(64)
	store := features.NewStore()
	rep := a.Process(context.Background(), m.TrackIDs(), m, store)

	if rep.Computed != 3 {
		t.Fatalf("expected 3 computed tracks, got %d", rep.Computed)
	}
	for _, id := range m.TrackIDs() {
		if _, ok := store.TrackFeature(id, TrackLength); !ok {
			t.Errorf("track %d has no length", id)
		}
	}
}

func TestLengthDeclaration(t *testing.T) {
	a := NewLengthAnalyzer()
	if a.Key() != "Length" {
		t.Errorf("unexpected key %q", a.Key())
	}
	feats := a.Features()
	if len(feats) != 2 || feats[0] != TrackLength || feats[1] != ConfinementIndex {
		t.Errorf("unexpected features %v", feats)
	}
	if a.FeatureNames()[ConfinementIndex] != "Confinement Index" {
		t.Errorf("unexpected name %q", a.FeatureNames()[ConfinementIndex])
	}
	if a.FeatureShortNames()[TrackLength] != "Length" {
		t.Errorf("unexpected short name %q", a.FeatureShortNames()[TrackLength])
	}
	if a.FeatureDimensions()[TrackLength] != model.DimensionLength {
		t.Errorf("unexpected dimension %v", a.FeatureDimensions()[TrackLength])
	}
	if a.IsIntFeature()[TrackLength] || a.IsManualFeature() || !a.IsLocal() {
		t.Error("unexpected flags")
	}
}
