package features

import (
	"encoding/json"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/vanderheijden86/trackfeat/pkg/model"
)

func TestValueSentinel(t *testing.T) {
	for name, v := range map[string]Value{
		"undefined": Undefined,
		"NaN":       Defined(math.NaN()),
		"-Inf":      Defined(math.Inf(-1)),
	} {
		if v.IsDefined() {
			t.Errorf("%s should be undefined", name)
		}
	}

	if f, ok := Defined(2.5).Float64(); !ok || f != 2.5 {
		t.Errorf("Defined(2.5).Float64() = %v, %v", f, ok)
	}
	if got := Undefined.Or(7); got != 7 {
		t.Errorf("Undefined.Or(7) = %v", got)
	}
	if got := Undefined.String(); got != "undefined" {
		t.Errorf("Undefined.String() = %q", got)
	}
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal(Values{"A": Defined(1.5), "B": Undefined})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// encoding/json sorts map keys.
	if string(data) != `{"A":1.5,"B":null}` {
		t.Errorf("unexpected JSON %s", data)
	}

	var back Values
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back["A"] != Defined(1.5) || back["B"] != Undefined {
		t.Errorf("unexpected round trip %v", back)
	}
}

func TestStorePutGet(t *testing.T) {
	s := NewStore()
	s.PutTrackFeature(3, "TRACK_LENGTH", 12)
	s.PutTrackFeature(3, "CONFINEMENT_INDEX", math.Inf(1))
	s.PutTrackValue(-5, "TRACK_LENGTH", Defined(1))

	if v, ok := s.TrackFeature(3, "TRACK_LENGTH"); !ok || v != Defined(12) {
		t.Errorf("expected TRACK_LENGTH=12, got %v (present=%v)", v, ok)
	}

	v, ok := s.TrackFeature(3, "CONFINEMENT_INDEX")
	if !ok {
		t.Fatal("an undefined value is still stored")
	}
	if v.IsDefined() {
		t.Error("infinity must not be stored as a valid number")
	}

	if _, ok := s.TrackFeature(4, "TRACK_LENGTH"); ok {
		t.Error("unknown track should have no features")
	}

	if ids := s.TrackIDs(); !reflect.DeepEqual(ids, []int{-5, 3}) {
		t.Errorf("expected sorted IDs [-5 3], got %v", ids)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 tracks, got %d", s.Len())
	}

	s.RemoveTrack(3)
	if ids := s.TrackIDs(); !reflect.DeepEqual(ids, []int{-5}) {
		t.Errorf("expected [-5] after removal, got %v", ids)
	}
}

func TestStoreSnapshotIsCopy(t *testing.T) {
	s := NewStore()
	s.PutTrackFeature(1, "K", 1)
	snap := s.Snapshot()
	snap[1]["K"] = Defined(99)

	if v, _ := s.TrackFeature(1, "K"); v != Defined(1) {
		t.Errorf("mutating a snapshot changed the store: %v", v)
	}

	feats := s.TrackFeatures(1)
	feats["K"] = Defined(42)
	if v, _ := s.TrackFeature(1, "K"); v != Defined(1) {
		t.Errorf("mutating TrackFeatures changed the store: %v", v)
	}
}

func TestStoreConcurrentDistinctTracks(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < 4000; i += 8 {
				s.PutTrackValues(i, Values{"A": Defined(float64(i)), "B": Undefined})
			}
		}(w)
	}
	wg.Wait()

	if s.Len() != 4000 {
		t.Fatalf("expected 4000 tracks, got %d", s.Len())
	}
	for i := 0; i < 4000; i++ {
		if v, ok := s.TrackFeature(i, "A"); !ok || v != Defined(float64(i)) {
			t.Fatalf("track %d: got %v (present=%v)", i, v, ok)
		}
	}
}

type stubAnalyzer struct {
	key   string
	feats []string
}

func (s stubAnalyzer) Key() string        { return s.key }
func (s stubAnalyzer) Name() string       { return s.key }
func (s stubAnalyzer) InfoText() string   { return "" }
func (s stubAnalyzer) Features() []string { return s.feats }
func (s stubAnalyzer) FeatureNames() map[string]string {
	out := map[string]string{}
	for _, f := range s.feats {
		out[f] = "name " + f
	}
	return out
}
func (s stubAnalyzer) FeatureShortNames() map[string]string { return map[string]string{} }
func (s stubAnalyzer) FeatureDimensions() map[string]model.Dimension {
	out := map[string]model.Dimension{}
	for _, f := range s.feats {
		out[f] = model.DimensionLength
	}
	return out
}
func (s stubAnalyzer) IsIntFeature() map[string]bool { return map[string]bool{} }
func (s stubAnalyzer) IsManualFeature() bool         { return false }

func TestStoreDeclarations(t *testing.T) {
	s := NewStore()
	s.DeclareTrackFeatures(stubAnalyzer{key: "One", feats: []string{"A", "B"}})
	s.DeclareTrackFeatures(stubAnalyzer{key: "Two", feats: []string{"C", "A"}})

	decls := s.Declarations()
	if len(decls) != 3 {
		t.Fatalf("expected 3 declarations, got %d", len(decls))
	}
	if decls[0].Key != "A" || decls[0].Analyzer != "Two" {
		t.Errorf("redeclaring should replace metadata in place, got %+v", decls[0])
	}
	if decls[2].Key != "C" {
		t.Errorf("expected C declared last, got %s", decls[2].Key)
	}

	info, ok := s.Declaration("B")
	if !ok {
		t.Fatal("B should be declared")
	}
	if info.Name != "name B" || info.Dimension != model.DimensionLength {
		t.Errorf("unexpected metadata %+v", info)
	}
}
