package testutil

import (
	"math"
	"testing"

	"github.com/vanderheijden86/trackfeat/pkg/features"
)

// Tolerance is the absolute tolerance used by AssertFeature.
const Tolerance = 1e-9

// AssertFeature verifies that a defined value close to want is stored.
func AssertFeature(t *testing.T, store *features.Store, trackID int, key string, want float64) {
	t.Helper()
	v, ok := store.TrackFeature(trackID, key)
	if !ok {
		t.Errorf("track %d: %s not stored", trackID, key)
		return
	}
	got, defined := v.Float64()
	if !defined {
		t.Errorf("track %d: %s is undefined, want %g", trackID, key, want)
		return
	}
	if math.Abs(got-want) > Tolerance {
		t.Errorf("track %d: %s = %g, want %g", trackID, key, got, want)
	}
}

// AssertUndefined verifies that the Undefined sentinel is stored.
func AssertUndefined(t *testing.T, store *features.Store, trackID int, key string) {
	t.Helper()
	v, ok := store.TrackFeature(trackID, key)
	if !ok {
		t.Errorf("track %d: %s not stored", trackID, key)
		return
	}
	if v.IsDefined() {
		t.Errorf("track %d: %s = %v, want undefined", trackID, key, v)
	}
}

// AssertSameStores verifies two stores hold identical tables.
func AssertSameStores(t *testing.T, a, b *features.Store) {
	t.Helper()
	sa, sb := a.Snapshot(), b.Snapshot()
	if len(sa) != len(sb) {
		t.Fatalf("stores hold %d and %d tracks", len(sa), len(sb))
	}
	for id, va := range sa {
		vb, ok := sb[id]
		if !ok {
			t.Errorf("track %d missing from second store", id)
			continue
		}
		if len(va) != len(vb) {
			t.Errorf("track %d: %d vs %d features", id, len(va), len(vb))
		}
		for k, x := range va {
			if y := vb[k]; x != y {
				t.Errorf("track %d: %s differs: %v vs %v", id, k, x, y)
			}
		}
	}
}
