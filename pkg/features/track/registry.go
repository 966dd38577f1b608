package track

import (
	"fmt"

	"github.com/vanderheijden86/trackfeat/pkg/features"
)

// Keys lists the analyzer keys known to this package, in run order.
var Keys = []string{LengthKey, DurationKey, SpeedKey, BranchingKey}

// New returns a fresh analyzer for key.
func New(key string) (features.TrackAnalyzer, error) {
	switch key {
	case LengthKey:
		return NewLengthAnalyzer(), nil
	case DurationKey:
		return NewDurationAnalyzer(), nil
	case SpeedKey:
		return NewSpeedAnalyzer(), nil
	case BranchingKey:
		return NewBranchingAnalyzer(), nil
	default:
		return nil, fmt.Errorf("unknown track analyzer %q (known: %v)", key, Keys)
	}
}

// Default returns one instance of every analyzer, in run order.
func Default() []features.TrackAnalyzer {
	out, _ := ByKey(Keys...)
	return out
}

// ByKey returns analyzers for the given keys, in the order given.
// Duplicate keys are ignored.
func ByKey(keys ...string) ([]features.TrackAnalyzer, error) {
	seen := make(map[string]bool, len(keys))
	out := make([]features.TrackAnalyzer, 0, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		a, err := New(k)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

var (
	_ features.TrackAnalyzer = (*LengthAnalyzer)(nil)
	_ features.TrackAnalyzer = (*DurationAnalyzer)(nil)
	_ features.TrackAnalyzer = (*SpeedAnalyzer)(nil)
	_ features.TrackAnalyzer = (*BranchingAnalyzer)(nil)
)
