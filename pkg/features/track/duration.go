package track

import (
	"context"

	"github.com/vanderheijden86/trackfeat/pkg/features"
	"github.com/vanderheijden86/trackfeat/pkg/model"
)

// Feature keys produced by DurationAnalyzer.
const (
	DurationKey       = "Duration"
	TrackDuration     = "TRACK_DURATION"
	TrackStart        = "TRACK_START"
	TrackStop         = "TRACK_STOP"
	TrackDisplacement = "TRACK_DISPLACEMENT"
)

// DurationAnalyzer computes when a track starts and stops and how far its
// last spot lies from its first.
type DurationAnalyzer struct {
	declaration
	features.Parallel
}

func NewDurationAnalyzer() *DurationAnalyzer {
	return &DurationAnalyzer{
		declaration: declaration{
			key:  DurationKey,
			info: "Track start, stop, duration and net displacement.",
			features: []feature{
				{key: TrackDuration, name: "Track duration", shortName: "Duration", dim: model.DimensionTime},
				{key: TrackStart, name: "Track start", shortName: "Track start", dim: model.DimensionTime},
				{key: TrackStop, name: "Track stop", shortName: "Track stop", dim: model.DimensionTime},
				{key: TrackDisplacement, name: "Track displacement", shortName: "Displacement", dim: model.DimensionLength},
			},
		},
	}
}

func (a *DurationAnalyzer) Process(ctx context.Context, trackIDs []int, g features.TrackGraph, store *features.Store) *features.Report {
	return a.Run(ctx, a, trackIDs, g, store, computeDuration)
}

func computeDuration(spots []*model.Spot, _ []model.Edge) (features.Values, error) {
	if len(spots) == 0 {
		return nil, features.ErrEmptyTrack
	}
	start, end, err := timeExtremes(spots)
	if err != nil {
		return nil, err
	}
	t0, _ := start.Time()
	t1, _ := end.Time()
	displacement, err := start.DistanceTo(end)
	if err != nil {
		return nil, err
	}
	return features.Values{
		TrackDuration:     features.Defined(t1 - t0),
		TrackStart:        features.Defined(t0),
		TrackStop:         features.Defined(t1),
		TrackDisplacement: features.Defined(displacement),
	}, nil
}
