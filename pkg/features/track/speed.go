package track

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/trackfeat/pkg/features"
	"github.com/vanderheijden86/trackfeat/pkg/model"
)

// Feature keys produced by SpeedAnalyzer.
const (
	SpeedKey         = "Speed"
	TrackMeanSpeed   = "TRACK_MEAN_SPEED"
	TrackMaxSpeed    = "TRACK_MAX_SPEED"
	TrackMinSpeed    = "TRACK_MIN_SPEED"
	TrackMedianSpeed = "TRACK_MEDIAN_SPEED"
	TrackStdSpeed    = "TRACK_STD_SPEED"
)

// SpeedAnalyzer computes statistics of the instantaneous speed along a
// track, one speed per edge: edge length over the time between its spots.
// Edges joining two spots at the same time carry no speed and are skipped.
type SpeedAnalyzer struct {
	declaration
	features.Parallel
}

func NewSpeedAnalyzer() *SpeedAnalyzer {
	return &SpeedAnalyzer{
		declaration: declaration{
			key:  SpeedKey,
			info: "Mean, median, min, max and standard deviation of edge speeds.",
			features: []feature{
				{key: TrackMeanSpeed, name: "Track mean speed", shortName: "Mean sp.", dim: model.DimensionVelocity},
				{key: TrackMaxSpeed, name: "Track max speed", shortName: "Max speed", dim: model.DimensionVelocity},
				{key: TrackMinSpeed, name: "Track min speed", shortName: "Min speed", dim: model.DimensionVelocity},
				{key: TrackMedianSpeed, name: "Track median speed", shortName: "Med. speed", dim: model.DimensionVelocity},
				{key: TrackStdSpeed, name: "Track std speed", shortName: "Std speed", dim: model.DimensionVelocity},
			},
		},
	}
}

func (a *SpeedAnalyzer) Process(ctx context.Context, trackIDs []int, g features.TrackGraph, store *features.Store) *features.Report {
	return a.Run(ctx, a, trackIDs, g, store, a.compute)
}

func (a *SpeedAnalyzer) compute(spots []*model.Spot, edges []model.Edge) (features.Values, error) {
	if len(spots) == 0 {
		return nil, features.ErrEmptyTrack
	}
	for _, s := range spots {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	speeds := make([]float64, 0, len(edges))
	for _, e := range edges {
		d, err := e.Length()
		if err != nil {
			return nil, err
		}
		t0, err := e.Source.Time()
		if err != nil {
			return nil, err
		}
		t1, err := e.Target.Time()
		if err != nil {
			return nil, err
		}
		dt := math.Abs(t1 - t0)
		if dt == 0 {
			continue
		}
		speeds = append(speeds, d/dt)
	}

	vals := a.undefinedAll()
	if len(speeds) == 0 {
		return vals, nil
	}
	sort.Float64s(speeds)

	vals[TrackMeanSpeed] = features.Defined(stat.Mean(speeds, nil))
	vals[TrackMinSpeed] = features.Defined(speeds[0])
	vals[TrackMaxSpeed] = features.Defined(speeds[len(speeds)-1])
	vals[TrackMedianSpeed] = features.Defined(median(speeds))
	if len(speeds) > 1 {
		vals[TrackStdSpeed] = features.Defined(stat.StdDev(speeds, nil))
	}
	return vals, nil
}

// median expects sorted input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
