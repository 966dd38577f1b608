package track

import (
	"context"

	"github.com/vanderheijden86/trackfeat/pkg/features"
	"github.com/vanderheijden86/trackfeat/pkg/model"
)

// Feature keys produced by LengthAnalyzer.
const (
	LengthKey        = "Length"
	TrackLength      = "TRACK_LENGTH"
	ConfinementIndex = "CONFINEMENT_INDEX"
)

// LengthAnalyzer computes the total path length of a track and its
// confinement index: net displacement between the first and last spot in
// time, divided by the path length.
type LengthAnalyzer struct {
	declaration
	features.Parallel
}

// NewLengthAnalyzer returns a LengthAnalyzer using all CPUs.
func NewLengthAnalyzer() *LengthAnalyzer {
	return &LengthAnalyzer{
		declaration: declaration{
			key:  LengthKey,
			info: "Total path length and confinement index (displacement / length).",
			features: []feature{
				{key: TrackLength, name: "Track length", shortName: "Length", dim: model.DimensionLength},
				// Kept as LENGTH to match the established feature tables,
				// although the index itself is dimensionless.
				{key: ConfinementIndex, name: "Confinement Index", shortName: "Confinement", dim: model.DimensionLength},
			},
		},
	}
}

// Process computes TRACK_LENGTH and CONFINEMENT_INDEX for every track.
func (a *LengthAnalyzer) Process(ctx context.Context, trackIDs []int, g features.TrackGraph, store *features.Store) *features.Report {
	return a.Run(ctx, a, trackIDs, g, store, computeLength)
}

// computeLength sums edge lengths, then picks the start and end spots by
// scanning every spot of the track, whether or not an edge covers it. Ties
// on POSITION_T keep the first spot in iteration order.
func computeLength(spots []*model.Spot, edges []model.Edge) (features.Values, error) {
	if len(spots) == 0 {
		return nil, features.ErrEmptyTrack
	}

	length := 0.0
	for _, e := range edges {
		d, err := e.Length()
		if err != nil {
			return nil, err
		}
		length += d
	}

	start, end, err := timeExtremes(spots)
	if err != nil {
		return nil, err
	}
	displacement, err := start.DistanceTo(end)
	if err != nil {
		return nil, err
	}

	confinement := features.Undefined
	if length > 0 {
		confinement = features.Defined(displacement / length)
	}
	return features.Values{
		TrackLength:      features.Defined(length),
		ConfinementIndex: confinement,
	}, nil
}
