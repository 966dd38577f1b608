package track

import (
	"context"

	"github.com/vanderheijden86/trackfeat/pkg/features"
	"github.com/vanderheijden86/trackfeat/pkg/model"
)

// Feature keys produced by BranchingAnalyzer.
const (
	BranchingKey  = "Branching"
	NumberSpots   = "NUMBER_SPOTS"
	NumberSplits  = "NUMBER_SPLITS"
	NumberMerges  = "NUMBER_MERGES"
	NumberComplex = "NUMBER_COMPLEX"
)

// BranchingAnalyzer counts the spots of a track and the points where it
// divides or fuses. A split is a spot linked to more than one later spot, a
// merge a spot linked to more than one earlier spot; a spot that is both
// counts as complex.
type BranchingAnalyzer struct {
	declaration
	features.Parallel
}

func NewBranchingAnalyzer() *BranchingAnalyzer {
	return &BranchingAnalyzer{
		declaration: declaration{
			key:  BranchingKey,
			info: "Number of spots, splits, merges and complex points.",
			features: []feature{
				{key: NumberSpots, name: "Number of spots in track", shortName: "N spots", dim: model.DimensionNone, isInt: true},
				{key: NumberSplits, name: "Number of split events", shortName: "Splits", dim: model.DimensionNone, isInt: true},
				{key: NumberMerges, name: "Number of merge events", shortName: "Merges", dim: model.DimensionNone, isInt: true},
				{key: NumberComplex, name: "Complex points", shortName: "Complex", dim: model.DimensionNone, isInt: true},
			},
		},
	}
}

func (a *BranchingAnalyzer) Process(ctx context.Context, trackIDs []int, g features.TrackGraph, store *features.Store) *features.Report {
	return a.Run(ctx, a, trackIDs, g, store, computeBranching)
}

func computeBranching(spots []*model.Spot, edges []model.Edge) (features.Values, error) {
	if len(spots) == 0 {
		return nil, features.ErrEmptyTrack
	}

	later := make(map[int]int, len(spots))
	earlier := make(map[int]int, len(spots))
	for _, e := range edges {
		ts, err := e.Source.Time()
		if err != nil {
			return nil, err
		}
		tt, err := e.Target.Time()
		if err != nil {
			return nil, err
		}
		switch {
		case ts < tt:
			later[e.Source.ID]++
			earlier[e.Target.ID]++
		case tt < ts:
			later[e.Target.ID]++
			earlier[e.Source.ID]++
		}
	}

	var splits, merges, complexPts int
	for _, s := range spots {
		split := later[s.ID] > 1
		merge := earlier[s.ID] > 1
		switch {
		case split && merge:
			complexPts++
		case split:
			splits++
		case merge:
			merges++
		}
	}
	return features.Values{
		NumberSpots:   features.Defined(float64(len(spots))),
		NumberSplits:  features.Defined(float64(splits)),
		NumberMerges:  features.Defined(float64(merges)),
		NumberComplex: features.Defined(float64(complexPts)),
	}, nil
}
