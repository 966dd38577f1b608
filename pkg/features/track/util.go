package track

import (
	"math"

	"github.com/vanderheijden86/trackfeat/pkg/model"
)

// timeExtremes returns the spots with the smallest and largest POSITION_T.
// A spot only replaces the current pick on a strictly smaller (larger)
// time, so ties go to the first spot in iteration order. Every spot is
// validated, not only the extremes.
func timeExtremes(spots []*model.Spot) (start, end *model.Spot, err error) {
	minT := math.Inf(1)
	maxT := math.Inf(-1)
	for _, s := range spots {
		if err := s.Validate(); err != nil {
			return nil, nil, err
		}
		t, _ := s.Time()
		if t < minT {
			minT = t
			start = s
		}
		if t > maxT {
			maxT = t
			end = s
		}
	}
	return start, end, nil
}
