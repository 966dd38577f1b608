package features

import (
	"errors"
	"fmt"
	"time"
)

// TrackError is the failure of one analyzer on one track.
type TrackError struct {
	TrackID  int
	Analyzer string
	Err      error
}

func (e *TrackError) Error() string {
	return fmt.Sprintf("%s: track %d: %v", e.Analyzer, e.TrackID, e.Err)
}

func (e *TrackError) Unwrap() error { return e.Err }

// Report is the outcome of one TrackAnalyzer.Process call.
type Report struct {
	Analyzer string
	Tracks   int // distinct tracks submitted
	Computed int
	Failures []*TrackError
	Skipped  []int // not processed because the context was cancelled
	Elapsed  time.Duration
}

// Err joins all per-track failures, or returns nil.
func (r *Report) Err() error {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Failed returns the failure recorded for a track, if any.
func (r *Report) Failed(trackID int) (*TrackError, bool) {
	for _, f := range r.Failures {
		if f.TrackID == trackID {
			return f, true
		}
	}
	return nil, false
}

// BatchReport collects the reports of every analyzer run by a Calculator.
type BatchReport struct {
	Reports []*Report
	Elapsed time.Duration
}

// Err joins the failures of every analyzer, or returns nil.
func (b *BatchReport) Err() error {
	var errs []error
	for _, r := range b.Reports {
		if err := r.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FailedTracks maps each failed track to its failures across analyzers.
func (b *BatchReport) FailedTracks() map[int][]*TrackError {
	out := make(map[int][]*TrackError)
	for _, r := range b.Reports {
		for _, f := range r.Failures {
			out[f.TrackID] = append(out[f.TrackID], f)
		}
	}
	return out
}

// Report returns the report of one analyzer.
func (b *BatchReport) Report(analyzerKey string) (*Report, bool) {
	for _, r := range b.Reports {
		if r.Analyzer == analyzerKey {
			return r, true
		}
	}
	return nil, false
}
