package features

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vanderheijden86/trackfeat/pkg/debug"
	"github.com/vanderheijden86/trackfeat/pkg/metrics"
	"github.com/vanderheijden86/trackfeat/pkg/model"
	"github.com/vanderheijden86/trackfeat/pkg/workpool"
)

// TrackFunc computes the features of a single track. It must treat spots
// and edges as read-only.
type TrackFunc func(spots []*model.Spot, edges []model.Edge) (Values, error)

// Parallel carries the worker count and timing bookkeeping shared by track
// analyzers. Embed it and call Run from Process.
type Parallel struct {
	numThreads     atomic.Int64
	processingTime atomic.Int64
}

// NumThreads returns the configured worker count; the host CPU count when
// unset.
func (p *Parallel) NumThreads() int {
	if n := int(p.numThreads.Load()); n > 0 {
		return n
	}
	return workpool.DefaultWorkers()
}

// SetNumThreads sets the worker count. n <= 0 restores the default.
func (p *Parallel) SetNumThreads(n int) {
	if n < 0 {
		n = 0
	}
	p.numThreads.Store(int64(n))
}

// ProcessingTime returns the duration of the last Run.
func (p *Parallel) ProcessingTime() time.Duration {
	return time.Duration(p.processingTime.Load())
}

// Run drains trackIDs through a worker pool, calling fn per track and
// writing its values into store. When fn fails for a track, every feature of
// a is set to Undefined for that track, so no stale value from an earlier
// run survives next to the failure.
func (p *Parallel) Run(ctx context.Context, a FeatureAnalyzer, trackIDs []int, g TrackGraph, store *Store, fn TrackFunc) *Report {
	key := a.Key()
	queue := workpool.NewQueue(trackIDs)
	report := &Report{Analyzer: key, Tracks: queue.Size()}
	if queue.Size() == 0 {
		p.processingTime.Store(0)
		return report
	}

	res := workpool.Drain(ctx, p.NumThreads(), queue, func(_ context.Context, trackID int) error {
		defer metrics.Timer(metrics.TrackCompute)()
		vals, err := fn(g.TrackSpots(trackID), g.TrackEdges(trackID))
		if err != nil {
			return err
		}
		store.PutTrackValues(trackID, vals)
		return nil
	})

	for _, f := range res.Failures {
		undefined := make(Values, len(a.Features()))
		for _, k := range a.Features() {
			undefined[k] = Undefined
		}
		store.PutTrackValues(f.Item, undefined)
		report.Failures = append(report.Failures, &TrackError{TrackID: f.Item, Analyzer: key, Err: f.Err})
	}
	report.Computed = res.Processed
	report.Skipped = res.Skipped
	report.Elapsed = res.Elapsed
	p.processingTime.Store(int64(res.Elapsed))

	metrics.Analyzer(key).Record(res.Elapsed)
	metrics.TracksComputed.Add(int64(res.Processed))
	metrics.TracksFailed.Add(int64(len(res.Failures)))
	debug.Log("%s: %d tracks on %d workers (%d failed, %d skipped)",
		key, report.Tracks, res.Workers, len(res.Failures), len(res.Skipped))
	debug.LogTiming("analyzer "+key, res.Elapsed)

	return report
}
