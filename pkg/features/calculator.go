package features

import (
	"context"
	"log"
	"time"

	"github.com/vanderheijden86/trackfeat/pkg/debug"
)

// Calculator runs a set of track analyzers over the same batch of tracks.
type Calculator struct {
	analyzers  []TrackAnalyzer
	numThreads int
	logger     *log.Logger
}

// NewCalculator returns a calculator running analyzers in the given order.
func NewCalculator(analyzers ...TrackAnalyzer) *Calculator {
	return &Calculator{analyzers: analyzers}
}

// SetNumThreads overrides the worker count of every analyzer. n <= 0 keeps
// each analyzer's own setting.
func (c *Calculator) SetNumThreads(n int) {
	c.numThreads = n
}

// SetLogger sets the logger receiving per-track failures.
func (c *Calculator) SetLogger(logger *log.Logger) {
	c.logger = logger
}

// Analyzers returns the analyzers in run order.
func (c *Calculator) Analyzers() []TrackAnalyzer {
	out := make([]TrackAnalyzer, len(c.analyzers))
	copy(out, c.analyzers)
	return out
}

// Compute declares every analyzer's features in store, then runs the
// analyzers one after the other, each of them in parallel over trackIDs.
func (c *Calculator) Compute(ctx context.Context, trackIDs []int, g TrackGraph, store *Store) *BatchReport {
	defer debug.LogEnterExit("Calculator.Compute")()

	start := time.Now()
	batch := &BatchReport{}
	for _, a := range c.analyzers {
		store.DeclareTrackFeatures(a)
	}
	for _, a := range c.analyzers {
		if ctx.Err() != nil {
			break
		}
		if c.numThreads > 0 {
			a.SetNumThreads(c.numThreads)
		}
		rep := a.Process(ctx, trackIDs, g, store)
		c.logReport(rep)
		batch.Reports = append(batch.Reports, rep)
	}
	batch.Elapsed = time.Since(start)
	return batch
}

func (c *Calculator) logReport(rep *Report) {
	if c.logger == nil {
		return
	}
	for _, f := range rep.Failures {
		c.logger.Printf("Track %d: %s failed: %v", f.TrackID, f.Analyzer, f.Err)
	}
	if len(rep.Skipped) > 0 {
		c.logger.Printf("%s: %d tracks skipped after cancellation", rep.Analyzer, len(rep.Skipped))
	}
}
