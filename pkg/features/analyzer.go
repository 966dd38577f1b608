// Package features computes derived numeric features over a tracked spot
// graph and keeps them in a shared Store.
//
// A TrackAnalyzer computes a fixed set of features for each track it is
// given. Analyzers process tracks in parallel: track IDs go into a queue
// that a pool of workers drains, and each worker writes the values for its
// track into the Store. Tracks never depend on each other, so the result
// does not depend on the number of workers or on scheduling.
package features

import (
	"context"
	"errors"
	"time"

	"github.com/vanderheijden86/trackfeat/pkg/model"
)

// ErrEmptyTrack is returned for a track ID the graph has no spots for.
var ErrEmptyTrack = errors.New("track has no spots")

// TrackGraph gives read-only access to one track at a time.
type TrackGraph interface {
	// TrackSpots returns the spots of a track in a fixed, reproducible
	// order.
	TrackSpots(trackID int) []*model.Spot
	// TrackEdges returns the edges of a track.
	TrackEdges(trackID int) []model.Edge
}

// FeatureAnalyzer describes the features an analyzer produces. This is
// metadata only; reporting layers use it to label and format values.
type FeatureAnalyzer interface {
	Key() string
	Name() string
	InfoText() string
	Features() []string
	FeatureNames() map[string]string
	FeatureShortNames() map[string]string
	FeatureDimensions() map[string]model.Dimension
	IsIntFeature() map[string]bool
	IsManualFeature() bool
}

// TrackAnalyzer computes track features for a batch of tracks.
type TrackAnalyzer interface {
	FeatureAnalyzer

	// Process computes the features of every track in trackIDs and writes
	// them into store. It blocks until the whole batch is done. Failures
	// are isolated per track and listed in the returned Report.
	Process(ctx context.Context, trackIDs []int, g TrackGraph, store *Store) *Report

	// ProcessingTime is the wall-clock duration of the last Process call.
	ProcessingTime() time.Duration

	// IsLocal reports whether a track's features depend on that track only.
	IsLocal() bool

	NumThreads() int
	SetNumThreads(n int)
}
