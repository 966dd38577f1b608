// Package metrics provides performance instrumentation for trackfeat.
//
// Timing metrics are collected in-memory with atomic operations and can be
// exported in Prometheus text format for batch-job scraping. Collection is
// enabled by default but can be disabled via TRACKFEAT_METRICS=0.
//
// Usage:
//
//	func load() {
//	    defer metrics.Timer(metrics.GraphLoad)()
//	    // ...
//	}
package metrics

import (
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// enabled controls whether metrics are collected.
var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("TRACKFEAT_METRICS") != "0")
}

// Enabled returns whether metrics collection is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled allows programmatic control of metrics collection.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// TimingMetric tracks timing statistics for a named operation.
// All methods are thread-safe.
type TimingMetric struct {
	name    string
	count   atomic.Int64
	totalNs atomic.Int64
	maxNs   atomic.Int64
	minNs   atomic.Int64 // 0 means not set
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record records a single timing measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	ns := d.Nanoseconds()
	if ns <= 0 {
		// Keep 0 reserved as "min not set".
		ns = 1
	}

	m.count.Add(1)
	m.totalNs.Add(ns)

	for {
		old := m.maxNs.Load()
		if ns <= old || m.maxNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.minNs.Load()
		if old != 0 && ns >= old {
			break
		}
		if m.minNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string { return m.name }

// Count returns the number of recorded measurements.
func (m *TimingMetric) Count() int64 { return m.count.Load() }

// Stats returns all timing statistics at once.
func (m *TimingMetric) Stats() TimingStats {
	count := m.count.Load()
	totalNs := m.totalNs.Load()

	var avgNs int64
	if count > 0 {
		avgNs = totalNs / count
	}
	return TimingStats{
		Name:    m.name,
		Count:   count,
		TotalMs: float64(totalNs) / 1e6,
		AvgMs:   float64(avgNs) / 1e6,
		MaxMs:   float64(m.maxNs.Load()) / 1e6,
		MinMs:   float64(m.minNs.Load()) / 1e6,
	}
}

// Reset clears all recorded measurements.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.totalNs.Store(0)
	m.maxNs.Store(0)
	m.minNs.Store(0)
}

// TimingStats holds a snapshot of timing statistics.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Timer returns a function that records elapsed time when called.
func Timer(m *TimingMetric) func() {
	if !Enabled() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.Record(time.Since(start))
	}
}

// Fixed pipeline stages.
var (
	GraphLoad    = newTimingMetric("graph_load")
	TrackCompute = newTimingMetric("track_compute")
	Export       = newTimingMetric("export")
)

// analyzer batch timings are created on first use, one per analyzer key.
var (
	analyzerMu      sync.Mutex
	analyzerMetrics = map[string]*TimingMetric{}
)

// Analyzer returns the batch timing metric for an analyzer key.
func Analyzer(key string) *TimingMetric {
	analyzerMu.Lock()
	defer analyzerMu.Unlock()
	m, ok := analyzerMetrics[key]
	if !ok {
		m = newTimingMetric("analyzer_" + key)
		analyzerMetrics[key] = m
	}
	return m
}

// AllTimingMetrics returns all registered timing metrics, analyzers sorted
// by name after the fixed stages.
func AllTimingMetrics() []*TimingMetric {
	out := []*TimingMetric{GraphLoad, TrackCompute, Export}

	analyzerMu.Lock()
	dyn := make([]*TimingMetric, 0, len(analyzerMetrics))
	for _, m := range analyzerMetrics {
		dyn = append(dyn, m)
	}
	analyzerMu.Unlock()

	sort.Slice(dyn, func(i, j int) bool { return dyn[i].name < dyn[j].name })
	return append(out, dyn...)
}

// ResetAll resets all timing metrics and track counters.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
	TracksComputed.Reset()
	TracksFailed.Reset()
}

// AllTimingStats returns stats for all timing metrics that have data.
func AllTimingStats() []TimingStats {
	all := AllTimingMetrics()
	stats := make([]TimingStats, 0, len(all))
	for _, m := range all {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}
