package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	stageRunsDesc = prometheus.NewDesc(
		"trackfeat_stage_runs_total",
		"Number of timed runs per pipeline stage.",
		[]string{"stage"}, nil,
	)
	stageSecondsDesc = prometheus.NewDesc(
		"trackfeat_stage_seconds_total",
		"Total wall-clock seconds spent per pipeline stage.",
		[]string{"stage"}, nil,
	)
	stageMaxDesc = prometheus.NewDesc(
		"trackfeat_stage_max_seconds",
		"Slowest single run per pipeline stage.",
		[]string{"stage"}, nil,
	)
	tracksDesc = prometheus.NewDesc(
		"trackfeat_tracks_total",
		"Tracks processed by analyzers, by outcome.",
		[]string{"outcome"}, nil,
	)
)

// collector snapshots the in-memory metrics at gather time.
type collector struct{}

func (collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- stageRunsDesc
	ch <- stageSecondsDesc
	ch <- stageMaxDesc
	ch <- tracksDesc
}

func (collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range AllTimingMetrics() {
		s := m.Stats()
		ch <- prometheus.MustNewConstMetric(stageRunsDesc, prometheus.CounterValue, float64(s.Count), s.Name)
		ch <- prometheus.MustNewConstMetric(stageSecondsDesc, prometheus.CounterValue, s.TotalMs/1e3, s.Name)
		ch <- prometheus.MustNewConstMetric(stageMaxDesc, prometheus.GaugeValue, s.MaxMs/1e3, s.Name)
	}
	ch <- prometheus.MustNewConstMetric(tracksDesc, prometheus.CounterValue, float64(TracksComputed.Value()), "computed")
	ch <- prometheus.MustNewConstMetric(tracksDesc, prometheus.CounterValue, float64(TracksFailed.Value()), "failed")
}

// Registry returns a Prometheus registry exposing all trackfeat metrics.
func Registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collector{})
	return reg
}

// WriteTextfile writes the current metrics to path in Prometheus text
// format, suitable for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry())
}
