package metrics

import "sync/atomic"

// Counter is a monotonically increasing, thread-safe count.
type Counter struct {
	name string
	n    atomic.Int64
}

// Add increments the counter by delta when collection is enabled.
func (c *Counter) Add(delta int64) {
	if !Enabled() {
		return
	}
	c.n.Add(delta)
}

// Value returns the current count.
func (c *Counter) Value() int64 { return c.n.Load() }

// Name returns the counter name.
func (c *Counter) Name() string { return c.name }

// Reset sets the counter back to zero.
func (c *Counter) Reset() { c.n.Store(0) }

var (
	TracksComputed = &Counter{name: "tracks_computed"}
	TracksFailed   = &Counter{name: "tracks_failed"}
)
