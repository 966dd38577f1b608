// Package trackmodel holds the spot graph produced by the tracking stage and
// exposes it one track at a time.
//
// Tracks are the connected components of the spot graph. A Model is
// immutable once built, so any number of analyzer goroutines may read it
// concurrently.
package trackmodel

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/trackfeat/pkg/model"
)

// Common errors.
var (
	ErrDuplicateSpot = errors.New("duplicate spot id")
	ErrUnknownSpot   = errors.New("unknown spot id")
	ErrSelfLink      = errors.New("spot linked to itself")
	ErrDuplicateEdge = errors.New("duplicate edge")
)

// Builder accumulates spots and edges before the tracks are resolved.
// It is not safe for concurrent use.
type Builder struct {
	SpaceUnits string
	TimeUnits  string

	g     *simple.UndirectedGraph
	spots map[int]*model.Spot
	edges []model.Edge
}

// NewBuilder returns an empty builder with default units.
func NewBuilder() *Builder {
	return &Builder{
		SpaceUnits: "pixel",
		TimeUnits:  "frame",
		g:          simple.NewUndirectedGraph(),
		spots:      make(map[int]*model.Spot),
	}
}

// AddSpot registers a spot. Spot IDs must be unique.
func (b *Builder) AddSpot(s *model.Spot) error {
	if s == nil {
		return fmt.Errorf("nil spot")
	}
	if _, ok := b.spots[s.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateSpot, s.ID)
	}
	b.spots[s.ID] = s
	b.g.AddNode(simple.Node(int64(s.ID)))
	return nil
}

// Link adds an edge between two registered spots.
func (b *Builder) Link(sourceID, targetID int) error {
	if sourceID == targetID {
		return fmt.Errorf("%w: %d", ErrSelfLink, sourceID)
	}
	source, ok := b.spots[sourceID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSpot, sourceID)
	}
	target, ok := b.spots[targetID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownSpot, targetID)
	}
	if b.g.HasEdgeBetween(int64(sourceID), int64(targetID)) {
		return fmt.Errorf("%w: %d - %d", ErrDuplicateEdge, sourceID, targetID)
	}
	b.g.SetEdge(b.g.NewEdge(simple.Node(int64(sourceID)), simple.Node(int64(targetID))))
	b.edges = append(b.edges, model.NewEdge(source, target))
	return nil
}

// Build resolves tracks and returns the immutable model. The builder must
// not be used afterwards.
func (b *Builder) Build() *Model {
	components := topo.ConnectedComponents(b.g)

	groups := make([][]*model.Spot, 0, len(components))
	for _, comp := range components {
		spots := make([]*model.Spot, 0, len(comp))
		for _, n := range comp {
			spots = append(spots, b.spots[int(n.ID())])
		}
		sort.Slice(spots, func(i, j int) bool { return spots[i].ID < spots[j].ID })
		groups = append(groups, spots)
	}
	// Track IDs follow the smallest spot ID of each component so that the
	// same input always yields the same numbering.
	sort.Slice(groups, func(i, j int) bool { return groups[i][0].ID < groups[j][0].ID })

	m := &Model{
		SpaceUnits: b.SpaceUnits,
		TimeUnits:  b.TimeUnits,
		spots:      b.spots,
		edges:      b.edges,
		trackSpots: make(map[int][]*model.Spot, len(groups)),
		trackEdges: make(map[int][]model.Edge, len(groups)),
		spotTrack:  make(map[int]int, len(b.spots)),
		trackIDs:   make([]int, 0, len(groups)),
	}
	for id, spots := range groups {
		m.trackIDs = append(m.trackIDs, id)
		m.trackSpots[id] = spots
		for _, s := range spots {
			m.spotTrack[s.ID] = id
		}
	}
	for _, e := range b.edges {
		id := m.spotTrack[e.Source.ID]
		m.trackEdges[id] = append(m.trackEdges[id], e)
	}
	return m
}

// Model is a resolved, read-only spot graph.
type Model struct {
	SpaceUnits string
	TimeUnits  string

	spots      map[int]*model.Spot
	edges      []model.Edge
	trackSpots map[int][]*model.Spot
	trackEdges map[int][]model.Edge
	spotTrack  map[int]int
	trackIDs   []int
}

// TrackIDs returns all track IDs in ascending order.
func (m *Model) TrackIDs() []int {
	out := make([]int, len(m.trackIDs))
	copy(out, m.trackIDs)
	return out
}

// NTracks returns the number of tracks, single-spot tracks included.
func (m *Model) NTracks() int { return len(m.trackIDs) }

// NSpots returns the number of spots.
func (m *Model) NSpots() int { return len(m.spots) }

// NEdges returns the number of edges.
func (m *Model) NEdges() int { return len(m.edges) }

// TrackSpots returns the spots of a track in ascending spot ID order.
// The returned slice must not be modified.
func (m *Model) TrackSpots(trackID int) []*model.Spot {
	return m.trackSpots[trackID]
}

// TrackEdges returns the edges of a track in the order they were linked.
// The returned slice must not be modified.
func (m *Model) TrackEdges(trackID int) []model.Edge {
	return m.trackEdges[trackID]
}

// TrackOf returns the track a spot belongs to.
func (m *Model) TrackOf(spotID int) (int, bool) {
	id, ok := m.spotTrack[spotID]
	return id, ok
}

// Spot returns the spot with the given ID, or nil.
func (m *Model) Spot(id int) *model.Spot {
	return m.spots[id]
}

// Spots returns all spots in ascending ID order.
func (m *Model) Spots() []*model.Spot {
	out := make([]*model.Spot, 0, len(m.spots))
	for _, s := range m.spots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns all edges in the order they were linked.
func (m *Model) Edges() []model.Edge {
	out := make([]model.Edge, len(m.edges))
	copy(out, m.edges)
	return out
}
