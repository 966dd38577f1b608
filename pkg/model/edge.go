package model

import "fmt"

// Edge links two spots of the same track. Edges are unordered: Source and
// Target only record the order in which the link was declared.
type Edge struct {
	Source *Spot
	Target *Spot
}

// NewEdge creates an edge between a and b.
func NewEdge(a, b *Spot) Edge {
	return Edge{Source: a, Target: b}
}

// Length returns the Euclidean distance between the endpoints.
func (e Edge) Length() (float64, error) {
	return e.Source.DistanceTo(e.Target)
}

// Other returns the endpoint that is not s, or nil if s is not an endpoint.
func (e Edge) Other(s *Spot) *Spot {
	switch s {
	case e.Source:
		return e.Target
	case e.Target:
		return e.Source
	default:
		return nil
	}
}

func (e Edge) String() string {
	return fmt.Sprintf("%v - %v", e.Source, e.Target)
}
