// Package model defines the read-only data handed to feature analyzers:
// spots (detections at one time point) and the edges linking them into
// tracks.
package model

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r3"
)

// Spot feature keys every tracking stage is expected to fill in.
const (
	PositionX = "POSITION_X"
	PositionY = "POSITION_Y"
	PositionZ = "POSITION_Z"
	PositionT = "POSITION_T"
	Radius    = "RADIUS"
	Quality   = "QUALITY"
	Frame     = "FRAME"
)

// PositionFeatures lists the keys a spot needs before any track feature can
// be computed from it.
var PositionFeatures = []string{PositionX, PositionY, PositionZ, PositionT}

// ErrIncompleteSpotData is returned when a spot lacks one of the position
// features, or carries a non-finite value for it.
var ErrIncompleteSpotData = errors.New("incomplete spot data")

// Spot is a single detection at one time point. Spots are immutable once
// created; the features map is copied on construction and never exposed.
type Spot struct {
	ID       int
	Name     string
	features map[string]float64
}

// NewSpot creates a spot with a private copy of features.
func NewSpot(id int, name string, features map[string]float64) *Spot {
	fs := make(map[string]float64, len(features))
	for k, v := range features {
		fs[k] = v
	}
	return &Spot{ID: id, Name: name, features: fs}
}

// NewSpotAt is a shorthand for a spot with position, time and radius.
func NewSpotAt(id int, x, y, z, t, radius float64) *Spot {
	return NewSpot(id, "", map[string]float64{
		PositionX: x,
		PositionY: y,
		PositionZ: z,
		PositionT: t,
		Radius:    radius,
	})
}

// Feature returns the value stored under key.
func (s *Spot) Feature(key string) (float64, bool) {
	v, ok := s.features[key]
	return v, ok
}

// FeatureKeys returns the spot's feature keys in sorted order.
func (s *Spot) FeatureKeys() []string {
	keys := make([]string, 0, len(s.features))
	for k := range s.features {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Features returns a copy of all feature values.
func (s *Spot) Features() map[string]float64 {
	out := make(map[string]float64, len(s.features))
	for k, v := range s.features {
		out[k] = v
	}
	return out
}

// Time returns POSITION_T.
func (s *Spot) Time() (float64, error) {
	return s.required(PositionT)
}

// Position returns the spatial coordinates of the spot.
func (s *Spot) Position() (r3.Vector, error) {
	x, err := s.required(PositionX)
	if err != nil {
		return r3.Vector{}, err
	}
	y, err := s.required(PositionY)
	if err != nil {
		return r3.Vector{}, err
	}
	z, err := s.required(PositionZ)
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: x, Y: y, Z: z}, nil
}

// SquareDistanceTo returns the squared Euclidean distance to other.
func (s *Spot) SquareDistanceTo(other *Spot) (float64, error) {
	a, err := s.Position()
	if err != nil {
		return 0, err
	}
	b, err := other.Position()
	if err != nil {
		return 0, err
	}
	return a.Sub(b).Norm2(), nil
}

// DistanceTo returns the Euclidean distance to other.
func (s *Spot) DistanceTo(other *Spot) (float64, error) {
	d2, err := s.SquareDistanceTo(other)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(d2), nil
}

// Validate checks that all position features are present and finite.
func (s *Spot) Validate() error {
	for _, key := range PositionFeatures {
		if _, err := s.required(key); err != nil {
			return err
		}
	}
	return nil
}

func (s *Spot) required(key string) (float64, error) {
	v, ok := s.features[key]
	if !ok {
		return 0, fmt.Errorf("spot %d: missing %s: %w", s.ID, key, ErrIncompleteSpotData)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("spot %d: non-finite %s: %w", s.ID, key, ErrIncompleteSpotData)
	}
	return v, nil
}

func (s *Spot) String() string {
	if s.Name != "" {
		return fmt.Sprintf("%s (ID=%d)", s.Name, s.ID)
	}
	return fmt.Sprintf("ID=%d", s.ID)
}
