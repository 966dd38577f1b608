package model

import (
	"errors"
	"math"
	"testing"
)

func TestSpotDistance(t *testing.T) {
	a := NewSpotAt(1, 0, 0, 0, 0, 1)
	b := NewSpotAt(2, 3, 4, 0, 1, 1)

	d, err := a.DistanceTo(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(d-5) > 1e-12 {
		t.Errorf("expected 5, got %f", d)
	}

	back, err := b.DistanceTo(a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back != d {
		t.Errorf("distance not symmetric: %f vs %f", d, back)
	}
}

func TestSpotMissingCoordinate(t *testing.T) {
	tests := []struct {
		name     string
		features map[string]float64
	}{
		{"missing z", map[string]float64{PositionX: 1, PositionY: 1, PositionT: 0}},
		{"missing t", map[string]float64{PositionX: 1, PositionY: 1, PositionZ: 0}},
		{"nan x", map[string]float64{PositionX: math.NaN(), PositionY: 1, PositionZ: 0, PositionT: 0}},
		{"inf t", map[string]float64{PositionX: 0, PositionY: 1, PositionZ: 0, PositionT: math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSpot(7, "bad", tt.features)
			if err := s.Validate(); !errors.Is(err, ErrIncompleteSpotData) {
				t.Errorf("expected ErrIncompleteSpotData, got %v", err)
			}
		})
	}
}

func TestSpotIsImmutable(t *testing.T) {
	src := map[string]float64{PositionX: 1}
	s := NewSpot(1, "", src)
	src[PositionX] = 99

	v, _ := s.Feature(PositionX)
	if v != 1 {
		t.Errorf("spot changed with source map: got %f", v)
	}

	copied := s.Features()
	copied[PositionX] = 42
	v, _ = s.Feature(PositionX)
	if v != 1 {
		t.Errorf("spot changed through Features copy: got %f", v)
	}
}

func TestEdgeOther(t *testing.T) {
	a := NewSpotAt(1, 0, 0, 0, 0, 1)
	b := NewSpotAt(2, 1, 0, 0, 1, 1)
	c := NewSpotAt(3, 2, 0, 0, 2, 1)
	e := NewEdge(a, b)

	if e.Other(a) != b || e.Other(b) != a {
		t.Error("Other should return the opposite endpoint")
	}
	if e.Other(c) != nil {
		t.Error("Other should return nil for a non-endpoint")
	}
}

func TestDimensionUnit(t *testing.T) {
	tests := []struct {
		dim  Dimension
		want string
	}{
		{DimensionLength, "µm"},
		{DimensionTime, "s"},
		{DimensionVelocity, "µm/s"},
		{DimensionNone, ""},
	}
	for _, tt := range tests {
		if got := tt.dim.Unit("µm", "s"); got != tt.want {
			t.Errorf("%s.Unit() = %q, want %q", tt.dim, got, tt.want)
		}
	}
}
