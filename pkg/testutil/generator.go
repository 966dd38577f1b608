// Package testutil provides deterministic spot-graph generators and
// assertions for feature tests.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/trackfeat/pkg/model"
	"github.com/vanderheijden86/trackfeat/pkg/trackmodel"
)

// GeneratorConfig controls synthetic track generation.
type GeneratorConfig struct {
	Seed        int64   // Random seed (0 = 42)
	Tracks      int     // Number of tracks
	MinLength   int     // Spots per track, lower bound (>= 1)
	MaxLength   int     // Spots per track, upper bound
	Step        float64 // Random-walk step scale
	SplitChance float64 // Chance that a spot starts a second branch
	Singletons  int     // Extra single-spot tracks
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:      42,
		Tracks:    50,
		MinLength: 2,
		MaxLength: 40,
		Step:      1.5,
	}
}

// Generator builds random-walk track graphs.
type Generator struct {
	cfg    GeneratorConfig
	rng    *rand.Rand
	nextID int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.MinLength < 1 {
		cfg.MinLength = 1
	}
	if cfg.MaxLength < cfg.MinLength {
		cfg.MaxLength = cfg.MinLength
	}
	if cfg.Step == 0 {
		cfg.Step = 1
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// Model generates the configured tracks.
func (g *Generator) Model() *trackmodel.Model {
	b := trackmodel.NewBuilder()
	b.SpaceUnits = "µm"
	b.TimeUnits = "s"
	for i := 0; i < g.cfg.Tracks; i++ {
		g.walk(b)
	}
	for i := 0; i < g.cfg.Singletons; i++ {
		g.spot(b, g.rng.Float64()*100, g.rng.Float64()*100, 0, 0)
	}
	return b.Build()
}

func (g *Generator) walk(b *trackmodel.Builder) {
	n := g.cfg.MinLength + g.rng.Intn(g.cfg.MaxLength-g.cfg.MinLength+1)
	x, y, z := g.rng.Float64()*100, g.rng.Float64()*100, g.rng.Float64()*10

	prev := g.spot(b, x, y, z, 0)
	for t := 1; t < n; t++ {
		x += g.rng.NormFloat64() * g.cfg.Step
		y += g.rng.NormFloat64() * g.cfg.Step
		z += g.rng.NormFloat64() * g.cfg.Step / 4
		cur := g.spot(b, x, y, z, float64(t))
		mustLink(b, prev, cur)

		if g.cfg.SplitChance > 0 && g.rng.Float64() < g.cfg.SplitChance {
			branch := g.spot(b, x+g.cfg.Step, y, z, float64(t+1))
			mustLink(b, cur, branch)
		}
		prev = cur
	}
}

func (g *Generator) spot(b *trackmodel.Builder, x, y, z, t float64) int {
	id := g.nextID
	g.nextID++
	s := model.NewSpot(id, fmt.Sprintf("ID%d", id), map[string]float64{
		model.PositionX: x,
		model.PositionY: y,
		model.PositionZ: z,
		model.PositionT: t,
		model.Radius:    1,
		model.Frame:     t,
	})
	if err := b.AddSpot(s); err != nil {
		panic(err)
	}
	return id
}

func mustLink(b *trackmodel.Builder, a, c int) {
	if err := b.Link(a, c); err != nil {
		panic(err)
	}
}

// Point is a spot position used by Chain.
type Point struct {
	X, Y, Z, T float64
}

// Chain builds a model holding one track whose spots are linked in the
// given order. Spot IDs start at firstID.
func Chain(firstID int, pts ...Point) *trackmodel.Model {
	b := trackmodel.NewBuilder()
	for i, p := range pts {
		if err := b.AddSpot(model.NewSpotAt(firstID+i, p.X, p.Y, p.Z, p.T, 1)); err != nil {
			panic(err)
		}
		if i > 0 {
			mustLink(b, firstID+i-1, firstID+i)
		}
	}
	return b.Build()
}
