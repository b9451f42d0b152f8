// Package pattern generates ordered target sequences on the terminal's
// 8x8 grid from a training configuration.
package pattern

import (
	"math"
	"math/rand"
	"time"

	"github.com/roman-kulish/range-console/internal/training"
)

// GridSize is the edge length of the terminal's target grid.
const GridSize = 8

const baseTargetSize = 2

// WithSeed makes target placement reproducible for the random pattern.
// Generators without a seed use a time-based source.
func WithSeed(seed int64) func(*Generator) {
	return func(g *Generator) {
		g.rnd = rand.New(rand.NewSource(seed))
	}
}

// WithRand sets the random source directly.
func WithRand(rnd *rand.Rand) func(*Generator) {
	return func(g *Generator) {
		g.rnd = rnd
	}
}

// Generator produces target sequences. It is safe to reuse across sessions
// but not across goroutines, as the random source is not synchronized.
type Generator struct {
	rnd *rand.Rand
}

// New creates a Generator seeded with the current time unless overridden.
func New(options ...func(*Generator)) *Generator {
	g := Generator{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, option := range options {
		option(&g)
	}

	return &g
}

// Targets produces exactly config.TargetCount targets placed according to
// config.TargetPattern. Unknown patterns fall back to random placement.
func (g *Generator) Targets(config training.Config) []training.Target {
	size := targetSize(config.Difficulty)
	targets := make([]training.Target, config.TargetCount)

	for i := range targets {
		target := training.Target{
			ID:       i,
			Size:     size,
			Duration: config.ReactTime,
		}

		switch config.TargetPattern {
		case training.PatternSequence:
			target.X = i % GridSize
			target.Y = (i / GridSize) % GridSize

		case training.PatternWave:
			target.X = i % GridSize
			target.Y = int(math.Floor(math.Sin(float64(i)/GridSize*math.Pi)*(GridSize/2) + (GridSize / 2)))

		case training.PatternSpiral:
			angle := float64(i) / float64(config.TargetCount) * 2 * math.Pi
			radius := float64(i) / float64(config.TargetCount) * (GridSize / 2)
			target.X = int(math.Floor(math.Cos(angle)*radius + (GridSize / 2)))
			target.Y = int(math.Floor(math.Sin(angle)*radius + (GridSize / 2)))

		default: // random
			target.X = g.rnd.Intn(GridSize)
			target.Y = g.rnd.Intn(GridSize)
		}

		if config.MovementPattern != "" && config.MovementPattern != training.MovementStatic {
			speed := 1
			if config.Difficulty == training.DifficultyHard {
				speed = 2
			}
			target.Movement = &training.Movement{
				Pattern: config.MovementPattern,
				Speed:   speed,
				Range:   GridSize / 4,
			}
		}

		targets[i] = target
	}

	return targets
}

// targetSize scales the base size by the difficulty modifier, never below
// a single cell.
func targetSize(difficulty training.Difficulty) int {
	modifier := training.DifficultyModifier(difficulty)
	size := int(math.Round(baseTargetSize * modifier.TargetSize))
	if size < 1 {
		return 1
	}
	return size
}
