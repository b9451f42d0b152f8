package pattern

import (
	"testing"

	"github.com/roman-kulish/range-console/internal/training"
)

func testConfig(pattern training.TargetPattern, count int) training.Config {
	config := training.DefaultConfig(training.ModeBasic)
	config.TargetPattern = pattern
	config.TargetCount = count
	return config
}

func TestTargetsSequence(t *testing.T) {
	g := New()
	config := testConfig(training.PatternSequence, 4)
	config.ReactTime = 1000

	targets := g.Targets(config)
	if len(targets) != 4 {
		t.Fatalf("len(targets) = %d, want 4", len(targets))
	}

	want := []struct{ x, y int }{{0, 0}, {1, 0}, {2, 0}, {3, 0}}
	for i, target := range targets {
		if target.ID != i {
			t.Errorf("target %d: ID = %d, want %d", i, target.ID, i)
		}
		if target.X != want[i].x || target.Y != want[i].y {
			t.Errorf("target %d: position = (%d,%d), want (%d,%d)", i, target.X, target.Y, want[i].x, want[i].y)
		}
		if target.Size != 2 {
			t.Errorf("target %d: Size = %d, want 2 at medium difficulty", i, target.Size)
		}
		if target.Duration != 1000 {
			t.Errorf("target %d: Duration = %d, want 1000", i, target.Duration)
		}
		if target.Movement != nil {
			t.Errorf("target %d: Movement set for static pattern", i)
		}
	}
}

func TestTargetsSequenceWrapsRows(t *testing.T) {
	g := New()
	targets := g.Targets(testConfig(training.PatternSequence, 10))

	if targets[8].X != 0 || targets[8].Y != 1 {
		t.Errorf("target 8: position = (%d,%d), want (0,1)", targets[8].X, targets[8].Y)
	}
	if targets[9].X != 1 || targets[9].Y != 1 {
		t.Errorf("target 9: position = (%d,%d), want (1,1)", targets[9].X, targets[9].Y)
	}
}

func TestTargetsWave(t *testing.T) {
	g := New()
	targets := g.Targets(testConfig(training.PatternWave, 4))

	want := []struct{ x, y int }{{0, 4}, {1, 5}, {2, 6}, {3, 7}}
	for i, target := range targets {
		if target.X != want[i].x || target.Y != want[i].y {
			t.Errorf("target %d: position = (%d,%d), want (%d,%d)", i, target.X, target.Y, want[i].x, want[i].y)
		}
	}
}

func TestTargetsSpiral(t *testing.T) {
	g := New()
	targets := g.Targets(testConfig(training.PatternSpiral, 16))

	// Zero radius puts the first target at the grid centre.
	if targets[0].X != 4 || targets[0].Y != 4 {
		t.Errorf("target 0: position = (%d,%d), want (4,4)", targets[0].X, targets[0].Y)
	}
	for i, target := range targets {
		if target.X < 0 || target.X >= GridSize || target.Y < 0 || target.Y >= GridSize {
			t.Errorf("target %d: position = (%d,%d) outside the grid", i, target.X, target.Y)
		}
	}
}

func TestTargetsRandomSeeded(t *testing.T) {
	config := testConfig(training.PatternRandom, 20)

	first := New(WithSeed(42)).Targets(config)
	second := New(WithSeed(42)).Targets(config)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("target %d differs across identically seeded generators: %+v vs %+v", i, first[i], second[i])
		}
		if first[i].X < 0 || first[i].X >= GridSize || first[i].Y < 0 || first[i].Y >= GridSize {
			t.Errorf("target %d: position = (%d,%d) outside the grid", i, first[i].X, first[i].Y)
		}
	}
}

func TestTargetsUnknownPatternFallsBackToRandom(t *testing.T) {
	config := testConfig("zigzag", 10)

	first := New(WithSeed(7)).Targets(config)
	second := New(WithSeed(7)).Targets(config)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("target %d differs across identically seeded generators", i)
		}
	}
}

func TestTargetsMovement(t *testing.T) {
	config := testConfig(training.PatternSequence, 2)
	config.MovementPattern = training.MovementLinear

	targets := New().Targets(config)
	movement := targets[0].Movement
	if movement == nil {
		t.Fatal("Movement = nil, want linear movement attached")
	}
	if movement.Pattern != training.MovementLinear {
		t.Errorf("Pattern = %s, want %s", movement.Pattern, training.MovementLinear)
	}
	if movement.Speed != 1 {
		t.Errorf("Speed = %d, want 1 at medium difficulty", movement.Speed)
	}
	if movement.Range != GridSize/4 {
		t.Errorf("Range = %d, want %d", movement.Range, GridSize/4)
	}

	config.Difficulty = training.DifficultyHard
	targets = New().Targets(config)
	if targets[0].Movement.Speed != 2 {
		t.Errorf("Speed = %d, want 2 at hard difficulty", targets[0].Movement.Speed)
	}
}

func TestTargetSizeByDifficulty(t *testing.T) {
	tests := []struct {
		difficulty training.Difficulty
		size       int
	}{
		{training.DifficultyEasy, 3},
		{training.DifficultyMedium, 2},
		{training.DifficultyHard, 1},
	}

	for _, tt := range tests {
		config := testConfig(training.PatternSequence, 1)
		config.Difficulty = tt.difficulty

		targets := New().Targets(config)
		if targets[0].Size != tt.size {
			t.Errorf("%s: Size = %d, want %d", tt.difficulty, targets[0].Size, tt.size)
		}
	}
}
