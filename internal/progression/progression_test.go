package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/range-console/internal/training"
)

func session(config training.Config, accuracy, reactionTime float64) *training.Session {
	s := training.NewSession("device-1", config, nil, time.Now())
	s.Status = training.StatusCompleted
	s.Stats = training.Stats{Accuracy: accuracy, AvgReactionTime: reactionTime}
	return s
}

func baseConfig(difficulty training.Difficulty) training.Config {
	config := training.DefaultConfig(training.ModeBasic)
	config.Difficulty = difficulty
	return config
}

func TestRecommendEmptyHistory(t *testing.T) {
	next := Recommend(nil)
	assert.Equal(t, training.DefaultConfig(training.ModeBasic), next)
}

func TestRecommendEscalates(t *testing.T) {
	history := []*training.Session{
		session(baseConfig(training.DifficultyMedium), 90, 650),
	}

	next := Recommend(history)
	assert.Equal(t, training.DifficultyHard, next.Difficulty)
	assert.Equal(t, 900, next.ReactTime, "accuracy above 80 tightens react time by 10%")
	assert.Equal(t, 12, next.TargetCount, "accuracy above 85 grows target count by 20%")
	assert.False(t, next.Stressors, "accuracy of exactly 90 does not enable stressors")
}

func TestRecommendEscalationBoundaries(t *testing.T) {
	// Both thresholds are strict.
	history := []*training.Session{
		session(baseConfig(training.DifficultyMedium), 85, 650),
	}
	assert.Equal(t, training.DifficultyMedium, Recommend(history).Difficulty)

	history = []*training.Session{
		session(baseConfig(training.DifficultyMedium), 90, 800),
	}
	assert.Equal(t, training.DifficultyMedium, Recommend(history).Difficulty)
}

func TestRecommendDeescalatesOnAccuracy(t *testing.T) {
	history := []*training.Session{
		session(baseConfig(training.DifficultyMedium), 55, 900),
	}

	next := Recommend(history)
	assert.Equal(t, training.DifficultyEasy, next.Difficulty)
	assert.Equal(t, 1100, next.ReactTime, "accuracy below 60 relaxes react time by 10%")
	assert.Equal(t, 10, next.TargetCount, "accuracy of 55 keeps target count")
}

func TestRecommendDeescalatesOnSlowReactions(t *testing.T) {
	history := []*training.Session{
		session(baseConfig(training.DifficultyHard), 75, 1600),
	}

	next := Recommend(history)
	assert.Equal(t, training.DifficultyMedium, next.Difficulty)
	assert.Equal(t, 1000, next.ReactTime, "accuracy of 75 keeps react time")
}

func TestRecommendDifficultyRails(t *testing.T) {
	history := []*training.Session{
		session(baseConfig(training.DifficultyHard), 95, 500),
	}
	assert.Equal(t, training.DifficultyHard, Recommend(history).Difficulty)

	history = []*training.Session{
		session(baseConfig(training.DifficultyEasy), 30, 2000),
	}
	assert.Equal(t, training.DifficultyEasy, Recommend(history).Difficulty)
}

func TestRecommendEnablesStressors(t *testing.T) {
	history := []*training.Session{
		session(baseConfig(training.DifficultyMedium), 92, 650),
	}

	next := Recommend(history)
	assert.Equal(t, training.DifficultyHard, next.Difficulty)
	assert.True(t, next.Stressors)
}

func TestRecommendShrinksTargetCount(t *testing.T) {
	config := baseConfig(training.DifficultyEasy)
	config.TargetCount = 6
	history := []*training.Session{session(config, 40, 900)}

	next := Recommend(history)
	assert.Equal(t, 5, next.TargetCount, "shrinking stops at the floor")
}

func TestRecommendParameterRails(t *testing.T) {
	config := baseConfig(training.DifficultyMedium)
	config.ReactTime = 220
	config.TargetCount = 90
	history := []*training.Session{session(config, 95, 400)}

	next := Recommend(history)
	assert.Equal(t, training.ReactTimeMin, next.ReactTime)
	assert.Equal(t, training.TargetCountMax, next.TargetCount)
}

func TestRecommendAveragesHistory(t *testing.T) {
	config := baseConfig(training.DifficultyMedium)
	history := []*training.Session{
		session(config, 100, 600),
		session(config, 60, 1000),
	}

	// Means are 80% and 800ms, below both escalation thresholds.
	next := Recommend(history)
	assert.Equal(t, training.DifficultyMedium, next.Difficulty)
	assert.Equal(t, config.ReactTime, next.ReactTime)
	assert.Equal(t, config.TargetCount, next.TargetCount)
}

func TestRecommendUsesMostRecentConfig(t *testing.T) {
	latest := baseConfig(training.DifficultyMedium)
	latest.Mode = training.ModeReaction
	latest.Duration = 240
	older := baseConfig(training.DifficultyEasy)

	history := []*training.Session{
		session(latest, 75, 900),
		session(older, 75, 900),
	}

	next := Recommend(history)
	assert.Equal(t, training.ModeReaction, next.Mode)
	assert.Equal(t, 240, next.Duration)
	assert.Equal(t, training.DifficultyMedium, next.Difficulty)
}

func TestAdvise(t *testing.T) {
	config := training.DefaultConfig(training.ModeBasic)

	t.Run("no advice for a solid run", func(t *testing.T) {
		s := session(config, 85, 700)
		assert.Nil(t, Advise(s))
	})

	t.Run("low accuracy", func(t *testing.T) {
		s := session(config, 65, 700)
		advice := Advise(s)
		require.Len(t, advice, 1)
		assert.Equal(t, "accuracy", advice[0].Aspect)
		assert.Equal(t, training.ModePrecision, advice[0].Mode)
	})

	t.Run("slow reactions", func(t *testing.T) {
		s := session(config, 85, 1200)
		advice := Advise(s)
		require.Len(t, advice, 1)
		assert.Equal(t, training.ModeReaction, advice[0].Mode)
	})

	t.Run("struggling under stressors", func(t *testing.T) {
		stressed := config
		stressed.Stressors = true
		s := session(stressed, 55, 1100)

		advice := Advise(s)
		require.Len(t, advice, 3)
		assert.Equal(t, training.ModeStress, advice[2].Mode)
	})
}
