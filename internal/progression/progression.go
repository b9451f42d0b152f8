// Package progression recommends the next training configuration for a
// device from its session history: difficulty moves one tier at a time on
// sustained performance, and continuous parameters are nudged independently.
package progression

import (
	"math"

	"github.com/roman-kulish/range-console/internal/training"
)

const (
	// escalation requires both accuracy and speed
	escalateAccuracy     = 85
	escalateReactionTime = 800 // ms

	// de-escalation triggers on either
	deescalateAccuracy     = 60
	deescalateReactionTime = 1500 // ms

	reactTimeTightenAccuracy = 80
	reactTimeRelaxAccuracy   = 60
	reactTimeTightenFactor   = 0.9
	reactTimeRelaxFactor     = 1.1

	targetCountGrowAccuracy   = 85
	targetCountShrinkAccuracy = 50
	targetCountGrowFactor     = 1.2
	targetCountShrinkFactor   = 0.8
	targetCountFloor          = 5

	stressorAccuracy     = 90
	stressorReactionTime = 700 // ms
)

// Recommend computes the next configuration from the device's history,
// ordered most recent first. An empty history yields the basic mode default.
// Difficulty shifts exactly one tier; parameter adjustments are independent
// and can co-occur.
func Recommend(history []*training.Session) training.Config {
	if len(history) == 0 {
		return training.DefaultConfig(training.ModeBasic)
	}

	var accuracySum, reactionSum float64
	for _, session := range history {
		accuracySum += session.Stats.Accuracy
		reactionSum += session.Stats.AvgReactionTime
	}
	accuracy := accuracySum / float64(len(history))
	reactionTime := reactionSum / float64(len(history))

	next := history[0].Config

	switch {
	case accuracy > escalateAccuracy && reactionTime < escalateReactionTime:
		next.Difficulty = escalate(next.Difficulty)

	case accuracy < deescalateAccuracy || reactionTime > deescalateReactionTime:
		next.Difficulty = deescalate(next.Difficulty)
	}

	if accuracy > reactTimeTightenAccuracy {
		next.ReactTime = max(training.ReactTimeMin, round(float64(next.ReactTime)*reactTimeTightenFactor))
	} else if accuracy < reactTimeRelaxAccuracy {
		next.ReactTime = min(training.ReactTimeMax, round(float64(next.ReactTime)*reactTimeRelaxFactor))
	}

	if accuracy > targetCountGrowAccuracy {
		next.TargetCount = min(training.TargetCountMax, int(float64(next.TargetCount)*targetCountGrowFactor))
	} else if accuracy < targetCountShrinkAccuracy {
		next.TargetCount = max(targetCountFloor, int(float64(next.TargetCount)*targetCountShrinkFactor))
	}

	if accuracy > stressorAccuracy && reactionTime < stressorReactionTime && !next.Stressors {
		next.Stressors = true
	}

	return next
}

func escalate(d training.Difficulty) training.Difficulty {
	switch d {
	case training.DifficultyEasy:
		return training.DifficultyMedium
	case training.DifficultyMedium:
		return training.DifficultyHard
	default:
		return d
	}
}

func deescalate(d training.Difficulty) training.Difficulty {
	switch d {
	case training.DifficultyHard:
		return training.DifficultyMedium
	case training.DifficultyMedium:
		return training.DifficultyEasy
	default:
		return d
	}
}

func round(v float64) int {
	return int(math.Round(v))
}
