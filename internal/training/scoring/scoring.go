// Package scoring turns raw hit/miss/reaction data into session statistics
// and a final score. All functions are pure and reproducible for identical
// inputs.
package scoring

import (
	"math"
	"time"

	"github.com/roman-kulish/range-console/internal/training"
)

const (
	hitPoints          = 100
	accuracyBonus      = 5
	reactionBonusFloor = 2000 // ms; no bonus for slower averages
	stressorMultiplier = 1.2
)

var difficultyMultipliers = map[training.Difficulty]float64{
	training.DifficultyEasy:   1.0,
	training.DifficultyMedium: 1.5,
	training.DifficultyHard:   2.0,
}

// CalculateStats computes accuracy and average reaction time from raw
// counters. The returned stats carry no score; see Score.
func CalculateStats(hits, misses int, reactionTimes []float64) training.Stats {
	stats := training.Stats{
		Hits:   hits,
		Misses: misses,
	}

	if total := hits + misses; total > 0 {
		stats.Accuracy = float64(hits) / float64(total) * 100
	}

	if len(reactionTimes) > 0 {
		var sum float64
		for _, rt := range reactionTimes {
			sum += rt
		}
		stats.AvgReactionTime = sum / float64(len(reactionTimes))
	}

	return stats
}

// Score computes the session score from stats and configuration: base points
// per hit, an accuracy bonus, a reaction-time bonus, then stressor and
// difficulty multipliers, rounded to the nearest integer.
func Score(stats training.Stats, config training.Config) int {
	score := float64(stats.Hits * hitPoints)
	score += stats.Accuracy * accuracyBonus
	score += math.Max(0, (reactionBonusFloor-stats.AvgReactionTime)/10)

	if config.Stressors {
		score *= stressorMultiplier
	}

	if multiplier, ok := difficultyMultipliers[config.Difficulty]; ok {
		score *= multiplier
	}

	return int(math.Round(score))
}

// Summary condenses a finished session for reporting.
type Summary struct {
	Duration        time.Duration
	Accuracy        float64
	AvgReactionTime float64
	HitsPerMinute   float64
	Score           int
}

// Summarize builds a summary for a terminal session. Sessions without an end
// time report a zero duration and no hit rate.
func Summarize(session *training.Session) Summary {
	summary := Summary{
		Accuracy:        session.Stats.Accuracy,
		AvgReactionTime: session.Stats.AvgReactionTime,
		Score:           session.Stats.Score,
	}

	if session.EndTime == nil {
		return summary
	}

	summary.Duration = session.EndTime.Sub(session.StartTime)
	if minutes := summary.Duration.Minutes(); minutes > 0 {
		summary.HitsPerMinute = float64(session.Stats.Hits) / minutes
	}

	return summary
}
