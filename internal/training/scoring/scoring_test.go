package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/roman-kulish/range-console/internal/training"
)

func TestCalculateStats(t *testing.T) {
	stats := CalculateStats(8, 2, []float64{500, 600, 700})

	if stats.Hits != 8 || stats.Misses != 2 {
		t.Errorf("counters = %d/%d, want 8/2", stats.Hits, stats.Misses)
	}
	if stats.Accuracy != 80 {
		t.Errorf("Accuracy = %f, want 80", stats.Accuracy)
	}
	if stats.AvgReactionTime != 600 {
		t.Errorf("AvgReactionTime = %f, want 600", stats.AvgReactionTime)
	}
	if stats.Score != 0 {
		t.Errorf("Score = %d, want 0 before scoring", stats.Score)
	}
}

func TestCalculateStatsNoShots(t *testing.T) {
	stats := CalculateStats(0, 0, nil)

	if stats.Accuracy != 0 {
		t.Errorf("Accuracy = %f, want 0 with no shots", stats.Accuracy)
	}
	if stats.AvgReactionTime != 0 {
		t.Errorf("AvgReactionTime = %f, want 0 with no reaction samples", stats.AvgReactionTime)
	}
}

func TestCalculateStatsOnlyMisses(t *testing.T) {
	stats := CalculateStats(0, 5, nil)
	if stats.Accuracy != 0 {
		t.Errorf("Accuracy = %f, want 0", stats.Accuracy)
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		stats      training.Stats
		difficulty training.Difficulty
		stressors  bool
		want       int
	}{
		{
			// 8*100 + 80*5 + (2000-600)/10 = 1340, *1.5 medium
			name:       "medium no stressors",
			stats:      training.Stats{Hits: 8, Accuracy: 80, AvgReactionTime: 600},
			difficulty: training.DifficultyMedium,
			want:       2010,
		},
		{
			// 1340 * 1.0 easy
			name:       "easy no stressors",
			stats:      training.Stats{Hits: 8, Accuracy: 80, AvgReactionTime: 600},
			difficulty: training.DifficultyEasy,
			want:       1340,
		},
		{
			// 1340 * 1.2 stressors * 2.0 hard
			name:       "hard with stressors",
			stats:      training.Stats{Hits: 8, Accuracy: 80, AvgReactionTime: 600},
			difficulty: training.DifficultyHard,
			stressors:  true,
			want:       3216,
		},
		{
			// reaction bonus never goes negative for slow averages
			name:       "slow reactions",
			stats:      training.Stats{Hits: 10, Accuracy: 100, AvgReactionTime: 4000},
			difficulty: training.DifficultyEasy,
			want:       1500,
		},
		{
			name:       "zero stats",
			stats:      training.Stats{},
			difficulty: training.DifficultyMedium,
			want:       300, // only the full reaction bonus, 2000/10*1.5
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := training.DefaultConfig(training.ModeBasic)
			config.Difficulty = tt.difficulty
			config.Stressors = tt.stressors

			if got := Score(tt.stats, config); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	start := time.Now()
	end := start.Add(2 * time.Minute)
	session := training.NewSession("device-1", training.DefaultConfig(training.ModeBasic), nil, start)
	session.Stats = training.Stats{Hits: 10, Misses: 2, Accuracy: 83.3, AvgReactionTime: 750, Score: 1800}
	session.EndTime = &end

	summary := Summarize(session)
	if summary.Duration != 2*time.Minute {
		t.Errorf("Duration = %s, want 2m", summary.Duration)
	}
	if math.Abs(summary.HitsPerMinute-5) > 1e-9 {
		t.Errorf("HitsPerMinute = %f, want 5", summary.HitsPerMinute)
	}
	if summary.Score != 1800 {
		t.Errorf("Score = %d, want 1800", summary.Score)
	}
}

func TestSummarizeNoEndTime(t *testing.T) {
	session := training.NewSession("device-1", training.DefaultConfig(training.ModeBasic), nil, time.Now())
	session.Stats = training.Stats{Hits: 4}

	summary := Summarize(session)
	if summary.Duration != 0 {
		t.Errorf("Duration = %s, want 0 without an end time", summary.Duration)
	}
	if summary.HitsPerMinute != 0 {
		t.Errorf("HitsPerMinute = %f, want 0 without an end time", summary.HitsPerMinute)
	}
}
