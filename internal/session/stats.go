package session

import (
	"time"

	"github.com/roman-kulish/range-console/internal/training"
)

// ClientStats aggregates a device's archived sessions.
type ClientStats struct {
	TotalSessions       int
	TotalTime           time.Duration
	AverageAccuracy     float64
	AverageReactionTime float64
	TotalHits           int
	TotalMisses         int
	BestScore           int
	Progress            *Progress // nil until at least two sessions exist
}

// Progress compares the newest quarter of a device's history against the
// oldest to surface a performance trend. Improvements are positive: accuracy
// and score in points gained, speed in milliseconds shaved off the average
// reaction time.
type Progress struct {
	AccuracyImprovement float64
	SpeedImprovement    float64
	ScoreImprovement    float64

	Improving bool
	Plateaued bool
	Declining bool
}

// ClientStats computes aggregate statistics across the device's history.
// It returns false when the device has no archived sessions.
func (r *Registry) ClientStats(deviceID string) (ClientStats, bool) {
	r.mu.Lock()
	history := r.historyLocked(deviceID)
	r.mu.Unlock()

	if len(history) == 0 {
		return ClientStats{}, false
	}

	stats := ClientStats{
		TotalSessions: len(history),
	}

	var accuracySum, reactionSum float64
	for _, session := range history {
		if session.EndTime != nil {
			stats.TotalTime += session.EndTime.Sub(session.StartTime)
		}
		accuracySum += session.Stats.Accuracy
		reactionSum += session.Stats.AvgReactionTime
		stats.TotalHits += session.Stats.Hits
		stats.TotalMisses += session.Stats.Misses
		if session.Stats.Score > stats.BestScore {
			stats.BestScore = session.Stats.Score
		}
	}

	stats.AverageAccuracy = accuracySum / float64(len(history))
	stats.AverageReactionTime = reactionSum / float64(len(history))
	stats.Progress = progressOverTime(history)

	return stats, true
}

// progressOverTime compares the newest quarter of sessions against the
// oldest quarter. The history is most recent first. Quarters shrink to a
// single session for short histories; fewer than two sessions yield no
// trend.
func progressOverTime(history []*training.Session) *Progress {
	if len(history) < 2 {
		return nil
	}

	quarter := len(history) / 4
	if quarter == 0 {
		quarter = 1
	}

	newest := history[:quarter]
	oldest := history[len(history)-quarter:]

	p := Progress{
		AccuracyImprovement: meanOf(newest, accuracy) - meanOf(oldest, accuracy),
		SpeedImprovement:    meanOf(oldest, reactionTime) - meanOf(newest, reactionTime),
		ScoreImprovement:    meanOf(newest, score) - meanOf(oldest, score),
	}

	p.Improving = p.AccuracyImprovement > 0 && p.SpeedImprovement > 0
	p.Plateaued = abs(p.AccuracyImprovement) < 1 && abs(p.SpeedImprovement) < 10
	p.Declining = p.AccuracyImprovement < 0 || p.SpeedImprovement < 0

	return &p
}

func accuracy(s *training.Session) float64 {
	return s.Stats.Accuracy
}

func reactionTime(s *training.Session) float64 {
	return s.Stats.AvgReactionTime
}

func score(s *training.Session) float64 {
	return float64(s.Stats.Score)
}

func meanOf(sessions []*training.Session, metric func(*training.Session) float64) float64 {
	if len(sessions) == 0 {
		return 0
	}
	var sum float64
	for _, session := range sessions {
		sum += metric(session)
	}
	return sum / float64(len(sessions))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
