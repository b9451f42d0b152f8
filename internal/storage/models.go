package storage

import (
	"database/sql"
	"time"

	"github.com/roman-kulish/range-console/internal/training"
)

// SessionRecord is an archived training session as stored.
type SessionRecord struct {
	ID         int64
	SessionID  string
	DeviceID   string
	Mode       string
	Difficulty string
	Config     sql.NullString // full configuration in JSON
	Status     string
	Error      sql.NullString
	StartTime  time.Time
	EndTime    sql.NullTime
	Stats      training.Stats
}

// Duration returns the recorded session length, or zero when no end time
// was stored.
func (r *SessionRecord) Duration() time.Duration {
	if !r.EndTime.Valid {
		return 0
	}
	return r.EndTime.Time.Sub(r.StartTime)
}

// ProgressRecord is one progress snapshot taken while a session was running.
type ProgressRecord struct {
	SessionID string
	Timestamp time.Time
	Stats     training.Stats
}
