// Package storage records finished training sessions and in-flight progress
// snapshots to a local database. It is an opt-in sink for offline analysis;
// the session registry's in-memory history stays the source of truth for the
// running console.
package storage

import (
	"context"
	"time"

	"github.com/roman-kulish/range-console/internal/training"
)

// Store provides an interface for recording and reading training session
// data. All writes are atomic; readers never see partial sessions.
type Store interface {
	// RecordSession archives a terminal session together with its final
	// statistics and configuration.
	RecordSession(ctx context.Context, session *training.Session) error

	// RecordProgress saves one progress snapshot for a running session.
	RecordProgress(ctx context.Context, sessionID string, stats training.Stats, at time.Time) error

	// Session retrieves an archived session by its session ID, or nil when
	// no such session was recorded.
	Session(ctx context.Context, sessionID string) (*SessionRecord, error)

	// Sessions returns all archived sessions ordered by start time.
	// An empty deviceID returns sessions for every device.
	Sessions(ctx context.Context, deviceID string) ([]*SessionRecord, error)

	// Progress returns a reader over the progress snapshots recorded for a
	// session, in insertion order. The caller must close the reader.
	Progress(ctx context.Context, sessionID string) (*ProgressReader, error)

	// Close releases all database connections. It is safe to call Close
	// multiple times.
	Close() error
}
