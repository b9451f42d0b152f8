package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/roman-kulish/range-console/internal/training"
)

// SqliteStore implements Store on a local SQLite database. Write and read
// connections are opened lazily and independently so a read-only consumer
// never creates the schema.
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store backed by the database at dbPath. The
// database file and schema are created on first write.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if _, err = db.Exec(initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// RecordSession archives a terminal session.
func (s *SqliteStore) RecordSession(ctx context.Context, session *training.Session) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	config, err := json.Marshal(session.Config)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	var endTime sql.NullTime
	if session.EndTime != nil {
		endTime.Time = session.EndTime.UTC()
		endTime.Valid = true
	}

	var sessionErr sql.NullString
	if session.Error != "" {
		sessionErr.String = session.Error
		sessionErr.Valid = true
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	_, err = stmt.ExecContext(ctx,
		session.ID,
		session.DeviceID,
		session.Config.Mode.String(),
		session.Config.Difficulty.String(),
		string(config),
		session.Status.String(),
		sessionErr,
		session.StartTime.UTC(),
		endTime,
		session.Stats.Hits,
		session.Stats.Misses,
		session.Stats.Accuracy,
		session.Stats.AvgReactionTime,
		session.Stats.Score,
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	return nil
}

// RecordProgress saves one progress snapshot for a running session.
func (s *SqliteStore) RecordProgress(ctx context.Context, sessionID string, stats training.Stats, at time.Time) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, insertProgressSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	_, err = stmt.ExecContext(ctx,
		sessionID,
		at.UTC(),
		stats.Hits,
		stats.Misses,
		stats.Accuracy,
		stats.AvgReactionTime,
		stats.Score,
	)
	if err != nil {
		return fmt.Errorf("inserting progress: %w", err)
	}

	return nil
}

// Session retrieves an archived session by its session ID.
func (s *SqliteStore) Session(ctx context.Context, sessionID string) (record *SessionRecord, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var rec SessionRecord
	if err = scanSession(stmt.QueryRowContext(ctx, sessionID), &rec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return &rec, nil
}

// Sessions returns archived sessions ordered by start time, optionally
// filtered to a single device.
func (s *SqliteStore) Sessions(ctx context.Context, deviceID string) (records []*SessionRecord, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	var rows *sql.Rows
	if deviceID == "" {
		rows, err = db.QueryContext(ctx, selectSessionsSQL)
	} else {
		rows, err = db.QueryContext(ctx, selectDeviceSessionsSQL, deviceID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var rec SessionRecord
		if err = scanSession(rows, &rec); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		records = append(records, &rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("reading sessions: %w", err)
	}
	return records, nil
}

// Progress returns a reader over the session's progress snapshots.
func (s *SqliteStore) Progress(ctx context.Context, sessionID string) (*ProgressReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectProgressSQL, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying progress: %w", err)
	}

	return &ProgressReader{rows: rows}, nil
}

// Close closes the database connections. It is safe to call multiple times.
func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		if writeErr != nil || readErr != nil {
			s.closeErr = errors.Join(writeErr, readErr)
		}
	})

	return s.closeErr
}

// ProgressReader iterates over recorded progress snapshots. Typical use:
//
//	for reader.Next() {
//	    record := reader.Current()
//	    ...
//	}
//	if err := reader.Err(); err != nil { ... }
type ProgressReader struct {
	rows    *sql.Rows
	current *ProgressRecord
	err     error
}

// Next advances to the next snapshot. It returns false at the end of the
// result set or on error; check Err after iteration.
func (pr *ProgressReader) Next() bool {
	if pr.rows == nil || pr.err != nil {
		return false
	}

	if !pr.rows.Next() {
		pr.current = nil
		return false
	}

	var rec ProgressRecord
	if err := pr.rows.Scan(
		&rec.SessionID,
		&rec.Timestamp,
		&rec.Stats.Hits,
		&rec.Stats.Misses,
		&rec.Stats.Accuracy,
		&rec.Stats.AvgReactionTime,
		&rec.Stats.Score,
	); err != nil {
		pr.err = fmt.Errorf("scanning progress: %w", err)
		return false
	}

	pr.current = &rec
	return true
}

// Current returns the snapshot read by the last successful Next.
func (pr *ProgressReader) Current() *ProgressRecord {
	return pr.current
}

// Err returns the first error encountered during iteration.
func (pr *ProgressReader) Err() error {
	if pr.err != nil {
		return pr.err
	}
	if pr.rows != nil {
		return pr.rows.Err()
	}
	return nil
}

// Close releases the underlying rows.
func (pr *ProgressReader) Close() error {
	if pr.rows == nil {
		return nil
	}
	err := pr.rows.Close()
	pr.rows = nil
	pr.current = nil
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner, rec *SessionRecord) error {
	return row.Scan(
		&rec.ID,
		&rec.SessionID,
		&rec.DeviceID,
		&rec.Mode,
		&rec.Difficulty,
		&rec.Config,
		&rec.Status,
		&rec.Error,
		&rec.StartTime,
		&rec.EndTime,
		&rec.Stats.Hits,
		&rec.Stats.Misses,
		&rec.Stats.Accuracy,
		&rec.Stats.AvgReactionTime,
		&rec.Stats.Score,
	)
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
