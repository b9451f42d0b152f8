package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roman-kulish/range-console/internal/progression"
	"github.com/roman-kulish/range-console/internal/session"
	"github.com/roman-kulish/range-console/internal/storage"
	"github.com/roman-kulish/range-console/internal/training"
	"github.com/roman-kulish/range-console/internal/training/scoring"
	"github.com/roman-kulish/range-console/internal/transport"
)

const storageDir = "data"

// Run wires the transport channel, the session registry and the optional
// session recorder together and keeps the console connected until the
// context is cancelled or the reconnect budget is exhausted.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	var recorder session.Recorder
	if config.Storage.Enabled {
		store, err := createStorage(&config.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage: %w", err)
		}
		defer store.Close()
		recorder = store
	}

	channel := transport.New(config.Settings.ServerURL, transport.WithLogger(logger))
	defer channel.Close()

	options := []func(*session.Registry){session.WithLogger(logger)}
	if recorder != nil {
		options = append(options, session.WithRecorder(recorder))
	}

	registry := session.New(channel, options...)
	defer registry.Close()

	// terminal transport failure ends the run so a supervisor can restart
	// the console with a fresh connection
	fatal := make(chan error, 1)
	channel.Subscribe(transport.EventError, func(e transport.Event) {
		var payload transport.ErrorMessage
		if err := json.Unmarshal(e.Data, &payload); err != nil {
			return
		}
		if payload.Message == transport.MaxReconnectMessage {
			select {
			case fatal <- fmt.Errorf("transport: %s", payload.Message):
			default:
			}
		}
	})

	channel.Subscribe(transport.EventConnection, func(e transport.Event) {
		var payload transport.ConnectionStatus
		if err := json.Unmarshal(e.Data, &payload); err != nil {
			return
		}
		logger.Info("connection status changed", slog.String("status", payload.Status))
	})

	registry.Subscribe(session.EventCompleted, func(s *training.Session) {
		summary := scoring.Summarize(s)
		logger.Info("session completed",
			slog.String("deviceID", s.DeviceID),
			slog.String("sessionID", s.ID),
			slog.Duration("duration", summary.Duration),
			slog.String("accuracy", fmt.Sprintf("%.1f%%", summary.Accuracy)),
			slog.String("avgReactionTime", fmt.Sprintf("%.0fms", summary.AvgReactionTime)),
			slog.String("hitsPerMinute", fmt.Sprintf("%.1f", summary.HitsPerMinute)),
			slog.Int("score", summary.Score),
		)

		for _, advice := range progression.Advise(s) {
			logger.Info("training advice",
				slog.String("deviceID", s.DeviceID),
				slog.String("aspect", advice.Aspect),
				slog.String("suggestion", advice.Message),
				slog.String("mode", advice.Mode.String()),
			)
		}
	})

	if err := channel.Connect(ctx); err != nil {
		// reconnects are already scheduled; only log here
		logger.Warn("initial connection failed, retrying", slog.String("error", err.Error()))
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-fatal:
		return err
	}
}

func createStorage(config *StorageConfig) (*storage.SqliteStore, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	dbDir := filepath.Join(wd, storageDir)
	if config.DataDirectory != "" {
		dbDir = filepath.Join(wd, config.DataDirectory)
	}

	stat, err := os.Stat(dbDir)
	if err != nil {
		return nil, fmt.Errorf("storage directory '%s' is not accessible: %w", dbDir, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dbDir)
	}

	dbPath := filepath.Join(dbDir, fmt.Sprintf("range_console_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	return storage.NewSqliteStore(dbPath), nil
}
