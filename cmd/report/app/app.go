package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/range-console/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	if config.SessionID != "" {
		return reportSession(ctx, store, config.SessionID)
	}
	return reportSessions(ctx, store, config, logger)
}

func reportSessions(ctx context.Context, store *storage.SqliteStore, config *Config, logger *slog.Logger) error {
	records, err := store.Sessions(ctx, config.DeviceID)
	if err != nil {
		return fmt.Errorf("reading sessions: %w", err)
	}
	if len(records) == 0 {
		logger.Info("no recorded sessions found", slog.String("db", config.DBPath))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tDEVICE\tMODE\tDIFFICULTY\tSTATUS\tSTARTED\tDURATION\tHITS\tMISSES\tACCURACY\tAVG RT\tSCORE")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%.1f%%\t%.0fms\t%s\n",
			rec.SessionID,
			rec.DeviceID,
			rec.Mode,
			rec.Difficulty,
			rec.Status,
			humanize.Time(rec.StartTime),
			formatDuration(rec.Duration()),
			rec.Stats.Hits,
			rec.Stats.Misses,
			rec.Stats.Accuracy,
			rec.Stats.AvgReactionTime,
			humanize.Comma(int64(rec.Stats.Score)))
	}
	if err = w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	if err = reportAggregates(records); err != nil {
		return err
	}

	if config.Verbose {
		for _, rec := range records {
			fmt.Println()
			if err = reportProgress(ctx, store, rec.SessionID); err != nil {
				return err
			}
		}
	}
	return nil
}

func reportSession(ctx context.Context, store *storage.SqliteStore, sessionID string) error {
	rec, err := store.Session(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("reading session: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("session '%s' was not recorded", sessionID)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Session:\t%s\n", rec.SessionID)
	fmt.Fprintf(w, "Device:\t%s\n", rec.DeviceID)
	fmt.Fprintf(w, "Mode:\t%s (%s)\n", rec.Mode, rec.Difficulty)
	fmt.Fprintf(w, "Status:\t%s\n", rec.Status)
	if rec.Error.Valid {
		fmt.Fprintf(w, "Error:\t%s\n", rec.Error.String)
	}
	fmt.Fprintf(w, "Started:\t%s (%s)\n", rec.StartTime.Local().Format(time.DateTime), humanize.Time(rec.StartTime))
	fmt.Fprintf(w, "Duration:\t%s\n", formatDuration(rec.Duration()))
	fmt.Fprintf(w, "Hits:\t%d\n", rec.Stats.Hits)
	fmt.Fprintf(w, "Misses:\t%d\n", rec.Stats.Misses)
	fmt.Fprintf(w, "Accuracy:\t%.1f%%\n", rec.Stats.Accuracy)
	fmt.Fprintf(w, "Avg reaction:\t%.0fms\n", rec.Stats.AvgReactionTime)
	fmt.Fprintf(w, "Score:\t%s\n", humanize.Comma(int64(rec.Stats.Score)))
	if err = w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	return reportProgress(ctx, store, rec.SessionID)
}

func reportProgress(ctx context.Context, store *storage.SqliteStore, sessionID string) error {
	reader, err := store.Progress(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("reading progress for session '%s': %w", sessionID, err)
	}
	defer reader.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Progress for %s:\n", sessionID)
	fmt.Fprintln(w, "TIME\tHITS\tMISSES\tACCURACY\tAVG RT\tSCORE")

	var count int
	for reader.Next() {
		rec := reader.Current()
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f%%\t%.0fms\t%d\n",
			rec.Timestamp.Local().Format(time.TimeOnly),
			rec.Stats.Hits,
			rec.Stats.Misses,
			rec.Stats.Accuracy,
			rec.Stats.AvgReactionTime,
			rec.Stats.Score)
		count++
	}
	if err = reader.Err(); err != nil {
		return err
	}
	if count == 0 {
		fmt.Fprintln(w, "(no snapshots)\t\t\t\t\t")
	}
	return w.Flush()
}

// deviceAggregate accumulates per-device totals across recorded sessions.
type deviceAggregate struct {
	deviceID  string
	sessions  int
	totalTime time.Duration
	hits      int
	misses    int
	sumAcc    float64
	sumRT     float64
	bestScore int
}

func reportAggregates(records []*storage.SessionRecord) error {
	byDevice := make(map[string]*deviceAggregate)
	var order []string
	for _, rec := range records {
		agg, ok := byDevice[rec.DeviceID]
		if !ok {
			agg = &deviceAggregate{deviceID: rec.DeviceID}
			byDevice[rec.DeviceID] = agg
			order = append(order, rec.DeviceID)
		}
		agg.sessions++
		agg.totalTime += rec.Duration()
		agg.hits += rec.Stats.Hits
		agg.misses += rec.Stats.Misses
		agg.sumAcc += rec.Stats.Accuracy
		agg.sumRT += rec.Stats.AvgReactionTime
		if rec.Stats.Score > agg.bestScore {
			agg.bestScore = rec.Stats.Score
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DEVICE\tSESSIONS\tTOTAL TIME\tHITS\tMISSES\tAVG ACCURACY\tAVG RT\tBEST SCORE")
	for _, id := range order {
		agg := byDevice[id]
		n := float64(agg.sessions)
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%.1f%%\t%.0fms\t%s\n",
			agg.deviceID,
			agg.sessions,
			formatDuration(agg.totalTime),
			humanize.Comma(int64(agg.hits)),
			humanize.Comma(int64(agg.misses)),
			agg.sumAcc/n,
			agg.sumRT/n,
			humanize.Comma(int64(agg.bestScore)))
	}
	return w.Flush()
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
