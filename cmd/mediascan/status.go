package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"media-helper/internal/database"
	"media-helper/internal/mediatypes"
)

func runStatus(ctx context.Context, db *database.Database, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stats, err := loadStats(ctx, db)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Records:")
	fmt.Fprintf(out, "  %-6s %d\n", mediatypes.CategoryAudio, stats.TotalAudio)
	fmt.Fprintf(out, "  %-6s %d\n", mediatypes.CategoryVideo, stats.TotalVideos)
	fmt.Fprintf(out, "  %-6s %d\n", mediatypes.CategoryImage, stats.TotalImages)
	if stats.LastIndexed.IsZero() {
		fmt.Fprintln(out, "Last index run: never")
	} else {
		fmt.Fprintf(out, "Last index run: %s\n", stats.LastIndexed.Format(time.RFC3339))
	}
	return nil
}

// loadStats reads record counts and the last index time into the
// database's cached stats and returns them.
func loadStats(ctx context.Context, db *database.Database) (database.IndexStats, error) {
	counts, err := db.CountByCategory(ctx)
	if err != nil {
		return database.IndexStats{}, fmt.Errorf("count records: %w", err)
	}
	last, err := db.GetLastIndexRun(ctx)
	if err != nil {
		return database.IndexStats{}, fmt.Errorf("read last index run: %w", err)
	}

	stats := db.GetStats()
	stats.TotalAudio = counts[mediatypes.CategoryAudio]
	stats.TotalVideos = counts[mediatypes.CategoryVideo]
	stats.TotalImages = counts[mediatypes.CategoryImage]
	stats.LastIndexed = last
	db.UpdateStats(stats)
	return stats, nil
}
