package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"media-helper/internal/database"
	"media-helper/internal/indexer"
	"media-helper/internal/mediatypes"
	"media-helper/internal/startup"
)

func runIndex(ctx context.Context, cfg *startup.Config, db *database.Database, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("index", flag.ContinueOnError)
	fs.SetOutput(out)
	keepMissing := fs.Bool("keep-missing", false, "keep records whose files no longer exist")
	batch := fs.Int("batch", 0, "records per transaction (default 500)")
	vacuum := fs.Bool("vacuum", false, "compact the database after indexing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dir := fs.Arg(0)
	if dir == "" {
		dir = cfg.MediaDir
	}
	if dir == "" {
		return errors.New("no directory given and MEDIA_DIR is not set")
	}

	res, err := indexDir(ctx, cfg, db, dir, *keepMissing, *batch)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Indexed %d files in %v\n", res.Total(), res.Duration.Round(time.Millisecond))
	for _, category := range mediatypes.Categories {
		fmt.Fprintf(out, "  %-6s %d\n", category, res.Indexed[category])
	}
	fmt.Fprintf(out, "Removed %d missing, %d errors\n", res.Removed, res.Errors)

	if *vacuum {
		if err := db.Vacuum(ctx); err != nil {
			return fmt.Errorf("vacuum: %w", err)
		}
		fmt.Fprintln(out, "Database compacted")
	}
	return nil
}

// indexDir runs one indexing pass with the configured worker count.
func indexDir(ctx context.Context, cfg *startup.Config, db *database.Database, dir string, keepMissing bool, batch int) (indexer.Result, error) {
	icfg := indexer.DefaultConfig()
	if cfg.ScanWorkers > 0 {
		icfg.Walker.NumWorkers = cfg.ScanWorkers
	}
	icfg.KeepMissing = keepMissing
	if batch > 0 {
		icfg.BatchSize = batch
	}

	startup.LogIndexerInit(dir, icfg.Walker.NumWorkers)
	return indexer.Walk(ctx, db, dir, icfg)
}
