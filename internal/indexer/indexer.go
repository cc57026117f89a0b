package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"media-helper/internal/database"
	"media-helper/internal/logging"
	"media-helper/internal/mediatypes"
	"media-helper/internal/metrics"
)

// Number of records written per transaction
const defaultBatchSize = 500

// Config controls one indexing run.
type Config struct {
	Walker ParallelWalkerConfig
	// BatchSize is the number of records per transaction (0 = 500).
	BatchSize int
	// KeepMissing disables removal of records whose files are gone.
	KeepMissing bool
}

// DefaultConfig returns the configuration used by the CLI.
func DefaultConfig() Config {
	return Config{Walker: DefaultParallelWalkerConfig(), BatchSize: defaultBatchSize}
}

// Result summarizes an indexing run.
type Result struct {
	Indexed  map[mediatypes.Category]int64
	Removed  int64
	Errors   int64
	Duration time.Duration
}

// Total returns the number of records written.
func (r Result) Total() int64 {
	var n int64
	for _, c := range r.Indexed {
		n += c
	}
	return n
}

// Walk indexes the media files below dir into db. Records under dir that
// were not seen are removed unless cfg.KeepMissing is set. A cancelled ctx
// stops the walk and rolls back the open batch.
func Walk(ctx context.Context, db *database.Database, dir string, cfg Config) (Result, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return Result{}, fmt.Errorf("resolve %s: %w", dir, err)
	}

	metrics.IndexerRunsTotal.Inc()
	startTime := time.Now()
	// indexed_at has second resolution.
	cutoff := startTime.Truncate(time.Second)
	logging.Info("Starting file indexing of %s", root)

	w := &batchWriter{ctx: ctx, db: db, size: cfg.BatchSize, indexed: make(map[mediatypes.Category]int64)}
	walker := NewParallelWalker(ctx, root, cfg.Walker)
	walkErr := walker.Walk(w.add)
	flushErr := w.flush(walkErr)

	_, _, walkErrors := walker.Stats()
	res := Result{Indexed: w.indexed, Errors: walkErrors}

	if err := errors.Join(walkErr, flushErr, w.err); err != nil {
		metrics.IndexerErrors.Inc()
		res.Duration = time.Since(startTime)
		return res, fmt.Errorf("index %s: %w", root, err)
	}

	if !cfg.KeepMissing {
		removed, err := removeMissing(ctx, db, root, cutoff)
		if err != nil {
			logging.Error("Error cleaning up missing files: %v", err)
			metrics.IndexerErrors.Inc()
		}
		res.Removed = removed
	}

	res.Duration = time.Since(startTime)
	finalize(ctx, db, res)
	return res, nil
}

// batchWriter groups records into transactions. It runs on the walker's
// collector goroutine only.
type batchWriter struct {
	ctx     context.Context
	db      *database.Database
	size    int
	batch   *database.Batch
	pending int
	indexed map[mediatypes.Category]int64
	err     error
}

func (w *batchWriter) add(f Found) {
	if w.err != nil {
		return
	}
	if w.batch == nil {
		b, err := w.db.BeginBatch(w.ctx)
		if err != nil {
			w.err = err
			return
		}
		w.batch = b
	}

	if err := w.db.UpsertRecord(w.ctx, w.batch, f.Category, f.Record); err != nil {
		logging.Warn("Failed to index %s: %v", f.Record.Path, err)
		metrics.IndexerErrors.Inc()
		return
	}
	w.indexed[f.Category]++
	metrics.IndexerFilesIndexed.WithLabelValues(string(f.Category)).Inc()

	w.pending++
	if w.pending >= w.size {
		w.err = w.flush(nil)
	}
}

// flush ends the open batch, rolling it back when cause is non-nil.
func (w *batchWriter) flush(cause error) error {
	if w.batch == nil {
		return nil
	}
	err := w.db.EndBatch(w.batch, cause)
	w.batch = nil
	w.pending = 0
	if errors.Is(err, cause) {
		return nil
	}
	return err
}

func removeMissing(ctx context.Context, db *database.Database, root string, cutoff time.Time) (int64, error) {
	b, err := db.BeginBatch(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	var delErr error
	for _, category := range mediatypes.Categories {
		n, err := db.DeleteMissing(ctx, b, category, root, cutoff)
		if err != nil {
			delErr = err
			break
		}
		total += n
	}
	if err := db.EndBatch(b, delErr); err != nil {
		return 0, err
	}
	if total > 0 {
		logging.Info("Removed %d records for missing files", total)
	}
	return total, nil
}

func finalize(ctx context.Context, db *database.Database, res Result) {
	metrics.IndexerLastRunDuration.Set(res.Duration.Seconds())

	if err := db.SetLastIndexRun(ctx, time.Now()); err != nil {
		logging.Warn("Failed to record index run time: %v", err)
	}

	stats := database.IndexStats{LastIndexed: time.Now(), IndexDuration: res.Duration.Round(time.Millisecond).String()}
	if counts, err := db.CountByCategory(ctx); err == nil {
		stats.TotalAudio = counts[mediatypes.CategoryAudio]
		stats.TotalVideos = counts[mediatypes.CategoryVideo]
		stats.TotalImages = counts[mediatypes.CategoryImage]
		for category, n := range counts {
			metrics.MediaRecordsTotal.WithLabelValues(string(category)).Set(float64(n))
		}
	} else {
		logging.Warn("Failed to count records: %v", err)
	}
	db.UpdateStats(stats)

	logging.Info("Indexing complete: %d audio, %d video, %d image records written in %v (removed %d, errors %d)",
		res.Indexed[mediatypes.CategoryAudio],
		res.Indexed[mediatypes.CategoryVideo],
		res.Indexed[mediatypes.CategoryImage],
		res.Duration, res.Removed, res.Errors)
}
