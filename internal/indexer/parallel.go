package indexer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"media-helper/internal/database"
	"media-helper/internal/filesystem"
	"media-helper/internal/logging"
	"media-helper/internal/mediatypes"
	"media-helper/internal/metrics"
)

// ParallelWalkerConfig configures the parallel directory walker
type ParallelWalkerConfig struct {
	// NumWorkers is the number of parallel workers (0 = 3)
	NumWorkers int
	// ChannelBuffer is the size of the work channel buffer
	ChannelBuffer int
	// SkipHidden skips files and directories starting with "."
	SkipHidden bool
	// Retry applies to stat calls that hit a stale NFS file handle
	Retry filesystem.RetryConfig
}

// DefaultParallelWalkerConfig returns defaults, honouring INDEX_WORKERS.
func DefaultParallelWalkerConfig() ParallelWalkerConfig {
	// 3 workers is safe for NFS and still fast on local disks
	numWorkers := 3
	if override := os.Getenv("INDEX_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			numWorkers = count
		}
	}

	return ParallelWalkerConfig{
		NumWorkers:    numWorkers,
		ChannelBuffer: 1000,
		SkipHidden:    true,
		Retry:         filesystem.DefaultRetryConfig(),
	}
}

// Found is a media file discovered by the walker.
type Found struct {
	Category mediatypes.Category
	Record   database.Record
}

type fileJob struct {
	path string
	info os.FileInfo
}

// ParallelWalker walks a directory tree and classifies files on a set of
// workers.
type ParallelWalker struct {
	config  ParallelWalkerConfig
	rootDir string

	jobs    chan fileJob
	results chan Found

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	filesProcessed atomic.Int64
	filesSkipped   atomic.Int64
	errorsCount    atomic.Int64
}

// NewParallelWalker creates a walker bound to ctx.
func NewParallelWalker(ctx context.Context, rootDir string, config ParallelWalkerConfig) *ParallelWalker {
	if config.NumWorkers <= 0 {
		config.NumWorkers = 3
	}
	if config.ChannelBuffer <= 0 {
		config.ChannelBuffer = 1000
	}
	ctx, cancel := context.WithCancel(ctx)

	return &ParallelWalker{
		config:  config,
		rootDir: rootDir,
		jobs:    make(chan fileJob, config.ChannelBuffer),
		results: make(chan Found, config.ChannelBuffer),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Walk performs the walk and calls emit for every media file, on a single
// goroutine. It returns ctx.Err() when cancelled.
func (pw *ParallelWalker) Walk(emit func(Found)) error {
	defer pw.cancel()

	logging.Info("Starting parallel directory walk of %s with %d workers", pw.rootDir, pw.config.NumWorkers)
	startTime := time.Now()
	metrics.IndexerParallelWorkers.Set(float64(pw.config.NumWorkers))

	for i := 0; i < pw.config.NumWorkers; i++ {
		pw.wg.Add(1)
		go pw.worker(i)
	}

	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for f := range pw.results {
			emit(f)
		}
	}()

	walkErr := pw.walkAndEnqueue()

	close(pw.jobs)
	pw.wg.Wait()
	close(pw.results)
	<-collected

	logging.Info("Parallel walk complete: %d media files, %d skipped in %v (errors: %d)",
		pw.filesProcessed.Load(),
		pw.filesSkipped.Load(),
		time.Since(startTime),
		pw.errorsCount.Load())

	if walkErr != nil {
		return walkErr
	}
	return pw.ctx.Err()
}

func (pw *ParallelWalker) walkAndEnqueue() error {
	if _, err := filesystem.Stat(pw.ctx, pw.rootDir, pw.config.Retry); err != nil {
		return err
	}

	err := filepath.WalkDir(pw.rootDir, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-pw.ctx.Done():
			return fs.SkipAll
		default:
		}

		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			pw.errorsCount.Add(1)
			metrics.IndexerErrors.Inc()
			return nil
		}

		if path != pw.rootDir && pw.config.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if filesystem.IsStale(err) {
			info, err = filesystem.Stat(pw.ctx, path, pw.config.Retry)
		}
		if err != nil {
			logging.Warn("Error getting info for %s: %v", path, err)
			pw.errorsCount.Add(1)
			metrics.IndexerErrors.Inc()
			return nil
		}

		select {
		case pw.jobs <- fileJob{path: path, info: info}:
		case <-pw.ctx.Done():
			return fs.SkipAll
		}
		return nil
	})
	return err
}

func (pw *ParallelWalker) worker(id int) {
	defer pw.wg.Done()

	logging.Debug("Worker %d started", id)

	for job := range pw.jobs {
		found, ok := classify(job)
		if !ok {
			pw.filesSkipped.Add(1)
			continue
		}
		pw.filesProcessed.Add(1)

		select {
		case pw.results <- found:
		case <-pw.ctx.Done():
			return
		}
	}

	logging.Debug("Worker %d finished", id)
}

// classify maps a file to its category record. Non-media files are
// reported as not ok.
func classify(job fileJob) (Found, bool) {
	ext := strings.ToLower(filepath.Ext(job.info.Name()))
	category := mediatypes.GetCategory(ext)
	if category == mediatypes.CategoryOther {
		return Found{}, false
	}

	rec := database.Record{
		Path:        job.path,
		DisplayName: job.info.Name(),
		Title:       strings.TrimSuffix(job.info.Name(), filepath.Ext(job.info.Name())),
		MimeType:    mediatypes.GetMimeType(ext),
		Size:        job.info.Size(),
		ModTime:     job.info.ModTime(),
	}
	if category == mediatypes.CategoryAudio {
		rec.Fields = map[string]any{"is_music": 1}
	}
	return Found{Category: category, Record: rec}, true
}

// Stop cancels the walk.
func (pw *ParallelWalker) Stop() {
	pw.cancel()
}

// Stats returns current processing statistics
func (pw *ParallelWalker) Stats() (files, skipped, errors int64) {
	return pw.filesProcessed.Load(), pw.filesSkipped.Load(), pw.errorsCount.Load()
}
