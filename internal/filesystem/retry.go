package filesystem

import (
	"context"
	"errors"
	"os"
	"syscall"
	"time"

	"media-helper/internal/logging"
	"media-helper/internal/metrics"
)

// RetryConfig configures retries of filesystem operations.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the defaults used for media directories on NFS.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// IsStale reports whether err is a stale NFS file handle (ESTALE).
func IsStale(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}

// Retry runs fn until it succeeds, fails with an error other than ESTALE,
// runs out of retries or ctx is done. op labels logs and metrics.
func Retry[T any](ctx context.Context, op, path string, cfg RetryConfig, fn func() (T, error)) (T, error) {
	backoff := cfg.InitialBackoff

	for attempt := 0; ; attempt++ {
		v, err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("%s succeeded on retry %d for %s", op, attempt, path)
				metrics.FilesystemRetrySuccess.WithLabelValues(op).Inc()
			}
			return v, nil
		}
		if !IsStale(err) {
			return v, err
		}

		metrics.FilesystemStaleErrors.WithLabelValues(op).Inc()
		if attempt >= cfg.MaxRetries {
			logging.Warn("%s failed after %d retries for %s: %v", op, cfg.MaxRetries, path, err)
			metrics.FilesystemRetryFailures.WithLabelValues(op).Inc()
			return v, err
		}

		metrics.FilesystemRetryAttempts.WithLabelValues(op).Inc()
		logging.Debug("%s stale file handle for %s, retrying in %v (attempt %d/%d)",
			op, path, backoff, attempt+1, cfg.MaxRetries)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return v, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}
}

// Stat is os.Stat retried on stale file handles.
func Stat(ctx context.Context, path string, cfg RetryConfig) (os.FileInfo, error) {
	return Retry(ctx, "stat", path, cfg, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}
