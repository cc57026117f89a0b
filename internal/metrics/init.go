package metrics

import "media-helper/internal/mediatypes"

// Outcome labels for ScansTotal.
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
	OutcomeAborted   = "aborted"
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, c := range mediatypes.Categories {
		cat := string(c)
		for _, outcome := range []string{OutcomeCompleted, OutcomeCancelled, OutcomeFailed, OutcomeAborted} {
			ScansTotal.WithLabelValues(cat, outcome)
		}
		ScanDuration.WithLabelValues(cat)
		ScansRunning.WithLabelValues(cat)
		ScanItemsDecoded.WithLabelValues(cat)
		ScanDecodeErrors.WithLabelValues(cat)
		ScanProgressEvents.WithLabelValues(cat, "delivered")
		ScanProgressEvents.WithLabelValues(cat, "throttled")
		MediaRecordsTotal.WithLabelValues(cat)
		IndexerFilesIndexed.WithLabelValues(cat)
	}

	for _, op := range []string{"initialize_schema", "count", "query", "upsert", "delete_missing", "stats", "metadata", "vacuum"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	DBTransactionDuration.WithLabelValues("commit")
	DBTransactionDuration.WithLabelValues("rollback")

	for _, kind := range []string{"hook", "play", "pause", "play_pause", "stop", "next", "previous", "other"} {
		ButtonEventsTotal.WithLabelValues(kind)
	}

	for _, op := range []string{"stat"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}

	for _, change := range []string{"gain", "loss", "loss_transient", "loss_transient_can_duck"} {
		AudioFocusChanges.WithLabelValues(change)
	}
}
