package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan pipeline metrics
var (
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_helper_scans_total",
			Help: "Total number of scans by category and outcome",
		},
		[]string{"category", "outcome"}, // completed, cancelled, failed, aborted
	)

	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_helper_scan_duration_seconds",
			Help:    "Wall-clock duration of a scan from start to finish",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"category"},
	)

	ScansRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_helper_scans_running",
			Help: "Number of scans currently running",
		},
		[]string{"category"},
	)

	ScanItemsDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_helper_scan_items_decoded_total",
			Help: "Total number of rows decoded into items",
		},
		[]string{"category"},
	)

	ScanDecodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_helper_scan_decode_errors_total",
			Help: "Total number of rows that failed to decode",
		},
		[]string{"category"},
	)

	ScanProgressEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_helper_scan_progress_events_total",
			Help: "Progress events by category and result (delivered or throttled)",
		},
		[]string{"category", "result"},
	)
)

// Record store metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_helper_db_queries_total",
			Help: "Total number of record store queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_helper_db_query_duration_seconds",
			Help:    "Record store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_helper_db_transaction_duration_seconds",
			Help:    "Batch transaction duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	DBRowsAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_helper_db_rows_affected",
			Help:    "Rows affected by write statements",
			Buckets: []float64{1, 10, 100, 1000, 10000},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_helper_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	MediaRecordsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_helper_media_records_total",
			Help: "Number of records in the media store by category",
		},
		[]string{"category"},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_helper_indexer_runs_total",
			Help: "Total number of indexer runs",
		},
	)

	IndexerFilesIndexed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_helper_indexer_files_indexed_total",
			Help: "Total number of files written to the media store by the indexer",
		},
		[]string{"category"},
	)

	IndexerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_helper_indexer_errors_total",
			Help: "Total number of indexer errors",
		},
	)

	IndexerParallelWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_helper_indexer_parallel_workers",
			Help: "Number of workers used by the last directory walk",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_helper_indexer_last_run_duration_seconds",
			Help: "Duration of the last indexer run in seconds",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_helper_filesystem_retry_attempts_total",
			Help: "Filesystem operations retried after a stale file handle",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_helper_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after at least one retry",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_helper_filesystem_retry_failures_total",
			Help: "Filesystem operations that still failed after every retry",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_helper_filesystem_stale_errors_total",
			Help: "Stale file handle errors seen by filesystem operations",
		},
		[]string{"operation"},
	)
)

// Worker pool and delivery loop metrics
var (
	WorkerPoolQueued = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_helper_worker_pool_queued",
			Help: "Units of work waiting for a pool worker",
		},
	)

	WorkerPoolWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_helper_worker_pool_workers",
			Help: "Number of live pool worker goroutines",
		},
	)

	WorkerPoolTasksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_helper_worker_pool_tasks_total",
			Help: "Total units of work executed by the pool",
		},
	)

	DeliveryQueued = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_helper_delivery_queued",
			Help: "Callbacks posted to delivery loops and not yet run",
		},
	)

	DeliveryPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_helper_delivery_panics_total",
			Help: "Callbacks that panicked on a delivery loop",
		},
	)
)

// Media button metrics
var (
	ButtonEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_helper_button_events_total",
			Help: "Media button events by kind",
		},
		[]string{"kind"}, // hook, play, pause, play_pause, stop, next, previous, other
	)

	HookClicksDelivered = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_helper_hook_clicks_delivered",
			Help:    "Aggregated click counts delivered by the headset hook debouncer",
			Buckets: []float64{1, 2, 3, 4, 5, 8},
		},
	)

	AudioFocusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_helper_audio_focus_changes_total",
			Help: "Audio focus changes by kind",
		},
		[]string{"change"},
	)
)

// HTTP metrics (mediascan serve)
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_helper_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_helper_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_helper_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// Application info
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "media_helper_app_info",
		Help: "Build information, value is always 1",
	},
	[]string{"version", "commit", "go_version"},
)
