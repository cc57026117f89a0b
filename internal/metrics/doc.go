// Package metrics provides Prometheus instrumentation for the media helper.
//
// All metrics are registered on the default registry through promauto and
// are prefixed with "media_helper_".
//
// # Metric Categories
//
// ## Scan Metrics
//
// Track the asynchronous enumeration pipeline:
//   - ScansTotal: Counter of scans by category and outcome
//     (completed, cancelled, failed, aborted)
//   - ScanDuration: Histogram of scan wall-clock time by category
//   - ScansRunning: Gauge of in-flight scans by category
//   - ScanItemsDecoded: Counter of decoded rows
//   - ScanDecodeErrors: Counter of rows that failed to decode
//   - ScanProgressEvents: Counter of progress events, delivered or throttled
//
// ## Record Store Metrics
//
//   - DBQueryTotal / DBQueryDuration: per-operation query accounting
//   - MediaRecordsTotal: Gauge of stored records by category, refreshed by
//     the Collector
//
// ## Worker Pool and Delivery Metrics
//
//   - WorkerPoolQueued, WorkerPoolWorkers, WorkerPoolTasksTotal
//   - DeliveryQueued, DeliveryPanics
//
// ## Media Button Metrics
//
//   - ButtonEventsTotal: media button events by kind
//   - HookClicksDelivered: histogram of aggregated headset hook clicks
//   - AudioFocusChanges: focus changes by kind
//
// # Initialization
//
// Call InitializeMetrics once at startup so every label combination is
// exported on the first scrape.
package metrics
