// Package startup handles configuration loading and startup/shutdown logging
// for the media-helper commands.
//
// # Configuration
//
// [LoadConfig] reads an optional YAML file named by MEDIA_HELPER_CONFIG and
// then applies environment overrides. Unknown YAML keys are an error.
//
//   - DATABASE_PATH: SQLite database file (default: media-helper.db)
//   - MEDIA_DIR: Directory to index when no argument is given
//   - INDEX_INTERVAL: Re-index period for serve (default: 30m)
//   - SCAN_WORKERS: Maximum scan/index workers (default: automatic)
//   - SCAN_WORKER_IDLE: Idle time before a worker exits (default: 10s)
//   - SCAN_UPDATE_THROTTLE: Minimum spacing of progress updates (default: 100ms)
//   - CLICK_INTERVAL: Headset click grouping window (default: 300ms)
//   - METRICS_ENABLED: Serve /metrics (default: true)
//   - METRICS_ADDR: Listen address for serve (default: :9090)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//
// An example file:
//
//	database_path: /var/lib/media-helper/media.db
//	scan_workers: 4
//	update_throttle: 250ms
//	log_level: debug
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
