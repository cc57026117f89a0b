// Command mediascan indexes media files into a SQLite media store and
// scans the store asynchronously by category.
//
// Usage:
//
//	mediascan <command> [arguments]
//
// Commands:
//
//	index   Walk a directory (default MEDIA_DIR) and upsert every audio,
//	        video and image file. Records whose files disappeared are
//	        removed unless -keep-missing is given.
//
//	scan    Run a scanner for one category, or for all three concurrently,
//	        and print the decoded items. Progress is shown on a terminal.
//
//	status  Print record counts per category and the last index run.
//
//	serve   Serve /healthz, /livez, /readyz, /version, /api/scan/{category}
//	        and /metrics on METRICS_ADDR. When MEDIA_DIR is set it is
//	        re-indexed every INDEX_INTERVAL.
//
//	keys    Read media key names and audio focus commands from stdin and
//	        print how a player reacts. Headset hook presses are debounced
//	        by CLICK_INTERVAL.
//
// Environment:
//
//	MEDIA_HELPER_CONFIG  - Optional YAML configuration file
//	DATABASE_PATH        - SQLite database file (default: media-helper.db)
//	MEDIA_DIR            - Directory to index
//	SCAN_WORKERS         - Maximum scan and index workers (default: auto)
//	SCAN_UPDATE_THROTTLE - Minimum spacing of progress events (default: 100ms)
//	CLICK_INTERVAL       - Headset hook click window (default: 300ms)
//	LOG_LEVEL            - debug, info, warn or error (default: info)
//
// Interrupting a command with SIGINT or SIGTERM cancels its context; the
// exit code is then 130.
package main
