package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/automaxprocs/maxprocs"

	"media-helper/internal/database"
	"media-helper/internal/delivery"
	"media-helper/internal/logging"
	"media-helper/internal/memory"
	"media-helper/internal/metrics"
	"media-helper/internal/startup"
	"media-helper/internal/workers"
)

// Default timeout for one-shot database commands
const defaultTimeout = 30 * time.Second

var commands = map[string]string{
	"index":  "index [-keep-missing] [-batch N] [-vacuum] [dir]  Index media files below dir (default MEDIA_DIR)",
	"scan":   "scan [-q text] [-sort key] [-desc] [-limit N] [-json] <audio|video|image|all>",
	"status": "status                                   Show record counts and the last index run",
	"serve":  "serve                                    Serve health, scan API and /metrics on METRICS_ADDR",
	"keys":   "keys                                     Read media key names from stdin and dispatch them",
}

func main() {
	_, _ = maxprocs.Set(maxprocs.Logger(logging.Debug))
	memory.ConfigureFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) int {
	if len(args) == 0 {
		printUsage(os.Stderr)
		return 2
	}

	command, rest := args[0], args[1:]
	switch command {
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	}
	if _, ok := commands[command]; !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage(os.Stderr)
		return 2
	}

	cfg, err := startup.LoadConfig()
	if err != nil {
		logging.Error("Configuration error: %v", err)
		return 1
	}

	metrics.InitializeMetrics()
	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, startup.GoVersion).Set(1)

	// The shared pool and loop live until the process exits.
	pool := workers.InitShared(workers.PoolConfig{MaxWorkers: cfg.ScanWorkers, KeepAlive: cfg.WorkerIdle})
	loop := delivery.Shared()
	startup.LogScanInit(pool.MaxWorkers(), cfg.UpdateThrottle)

	if command == "keys" {
		return exitCode(command, runKeys(ctx, cfg, loop, stdin, stdout))
	}

	dbStart := time.Now()
	db, err := database.New(ctx, cfg.DatabasePath)
	if err != nil {
		logging.Error("Failed to initialize database: %v", err)
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn("failed to close database: %v", err)
		}
	}()
	startup.LogDatabaseInit(cfg.DatabasePath, time.Since(dbStart))

	switch command {
	case "index":
		err = runIndex(ctx, cfg, db, rest, stdout)
	case "scan":
		err = runScan(ctx, cfg, db, rest, stdout)
	case "status":
		err = runStatus(ctx, db, stdout)
	case "serve":
		err = runServe(ctx, cfg, db, pool, loop)
	}
	return exitCode(command, err)
}

func exitCode(command string, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		logging.Warn("%s interrupted", command)
		return 130
	default:
		logging.Error("%s failed: %v", command, err)
		return 1
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// Any character that is not alphanumeric, a hyphen, or an underscore becomes '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Media store scanner")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: mediascan <command> [arguments]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	for _, name := range []string{"index", "scan", "status", "serve", "keys"} {
		fmt.Fprintf(w, "  %s\n", commands[name])
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  %s - Optional YAML configuration file\n", startup.ConfigFileEnv)
	fmt.Fprintln(w, "  DATABASE_PATH, MEDIA_DIR, SCAN_WORKERS, SCAN_UPDATE_THROTTLE, CLICK_INTERVAL,")
	fmt.Fprintln(w, "  INDEX_INTERVAL, METRICS_ADDR, METRICS_ENABLED, LOG_LEVEL")
}
