package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"media-helper/internal/database"
	"media-helper/internal/delivery"
	"media-helper/internal/handlers"
	"media-helper/internal/logging"
	"media-helper/internal/metrics"
	"media-helper/internal/middleware"
	"media-helper/internal/startup"
	"media-helper/internal/workers"
)

const (
	shutdownTimeout   = 30 * time.Second
	collectorInterval = time.Minute
)

func runServe(ctx context.Context, cfg *startup.Config, db *database.Database, pool *workers.Pool, loop *delivery.Loop) error {
	startTime := time.Now()

	if _, err := loadStats(ctx, db); err != nil {
		logging.Warn("Failed to load index stats: %v", err)
	}
	db.UpdateDBMetrics()

	h := handlers.New(db, handlers.Config{
		UpdateThrottle: cfg.UpdateThrottle,
		Pool:           pool,
		Poster:         loop,
	})
	router := setupRouter(h, cfg.Metrics())
	startup.LogHTTPRoutes(router)

	handler := middleware.Logger(middleware.DefaultLoggingConfig())(router)

	listener, err := net.Listen("tcp", cfg.MetricsAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.MetricsAddr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	collector := metrics.NewCollector(db, collectorInterval)
	collector.Start()

	indexCtx, stopIndexer := context.WithCancel(ctx)
	var wg sync.WaitGroup
	if cfg.MediaDir != "" && cfg.IndexInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reindexLoop(indexCtx, cfg, db)
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		MetricsAddr:     listener.Addr().String(),
		MetricsEnabled:  cfg.Metrics(),
		StartupDuration: time.Since(startTime),
	})

	var runErr error
	select {
	case <-ctx.Done():
		startup.LogShutdownInitiated("shutdown signal")
	case err := <-serveErr:
		runErr = fmt.Errorf("server error: %w", err)
		startup.LogShutdownInitiated("server error")
	}

	startup.LogShutdownStep("Stopping indexer")
	stopIndexer()
	wg.Wait()
	startup.LogShutdownStepComplete("Indexer stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("  [ERROR] Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownComplete()
	return runErr
}

func setupRouter(h *handlers.Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	h.Register(r)
	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Name("metrics")
	}
	return r
}

// reindexLoop indexes MediaDir immediately and then every IndexInterval
// until ctx is cancelled. A failed pass is logged and retried on the next
// tick.
func reindexLoop(ctx context.Context, cfg *startup.Config, db *database.Database) {
	ticker := time.NewTicker(cfg.IndexInterval)
	defer ticker.Stop()

	for {
		res, err := indexDir(ctx, cfg, db, cfg.MediaDir, false, 0)
		switch {
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			logging.Error("Index of %s failed: %v", cfg.MediaDir, err)
		default:
			logging.Info("Indexed %d files in %v (%d removed, %d errors)",
				res.Total(), res.Duration.Round(time.Millisecond), res.Removed, res.Errors)
		}
		db.UpdateDBMetrics()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
