package handlers

import (
	"context"
	"time"

	"github.com/gorilla/mux"

	"media-helper/internal/database"
	"media-helper/internal/delivery"
	"media-helper/internal/mediastore"
)

// DefaultScanTimeout bounds a single scan request.
const DefaultScanTimeout = 30 * time.Second

// Store is the record store served over HTTP.
type Store interface {
	mediastore.RecordStore
	Ping(ctx context.Context) error
	GetStats() database.IndexStats
}

// Config customizes Handlers. Zero values use the scanner defaults.
type Config struct {
	UpdateThrottle time.Duration
	ScanTimeout    time.Duration
	Pool           mediastore.Submitter
	Poster         delivery.Poster
}

// Handlers serves health and scan endpoints for a Store.
type Handlers struct {
	store     Store
	cfg       Config
	startTime time.Time
}

// New creates Handlers over store.
func New(store Store, cfg Config) *Handlers {
	if cfg.ScanTimeout <= 0 {
		cfg.ScanTimeout = DefaultScanTimeout
	}
	return &Handlers{
		store:     store,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// Register adds every route to r.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET", "HEAD").Name("health")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD").Name("liveness")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET", "HEAD").Name("readiness")
	r.HandleFunc("/version", h.GetVersion).Methods("GET").Name("version")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/scan/{category}", h.ScanCategory).Methods("GET").Name("scan")
}
