package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-helper/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Error   string `json:"error,omitempty"`

	LastIndexed   string `json:"lastIndexed,omitempty"`
	IndexDuration string `json:"indexDuration,omitempty"`
	TotalAudio    int64  `json:"totalAudio"`
	TotalVideos   int64  `json:"totalVideos"`
	TotalImages   int64  `json:"totalImages"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. It answers 503 when
// the record store cannot be reached.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	stats := h.store.GetStats()

	response := HealthResponse{
		Status:        statusHealthy,
		Ready:         true,
		Version:       startup.Version,
		Uptime:        time.Since(h.startTime).Round(time.Second).String(),
		IndexDuration: stats.IndexDuration,
		TotalAudio:    stats.TotalAudio,
		TotalVideos:   stats.TotalVideos,
		TotalImages:   stats.TotalImages,
		GoVersion:     runtime.Version(),
		NumCPU:        runtime.NumCPU(),
		NumGoroutine:  runtime.NumGoroutine(),
	}
	if !stats.LastIndexed.IsZero() {
		response.LastIndexed = stats.LastIndexed.Format(time.RFC3339)
	}

	code := http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		response.Status = statusDegraded
		response.Ready = false
		response.Error = err.Error()
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if r.Method != http.MethodHead {
		writeJSON(w, response)
	}
}

// LivenessCheck always answers 200 while the server is running
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeJSONStatus(w, r, "alive", http.StatusOK)
}

// ReadinessCheck answers 200 only when the record store is reachable
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeJSONStatus(w, r, "not_ready", http.StatusServiceUnavailable)
		return
	}
	writeJSONStatus(w, r, "ready", http.StatusOK)
}
