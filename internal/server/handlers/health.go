package handlers

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"
)

// Pinger is anything whose connectivity can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WorkerStats reports queue worker activity.
type WorkerStats interface {
	ActiveCount() int32
}

// HealthHandler serves /health and /ready endpoints.
type HealthHandler struct {
	store     Pinger
	redis     Pinger
	workers   WorkerStats
	startTime time.Time
	version   string
	ready     *atomic.Bool
}

// NewHealthHandler creates a health handler. redis may be nil when no
// component uses it.
func NewHealthHandler(store Pinger, redis Pinger, version string) *HealthHandler {
	ready := &atomic.Bool{}
	ready.Store(true)
	return &HealthHandler{
		store:     store,
		redis:     redis,
		startTime: time.Now(),
		version:   version,
		ready:     ready,
	}
}

// WithWorkers makes Health report the number of busy queue workers.
func (h *HealthHandler) WithWorkers(w WorkerStats) *HealthHandler {
	h.workers = w
	return h
}

// SetReady sets the readiness state (false during shutdown).
func (h *HealthHandler) SetReady(v bool) {
	h.ready.Store(v)
}

type healthResponse struct {
	Status  string `json:"status"`
	Store   string `json:"store"`
	Redis   string `json:"redis,omitempty"`
	Workers *int32 `json:"active_workers,omitempty"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Health checks store and Redis connectivity and returns system health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Store:   "connected",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	}
	statusCode := http.StatusOK

	if err := h.store.Ping(r.Context()); err != nil {
		resp.Status = "error"
		resp.Store = "disconnected"
		statusCode = http.StatusServiceUnavailable
	}
	if h.redis != nil {
		resp.Redis = "connected"
		if err := h.redis.Ping(r.Context()); err != nil {
			resp.Status = "error"
			resp.Redis = "disconnected"
			statusCode = http.StatusServiceUnavailable
		}
	}

	if h.workers != nil {
		active := h.workers.ActiveCount()
		resp.Workers = &active
	}

	writeJSON(w, statusCode, resp)
}

// Ready returns 200 if the server is accepting traffic, 503 during shutdown.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
