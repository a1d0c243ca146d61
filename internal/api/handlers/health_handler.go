package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger checks store connectivity. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports store reachability and basic host stats.
type HealthHandler struct {
	store   Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store Pinger, timeout time.Duration) *HealthHandler {
	return &HealthHandler{store: store, timeout: timeout}
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status            string   `json:"status"`
	Database          string   `json:"database"`
	MemoryUsedPercent *float64 `json:"memoryUsedPercent,omitempty"`
	UptimeSeconds     *uint64  `json:"uptimeSeconds,omitempty"`
}

// Get handles the health check.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "ok"}
	status := http.StatusOK

	if err := h.store.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("Health check: store unreachable")
		resp.Status = "degraded"
		resp.Database = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		resp.MemoryUsedPercent = &vm.UsedPercent
	}
	if uptime, err := host.UptimeWithContext(ctx); err == nil {
		resp.UptimeSeconds = &uptime
	}

	writeJSON(w, status, resp)
}
