package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/projectdesk/internal/http/respond"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	store     Pinger
	logger    *zap.Logger
	startedAt time.Time
}

func NewHealthHandler(store Pinger, logger *zap.Logger, startedAt time.Time) *HealthHandler {
	return &HealthHandler{store: store, logger: logger, startedAt: startedAt}
}

func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleLive)
	mux.HandleFunc("GET /health/ready", h.handleReady)
}

type healthStatus struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Storage string `json:"storage,omitempty"`
}

func (h *HealthHandler) uptime() string {
	return time.Since(h.startedAt).Truncate(time.Second).String()
}

func (h *HealthHandler) handleLive(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, healthStatus{Status: "ok", Uptime: h.uptime()})
}

// handleReady answers 503 while storage cannot be reached.
func (h *HealthHandler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		respond.Error(w, http.StatusServiceUnavailable, respond.CodeServer, "storage unavailable")
		return
	}
	respond.JSON(w, http.StatusOK, healthStatus{Status: "ok", Uptime: h.uptime(), Storage: "ok"})
}
