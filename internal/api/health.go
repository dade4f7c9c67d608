package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dkotov/pitchlab/internal/store"
	"github.com/go-chi/chi/v5"
)

const healthCheckTimeout = 5 * time.Second

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	repo            store.Repository
	analysisEnabled bool
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(repo store.Repository, analysisEnabled bool) *HealthHandler {
	return &HealthHandler{repo: repo, analysisEnabled: analysisEnabled}
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := "healthy"
	statusCode := http.StatusOK

	if err := h.repo.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		checks["database"] = "unreachable"
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if h.analysisEnabled {
		checks["analysis"] = "enabled"
	} else {
		checks["analysis"] = "disabled"
	}

	JSON(w, statusCode, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// RegisterRoutes registers the health check route.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/health", h.Health)
}
