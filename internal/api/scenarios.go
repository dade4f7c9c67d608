package api

import (
	"log/slog"
	"net/http"

	"github.com/dkotov/pitchlab/internal/store"
	"github.com/go-chi/chi/v5"
)

// ScenarioHandler handles the practice scenario catalog endpoints.
type ScenarioHandler struct {
	repo store.Repository
}

// NewScenarioHandler creates a new scenario handler.
func NewScenarioHandler(repo store.Repository) *ScenarioHandler {
	return &ScenarioHandler{repo: repo}
}

// List returns all active scenarios in the catalog.
func (h *ScenarioHandler) List(w http.ResponseWriter, r *http.Request) {
	scenarios, err := h.repo.ListScenarios(r.Context(), true)
	if err != nil {
		slog.Error("Failed to list scenarios", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list scenarios")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"scenarios": scenarios,
		"count":     len(scenarios),
	})
}

// Get returns one scenario by id.
func (h *ScenarioHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "scenarioID")

	scenario, err := h.repo.GetScenario(r.Context(), id)
	if err != nil {
		slog.Error("Failed to load scenario", "scenario_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load scenario")
		return
	}
	if scenario == nil {
		Error(w, http.StatusNotFound, "scenario not found")
		return
	}

	JSON(w, http.StatusOK, scenario)
}

// RegisterRoutes registers scenario catalog routes.
func (h *ScenarioHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/scenarios", h.List)
	r.Get("/api/scenarios/{scenarioID}", h.Get)
}
