package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dkotov/pitchlab/internal/domain"
	"github.com/dkotov/pitchlab/internal/identity"
	"github.com/dkotov/pitchlab/internal/learning"
	"github.com/dkotov/pitchlab/internal/store"
	"github.com/go-chi/chi/v5"
)

// LearningHandler handles learning session endpoints.
type LearningHandler struct {
	service *learning.Service
	repo    store.Repository
}

// NewLearningHandler creates a new learning handler.
func NewLearningHandler(service *learning.Service, repo store.Repository) *LearningHandler {
	return &LearningHandler{service: service, repo: repo}
}

type startSessionRequest struct {
	ScenarioID         string   `json:"scenario_id"`
	ScenarioType       string   `json:"scenario_type"`
	ProspectPersona    string   `json:"prospect_persona"`
	DifficultyLevel    int      `json:"difficulty_level"`
	LearningObjectives []string `json:"learning_objectives"`
}

type startSessionResponse struct {
	SessionID       string `json:"session_id"`
	ScenarioType    string `json:"scenario_type"`
	ProspectPersona string `json:"prospect_persona"`
	DifficultyLevel int    `json:"difficulty_level"`
}

// StartSession creates a new learning session for the authenticated user.
// When a scenario_id is given, the catalog entry supplies the configuration
// and the request fields act as overrides.
func (h *LearningHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "user identity missing")
		return
	}

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg := domain.SessionConfig{
		ScenarioType:       req.ScenarioType,
		ProspectPersona:    req.ProspectPersona,
		DifficultyLevel:    req.DifficultyLevel,
		LearningObjectives: req.LearningObjectives,
	}

	if req.ScenarioID != "" {
		scenario, err := h.repo.GetScenario(r.Context(), req.ScenarioID)
		if err != nil {
			slog.Error("Failed to load scenario", "scenario_id", req.ScenarioID, "error", err)
			Error(w, http.StatusInternalServerError, "failed to load scenario")
			return
		}
		if scenario == nil {
			Error(w, http.StatusNotFound, "scenario not found")
			return
		}
		if cfg.ScenarioType == "" {
			cfg.ScenarioType = scenario.ScenarioType
		}
		if cfg.ProspectPersona == "" {
			cfg.ProspectPersona = scenario.ProspectPersona
		}
		if cfg.DifficultyLevel == 0 {
			cfg.DifficultyLevel = scenario.DifficultyLevel
		}
		if len(cfg.LearningObjectives) == 0 {
			cfg.LearningObjectives = scenario.Objectives
		}
	}

	sessionID, err := h.service.StartSession(userID, cfg)
	if err != nil {
		if errors.Is(err, learning.ErrInvalidConfiguration) {
			Error(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("Failed to start learning session", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	session, err := h.service.Store().Get(sessionID)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	JSON(w, http.StatusCreated, startSessionResponse{
		SessionID:       session.SessionID,
		ScenarioType:    session.ScenarioType,
		ProspectPersona: session.ProspectPersona,
		DifficultyLevel: session.DifficultyLevel,
	})
}

type processTurnRequest struct {
	UserInput           string `json:"user_input"`
	CounterpartResponse string `json:"counterpart_response"`
}

// ProcessTurn analyzes one conversation turn and returns coaching output.
func (h *LearningHandler) ProcessTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req processTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.UserInput) == "" {
		Error(w, http.StatusBadRequest, "user_input is required")
		return
	}

	result, err := h.service.ProcessTurn(r.Context(), sessionID, req.UserInput, req.CounterpartResponse)
	if err != nil {
		if errors.Is(err, learning.ErrSessionNotFound) {
			Error(w, http.StatusNotFound, "session not found")
			return
		}
		slog.Error("Failed to process turn", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to process turn")
		return
	}

	JSON(w, http.StatusOK, result)
}

// EndSession closes the session and returns the final report. Ending an
// already ended session returns 404.
func (h *LearningHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	report, err := h.service.EndSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, learning.ErrSessionNotFound) {
			Error(w, http.StatusNotFound, "session not found")
			return
		}
		slog.Error("Failed to end session", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to end session")
		return
	}

	if report.ScenarioType != "" {
		if err := h.repo.IncrementScenarioCompletion(r.Context(), report.ScenarioType); err != nil {
			slog.Warn("Failed to record scenario completion",
				"scenario_type", report.ScenarioType, "error", err)
		}
	}

	JSON(w, http.StatusOK, report)
}

// Analytics returns aggregated performance analytics for the authenticated
// user over a trailing window (default 30 days). A user with no analyzed
// sessions gets a structured no-data response rather than an error.
func (h *LearningHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "user identity missing")
		return
	}

	daysBack := 30
	if raw := r.URL.Query().Get("days_back"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "days_back must be a positive integer")
			return
		}
		daysBack = n
	}

	analytics, err := h.service.Analytics(userID, daysBack)
	if err != nil {
		if errors.Is(err, learning.ErrInsufficientData) {
			JSON(w, http.StatusOK, map[string]interface{}{
				"user_id":     userID,
				"window_days": daysBack,
				"no_data":     true,
				"message":     "no analyzed sessions in the requested window",
			})
			return
		}
		slog.Error("Failed to compute analytics", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to compute analytics")
		return
	}

	JSON(w, http.StatusOK, analytics)
}

// Reports returns the authenticated user's archived session reports, newest
// first.
func (h *LearningHandler) Reports(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "user identity missing")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	reports, err := h.repo.ListSessionReports(r.Context(), userID, limit)
	if err != nil {
		slog.Error("Failed to list session reports", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list session reports")
		return
	}
	if reports == nil {
		reports = []*learning.FinalReport{}
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// RegisterRoutes registers learning session routes.
func (h *LearningHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/learning/sessions", h.StartSession)
	r.Post("/api/learning/sessions/{sessionID}/turns", h.ProcessTurn)
	r.Post("/api/learning/sessions/{sessionID}/end", h.EndSession)
	r.Get("/api/learning/analytics", h.Analytics)
	r.Get("/api/learning/reports", h.Reports)
}
