package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkotov/pitchlab/internal/domain"
	"github.com/dkotov/pitchlab/internal/identity"
	"github.com/dkotov/pitchlab/internal/learning"
	"github.com/go-chi/chi/v5"
)

// fakeRepo is an in-memory store.Repository for handler tests.
type fakeRepo struct {
	users       map[string]*domain.User
	scenarios   map[string]*domain.Scenario
	reports     []*learning.FinalReport
	completions map[string]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:       make(map[string]*domain.User),
		scenarios:   make(map[string]*domain.Scenario),
		completions: make(map[string]int),
	}
}

func (f *fakeRepo) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return f.users[userID], nil
}

func (f *fakeRepo) UpsertUser(ctx context.Context, user *domain.User) error {
	f.users[user.UserID] = user
	return nil
}

func (f *fakeRepo) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	if u, ok := f.users[userID]; ok {
		u.LastSeenAt = lastSeen
	}
	return nil
}

func (f *fakeRepo) ListScenarios(ctx context.Context, activeOnly bool) ([]*domain.Scenario, error) {
	var out []*domain.Scenario
	for _, s := range f.scenarios {
		if !activeOnly || s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetScenario(ctx context.Context, id string) (*domain.Scenario, error) {
	return f.scenarios[id], nil
}

func (f *fakeRepo) UpsertScenario(ctx context.Context, scenario *domain.Scenario) error {
	f.scenarios[scenario.ID] = scenario
	return nil
}

func (f *fakeRepo) IncrementScenarioCompletion(ctx context.Context, scenarioType string) error {
	f.completions[scenarioType]++
	return nil
}

func (f *fakeRepo) SaveSessionReport(ctx context.Context, report *learning.FinalReport) error {
	f.reports = append(f.reports, report)
	return nil
}

func (f *fakeRepo) ListSessionReports(ctx context.Context, userID string, limit int) ([]*learning.FinalReport, error) {
	var out []*learning.FinalReport
	for _, r := range f.reports {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) Ping(ctx context.Context) error { return nil }
func (f *fakeRepo) Close() error                   { return nil }

func newTestRouter(t *testing.T) (*chi.Mux, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	service := learning.NewService(nil, repo, nil)
	h := NewLearningHandler(service, repo)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := identity.ContextWithUser(req.Context(), "anon_test_user", "trainee-test")
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	h.RegisterRoutes(r)
	NewScenarioHandler(repo).RegisterRoutes(r)
	return r, repo
}

func startSession(t *testing.T, r http.Handler, body string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/learning/sessions", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp.SessionID
}

func TestStartSessionHandler(t *testing.T) {
	r, _ := newTestRouter(t)

	t.Run("Defaults", func(t *testing.T) {
		sessionID := startSession(t, r, `{}`)
		if sessionID == "" {
			t.Error("Expected session id in response")
		}
	})

	t.Run("InvalidDifficulty", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/learning/sessions", strings.NewReader(`{"difficulty_level": 9}`))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("BadBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/learning/sessions", strings.NewReader(`{`))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("UnknownScenarioID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/learning/sessions", strings.NewReader(`{"scenario_id": "nope"}`))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})
}

func TestStartSessionFromCatalog(t *testing.T) {
	r, repo := newTestRouter(t)
	repo.scenarios["demo-1"] = &domain.Scenario{
		ID:              "demo-1",
		ScenarioType:    "demo",
		ProspectPersona: "technical_buyer",
		DifficultyLevel: 4,
		Active:          true,
	}

	req := httptest.NewRequest(http.MethodPost, "/api/learning/sessions", strings.NewReader(`{"scenario_id": "demo-1"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		ScenarioType    string `json:"scenario_type"`
		DifficultyLevel int    `json:"difficulty_level"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.ScenarioType != "demo" || resp.DifficultyLevel != 4 {
		t.Errorf("Expected catalog config applied, got %+v", resp)
	}
}

func TestProcessTurnHandler(t *testing.T) {
	r, _ := newTestRouter(t)
	sessionID := startSession(t, r, `{}`)

	t.Run("OK", func(t *testing.T) {
		body := `{"user_input": "What challenges are you facing?", "counterpart_response": "Mostly costs."}`
		req := httptest.NewRequest(http.MethodPost, "/api/learning/sessions/"+sessionID+"/turns", strings.NewReader(body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var result learning.TurnResult
		if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
			t.Fatalf("Failed to decode turn result: %v", err)
		}
		if result.Analysis == nil || !result.Analysis.Degraded {
			t.Error("Expected degraded analysis without an analyzer")
		}
		if result.SessionMetrics.TurnCount != 1 {
			t.Errorf("Expected turn count 1, got %d", result.SessionMetrics.TurnCount)
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/learning/sessions/"+sessionID+"/turns", strings.NewReader(`{"user_input": "  "}`))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("UnknownSession", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/learning/sessions/missing/turns", strings.NewReader(`{"user_input": "hello"}`))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})
}

func TestEndSessionHandler(t *testing.T) {
	r, repo := newTestRouter(t)
	sessionID := startSession(t, r, `{"scenario_type": "demo"}`)

	req := httptest.NewRequest(http.MethodPost, "/api/learning/sessions/"+sessionID+"/end", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var report learning.FinalReport
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if report.SessionID != sessionID {
		t.Errorf("Expected report for %s, got %s", sessionID, report.SessionID)
	}
	if repo.completions["demo"] != 1 {
		t.Errorf("Expected scenario completion recorded, got %d", repo.completions["demo"])
	}
	if len(repo.reports) != 1 {
		t.Errorf("Expected archived report, got %d", len(repo.reports))
	}

	// Second end is a 404.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/learning/sessions/"+sessionID+"/end", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second end, got %d", w.Code)
	}
}

func TestAnalyticsHandler(t *testing.T) {
	r, _ := newTestRouter(t)

	t.Run("NoData", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/learning/analytics", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200 no-data response, got %d", w.Code)
		}
		var resp map[string]interface{}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp["no_data"] != true {
			t.Errorf("Expected no_data flag, got %v", resp)
		}
	})

	t.Run("BadDaysBack", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/learning/analytics?days_back=zero", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("WithData", func(t *testing.T) {
		sessionID := startSession(t, r, `{}`)
		body := `{"user_input": "Tell me about your workflow?"}`
		turnReq := httptest.NewRequest(http.MethodPost, "/api/learning/sessions/"+sessionID+"/turns", strings.NewReader(body))
		turnW := httptest.NewRecorder()
		r.ServeHTTP(turnW, turnReq)
		if turnW.Code != http.StatusOK {
			t.Fatalf("Turn failed: %d", turnW.Code)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/learning/analytics", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		var analytics learning.UserAnalytics
		if err := json.NewDecoder(w.Body).Decode(&analytics); err != nil {
			t.Fatalf("Failed to decode analytics: %v", err)
		}
		if analytics.TotalTurns != 1 {
			t.Errorf("Expected 1 turn, got %d", analytics.TotalTurns)
		}
	})
}

func TestScenarioHandlers(t *testing.T) {
	r, repo := newTestRouter(t)
	repo.scenarios["s1"] = &domain.Scenario{ID: "s1", Title: "Cold Call", ScenarioType: "cold_call", Active: true}

	t.Run("List", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/scenarios", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		var resp struct {
			Count int `json:"count"`
		}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.Count != 1 {
			t.Errorf("Expected 1 scenario, got %d", resp.Count)
		}
	})

	t.Run("Get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/scenarios/s1", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", w.Code)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/scenarios/missing", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})
}
