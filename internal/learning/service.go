package learning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dkotov/pitchlab/internal/analysis"
	"github.com/dkotov/pitchlab/internal/domain"
)

// historyWindow is the number of prior turns supplied to the analyzer as
// conversation context.
const historyWindow = 5

// ReportArchiver persists final session reports. The learning core treats it
// as optional: a nil archiver means reports live only in process memory.
type ReportArchiver interface {
	SaveSessionReport(ctx context.Context, report *FinalReport) error
}

// TurnResult is the composite outcome of processing one conversation turn.
type TurnResult struct {
	Analysis           *domain.ConversationAnalysis            `json:"analysis"`
	CoachingFeedback   []*domain.CoachingFeedback              `json:"coaching_feedback"`
	CurrentStep        domain.FrameworkStep                    `json:"current_step"`
	SkillProgression   map[domain.Dimension]DimensionSummary   `json:"skill_progression"`
	AdaptiveParameters domain.AdaptiveParameters               `json:"adaptive_parameters"`
	SessionMetrics     domain.SessionMetrics                   `json:"session_metrics"`
}

// FinalReport summarizes an ended session.
type FinalReport struct {
	SessionID           string                                `json:"session_id"`
	UserID              string                                `json:"user_id"`
	ScenarioType        string                                `json:"scenario_type"`
	StartTime           time.Time                             `json:"start_time"`
	EndTime             time.Time                             `json:"end_time"`
	DurationMinutes     float64                               `json:"session_duration_minutes"`
	TurnCount           int                                   `json:"total_turns"`
	FinalStep           domain.FrameworkStep                  `json:"final_step"`
	AveragePerformance  float64                               `json:"final_performance_score"`
	SkillProgression    map[domain.Dimension]DimensionSummary `json:"skill_progression"`
	Metrics             domain.SessionMetrics                 `json:"session_metrics"`
	DegradedTurnCount   int                                   `json:"degraded_turn_count,omitempty"`
}

// Service is the façade over the learning analytics core. It orchestrates
// the full turn pipeline: analyzer call, progression recording, coaching
// generation, adaptive updates, step progression and metric recomputation.
type Service struct {
	store    *SessionStore
	tracker  *ProgressionTracker
	coach    *CoachingGenerator
	adaptive *AdaptiveEngine
	steps    *StepController
	analyzer analysis.Analyzer
	archiver ReportArchiver
	logger   *slog.Logger
}

// NewService creates the learning intelligence service. The analyzer may be
// nil, in which case every turn is scored with the degraded default and the
// session machinery keeps working without the upstream model. The archiver
// may be nil.
func NewService(analyzer analysis.Analyzer, archiver ReportArchiver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    NewSessionStore(),
		tracker:  NewProgressionTracker(),
		coach:    NewCoachingGenerator(),
		adaptive: NewAdaptiveEngine(),
		steps:    NewStepController(),
		analyzer: analyzer,
		archiver: archiver,
		logger:   logger,
	}
}

// Store exposes the session store for handlers that need direct lookups.
func (s *Service) Store() *SessionStore { return s.store }

// StartSession validates the configuration and creates a new learning
// session, seeding its adaptive parameters from the user's performance
// baseline.
func (s *Service) StartSession(userID string, cfg domain.SessionConfig) (string, error) {
	session, err := s.store.Start(userID, cfg, s.tracker.Baseline(userID))
	if err != nil {
		return "", err
	}
	s.logger.Info("learning session started",
		"session_id", session.SessionID, "user_id", userID,
		"scenario", session.ScenarioType, "difficulty", session.DifficultyLevel)
	return session.SessionID, nil
}

// ProcessTurn runs the full pipeline for one conversation turn. An unknown
// session id fails with ErrSessionNotFound. Analyzer failures do not fail
// the turn: a neutral default analysis is substituted and flagged as
// degraded so the practice session continues uninterrupted.
//
// The per-session mutex is held for the whole turn, including the analyzer
// call, making each session a single-writer domain: concurrent turns for the
// same session serialize, turns for different sessions do not.
func (s *Service) ProcessTurn(ctx context.Context, sessionID, userInput, counterpartResponse string) (*TurnResult, error) {
	session, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	session.Lock()
	defer session.Unlock()

	turnNumber := session.TurnCount()
	result := s.analyze(ctx, session, turnNumber, userInput, counterpartResponse)

	session.Analyses = append(session.Analyses, result)
	s.tracker.Record(session, result)

	feedback := s.coach.Generate(session, result)
	session.CoachingInteractions = append(session.CoachingInteractions, feedback...)

	s.adaptive.Update(session)

	if s.steps.Advance(session) {
		s.logger.Info("framework step advanced",
			"session_id", sessionID, "step", session.CurrentStep, "turn", session.TurnCount())
	}

	computeMetrics(session)

	if feedback == nil {
		feedback = []*domain.CoachingFeedback{}
	}
	return &TurnResult{
		Analysis:           result,
		CoachingFeedback:   feedback,
		CurrentStep:        session.CurrentStep,
		SkillProgression:   s.tracker.Summarize(session),
		AdaptiveParameters: session.AdaptiveParameters,
		SessionMetrics:     session.Metrics,
	}, nil
}

// analyze calls the external analyzer, substituting the neutral default
// analysis when the analyzer is unavailable or fails after retries.
func (s *Service) analyze(ctx context.Context, session *domain.LearningSession, turnNumber int, userInput, counterpartResponse string) *domain.ConversationAnalysis {
	if s.analyzer != nil {
		result, err := s.analyzer.AnalyzeTurn(ctx, s.turnContext(session, turnNumber), userInput, counterpartResponse)
		if err == nil {
			return result
		}
		s.logger.Warn("conversation analysis failed, using degraded default",
			"session_id", session.SessionID, "turn", turnNumber,
			"error", fmt.Errorf("%w: %v", ErrUpstreamAnalysis, err))
	}
	return defaultAnalysis(session.SessionID, turnNumber, userInput, counterpartResponse)
}

// turnContext snapshots the session state the analyzer needs: bounded
// conversation history (most recent last) and the performance baseline.
func (s *Service) turnContext(session *domain.LearningSession, turnNumber int) analysis.TurnContext {
	recent := session.RecentAnalyses(historyWindow)
	history := make([]analysis.HistoryEntry, 0, len(recent)*2)
	for _, a := range recent {
		history = append(history,
			analysis.HistoryEntry{Role: "user", Content: a.UserInput},
			analysis.HistoryEntry{Role: "assistant", Content: a.CounterpartResponse},
		)
	}
	return analysis.TurnContext{
		SessionID:           session.SessionID,
		ScenarioType:        session.ScenarioType,
		ProspectPersona:     session.ProspectPersona,
		DifficultyLevel:     session.DifficultyLevel,
		LearningObjectives:  session.LearningObjectives,
		CurrentStep:         session.CurrentStep,
		History:             history,
		PerformanceBaseline: session.AdaptiveParameters.PerformanceBaseline,
		TurnNumber:          turnNumber,
	}
}

// defaultAnalysis is the neutral fallback substituted when upstream analysis
// fails: every dimension at the neutral score, flagged Degraded so reporting
// can distinguish real scores from fabricated ones.
func defaultAnalysis(sessionID string, turnNumber int, userInput, counterpartResponse string) *domain.ConversationAnalysis {
	scores := make(map[domain.Dimension]float64, len(domain.Dimensions()))
	for _, dim := range domain.Dimensions() {
		scores[dim] = domain.NeutralScore
	}
	return &domain.ConversationAnalysis{
		TurnID:                 fmt.Sprintf("%s_%d", sessionID, turnNumber),
		UserInput:              userInput,
		CounterpartResponse:    counterpartResponse,
		Scores:                 scores,
		CoachingFeedback:       []string{"Unable to analyze this conversation turn, but keep practicing!"},
		ImprovementSuggestions: []string{"Continue engaging in the conversation"},
		Confidence:             0.5,
		Degraded:               true,
		Timestamp:              time.Now().UTC(),
	}
}

// EndSession closes the session, archives it and returns the final report.
// A repeated call for the same id fails with ErrSessionNotFound.
func (s *Service) EndSession(ctx context.Context, sessionID string) (*FinalReport, error) {
	session, err := s.store.End(sessionID)
	if err != nil {
		return nil, err
	}

	session.Lock()
	defer session.Unlock()

	degraded := 0
	for _, a := range session.Analyses {
		if a.Degraded {
			degraded++
		}
	}

	report := &FinalReport{
		SessionID:          session.SessionID,
		UserID:             session.UserID,
		ScenarioType:       session.ScenarioType,
		StartTime:          session.StartTime,
		EndTime:            *session.EndTime,
		DurationMinutes:    session.EndTime.Sub(session.StartTime).Minutes(),
		TurnCount:          session.TurnCount(),
		FinalStep:          session.CurrentStep,
		AveragePerformance: session.Metrics.AveragePerformance,
		SkillProgression:   s.tracker.Summarize(session),
		Metrics:            session.Metrics,
		DegradedTurnCount:  degraded,
	}

	if s.archiver != nil {
		if err := s.archiver.SaveSessionReport(ctx, report); err != nil {
			s.logger.Error("failed to archive session report",
				"session_id", sessionID, "error", err)
		}
	}

	s.logger.Info("learning session ended",
		"session_id", sessionID, "duration_minutes", report.DurationMinutes,
		"turns", report.TurnCount, "final_step", report.FinalStep)
	return report, nil
}
