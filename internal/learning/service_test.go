package learning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkotov/pitchlab/internal/analysis"
	"github.com/dkotov/pitchlab/internal/domain"
)

// stubAnalyzer returns canned scores, or fails when err is set.
type stubAnalyzer struct {
	scores map[domain.Dimension]float64
	err    error
	calls  int
}

func (s *stubAnalyzer) AnalyzeTurn(ctx context.Context, tc analysis.TurnContext, userInput, counterpartResponse string) (*domain.ConversationAnalysis, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ConversationAnalysis{
		TurnID:              tc.SessionID,
		UserInput:           userInput,
		CounterpartResponse: counterpartResponse,
		Scores:              s.scores,
		Confidence:          0.9,
		Timestamp:           time.Now().UTC(),
	}, nil
}

// memArchiver records archived reports in memory.
type memArchiver struct {
	reports []*FinalReport
	err     error
}

func (m *memArchiver) SaveSessionReport(ctx context.Context, report *FinalReport) error {
	if m.err != nil {
		return m.err
	}
	m.reports = append(m.reports, report)
	return nil
}

func TestProcessTurnPipeline(t *testing.T) {
	analyzer := &stubAnalyzer{scores: fullScores(2.2)}
	svc := NewService(analyzer, nil, nil)

	sessionID, err := svc.StartSession("user1", domain.SessionConfig{DifficultyLevel: 3})
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	result, err := svc.ProcessTurn(context.Background(), sessionID, "Tell me about your current setup?", "We use spreadsheets.")
	if err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}

	if analyzer.calls != 1 {
		t.Errorf("Expected 1 analyzer call, got %d", analyzer.calls)
	}
	if result.Analysis.Degraded {
		t.Error("Expected non-degraded analysis")
	}
	if result.CurrentStep != domain.StepContextGathering {
		t.Errorf("Expected context_gathering after 1 turn, got %s", result.CurrentStep)
	}
	if result.SessionMetrics.TurnCount != 1 {
		t.Errorf("Expected turn count 1, got %d", result.SessionMetrics.TurnCount)
	}
	// 2.2 is below the discovery (2.5), value (2.5), conversation control
	// (3.0), business acumen (3.0) and closing (3.5) thresholds.
	if len(result.CoachingFeedback) != 5 {
		t.Errorf("Expected 5 coaching items for uniform 2.2 scores, got %d", len(result.CoachingFeedback))
	}
	if len(result.SkillProgression) != len(domain.Dimensions()) {
		t.Errorf("Expected progression for all dimensions, got %d", len(result.SkillProgression))
	}
	if result.AdaptiveParameters.CoachingSensitivity != domain.SensitivityHigh {
		t.Errorf("Expected high sensitivity at 2.2 average, got %s", result.AdaptiveParameters.CoachingSensitivity)
	}
}

func TestProcessTurnUnknownSession(t *testing.T) {
	svc := NewService(&stubAnalyzer{scores: fullScores(3.0)}, nil, nil)
	_, err := svc.ProcessTurn(context.Background(), "missing", "hello", "hi")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestProcessTurnDegradedFallback(t *testing.T) {
	t.Run("AnalyzerError", func(t *testing.T) {
		svc := NewService(&stubAnalyzer{err: errors.New("upstream down")}, nil, nil)
		sessionID, _ := svc.StartSession("user1", domain.SessionConfig{})

		result, err := svc.ProcessTurn(context.Background(), sessionID, "hello there prospect", "hi")
		if err != nil {
			t.Fatalf("Expected turn to succeed despite analyzer failure, got %v", err)
		}
		if !result.Analysis.Degraded {
			t.Error("Expected degraded analysis")
		}
		if result.Analysis.Confidence != 0.5 {
			t.Errorf("Expected confidence 0.5, got %v", result.Analysis.Confidence)
		}
		for dim, score := range result.Analysis.Scores {
			if score != domain.NeutralScore {
				t.Errorf("Expected neutral score for %s, got %v", dim, score)
			}
		}
	})

	t.Run("NilAnalyzer", func(t *testing.T) {
		svc := NewService(nil, nil, nil)
		sessionID, _ := svc.StartSession("user1", domain.SessionConfig{})

		result, err := svc.ProcessTurn(context.Background(), sessionID, "hello", "hi")
		if err != nil {
			t.Fatalf("ProcessTurn failed: %v", err)
		}
		if !result.Analysis.Degraded {
			t.Error("Expected degraded analysis with nil analyzer")
		}
	})
}

func TestEndSession(t *testing.T) {
	archiver := &memArchiver{}
	svc := NewService(&stubAnalyzer{scores: fullScores(3.5)}, archiver, nil)

	sessionID, _ := svc.StartSession("user1", domain.SessionConfig{ScenarioType: "demo"})
	for i := 0; i < 3; i++ {
		if _, err := svc.ProcessTurn(context.Background(), sessionID, "input", "response"); err != nil {
			t.Fatalf("ProcessTurn failed: %v", err)
		}
	}

	report, err := svc.EndSession(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	if report.TurnCount != 3 {
		t.Errorf("Expected 3 turns in report, got %d", report.TurnCount)
	}
	if report.ScenarioType != "demo" {
		t.Errorf("Expected scenario demo, got %s", report.ScenarioType)
	}
	if !almostEqual(report.AveragePerformance, 3.5) {
		t.Errorf("Expected average 3.5, got %v", report.AveragePerformance)
	}
	if report.DegradedTurnCount != 0 {
		t.Errorf("Expected no degraded turns, got %d", report.DegradedTurnCount)
	}

	if len(archiver.reports) != 1 {
		t.Fatalf("Expected 1 archived report, got %d", len(archiver.reports))
	}
	if archiver.reports[0].SessionID != sessionID {
		t.Errorf("Expected archived report for %s, got %s", sessionID, archiver.reports[0].SessionID)
	}

	if _, err := svc.EndSession(context.Background(), sessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second end, got %v", err)
	}
	if _, err := svc.ProcessTurn(context.Background(), sessionID, "more", "talk"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound processing after end, got %v", err)
	}
}

func TestEndSessionArchiverFailureDoesNotFail(t *testing.T) {
	archiver := &memArchiver{err: errors.New("disk full")}
	svc := NewService(nil, archiver, nil)

	sessionID, _ := svc.StartSession("user1", domain.SessionConfig{})
	if _, err := svc.EndSession(context.Background(), sessionID); err != nil {
		t.Errorf("Expected end to succeed despite archiver failure, got %v", err)
	}
}

func TestBaselineCarriesAcrossSessions(t *testing.T) {
	svc := NewService(&stubAnalyzer{scores: fullScores(4.0)}, nil, nil)

	first, _ := svc.StartSession("user1", domain.SessionConfig{})
	if _, err := svc.ProcessTurn(context.Background(), first, "input", "response"); err != nil {
		t.Fatalf("ProcessTurn failed: %v", err)
	}
	if _, err := svc.EndSession(context.Background(), first); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}

	secondID, _ := svc.StartSession("user1", domain.SessionConfig{})
	second, err := svc.Store().Get(secondID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	baseline := second.AdaptiveParameters.PerformanceBaseline
	if baseline[domain.DimensionDiscoveryQuestions] != 4.0 {
		t.Errorf("Expected baseline 4.0 from prior session, got %v", baseline[domain.DimensionDiscoveryQuestions])
	}
}

func TestAnalytics(t *testing.T) {
	svc := NewService(&stubAnalyzer{scores: fullScores(3.0)}, nil, nil)

	t.Run("NoData", func(t *testing.T) {
		if _, err := svc.Analytics("nobody", 30); !errors.Is(err, ErrInsufficientData) {
			t.Errorf("Expected ErrInsufficientData, got %v", err)
		}
	})

	t.Run("Aggregates", func(t *testing.T) {
		sessionID, _ := svc.StartSession("user1", domain.SessionConfig{})
		for i := 0; i < 2; i++ {
			if _, err := svc.ProcessTurn(context.Background(), sessionID, "input", "response"); err != nil {
				t.Fatalf("ProcessTurn failed: %v", err)
			}
		}
		if _, err := svc.EndSession(context.Background(), sessionID); err != nil {
			t.Fatalf("EndSession failed: %v", err)
		}

		got, err := svc.Analytics("user1", 30)
		if err != nil {
			t.Fatalf("Analytics failed: %v", err)
		}
		if got.TotalSessions != 1 {
			t.Errorf("Expected 1 session, got %d", got.TotalSessions)
		}
		if got.TotalTurns != 2 {
			t.Errorf("Expected 2 turns, got %d", got.TotalTurns)
		}
		if !almostEqual(got.OverallAverage, 3.0) {
			t.Errorf("Expected overall average 3.0, got %v", got.OverallAverage)
		}
		if got.RecentTrend != TrendInsufficientData {
			t.Errorf("Expected insufficient_data trend for 2 turns, got %s", got.RecentTrend)
		}
		if len(got.ScenariosPractice) != 1 || got.ScenariosPractice[0] != "cold_call" {
			t.Errorf("Expected practiced scenario cold_call, got %v", got.ScenariosPractice)
		}
	})
}
