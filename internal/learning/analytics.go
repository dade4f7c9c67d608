package learning

import (
	"fmt"
	"time"

	"github.com/dkotov/pitchlab/internal/domain"
)

// DimensionMetrics aggregates one skill dimension across sessions.
type DimensionMetrics struct {
	Average     float64 `json:"average"`
	Consistency float64 `json:"consistency"`
	SampleSize  int     `json:"sample_size"`
}

// UserAnalytics aggregates a user's performance over a trailing window.
type UserAnalytics struct {
	UserID            string                                `json:"user_id"`
	WindowDays        int                                   `json:"window_days"`
	TotalSessions     int                                   `json:"total_sessions"`
	TotalTurns        int                                   `json:"total_turns"`
	PracticeMinutes   float64                               `json:"total_practice_time_minutes"`
	OverallAverage    float64                               `json:"overall_average"`
	DimensionMetrics  map[domain.Dimension]DimensionMetrics `json:"dimension_metrics"`
	RecentTrend       string                                `json:"recent_performance_trend"`
	ScenariosPractice []string                              `json:"scenarios_practiced"`
	FirstSession      time.Time                             `json:"first_session"`
	LastSession       time.Time                             `json:"last_session"`
}

// recentTrendMinTurns is the minimum number of analyzed turns before a
// recent-vs-earlier comparison is meaningful.
const recentTrendMinTurns = 6

// Analytics aggregates performance across the user's sessions, active and
// archived, started within the trailing window. At least one analyzed turn
// is required; otherwise ErrInsufficientData is returned.
func (s *Service) Analytics(userID string, daysBack int) (*UserAnalytics, error) {
	if daysBack <= 0 {
		daysBack = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -daysBack)

	sessions := s.store.UserSessions(userID, since)
	var analyzed []*domain.LearningSession
	for _, sess := range sessions {
		if sess.TurnCount() > 0 {
			analyzed = append(analyzed, sess)
		}
	}
	if len(analyzed) == 0 {
		return nil, fmt.Errorf("%w: no analyzed sessions for user %s in the last %d days", ErrInsufficientData, userID, daysBack)
	}

	var allAnalyses []*domain.ConversationAnalysis
	scenarios := make(map[string]bool)
	var practiceMinutes float64
	for _, sess := range analyzed {
		allAnalyses = append(allAnalyses, sess.Analyses...)
		scenarios[sess.ScenarioType] = true
		if sess.EndTime != nil {
			practiceMinutes += sess.EndTime.Sub(sess.StartTime).Minutes()
		}
	}

	dimMetrics := make(map[domain.Dimension]DimensionMetrics, len(domain.Dimensions()))
	var dimAverages []float64
	for _, dim := range domain.Dimensions() {
		var scores []float64
		for _, a := range allAnalyses {
			if v, ok := a.Scores[dim]; ok {
				scores = append(scores, v)
			}
		}
		if len(scores) == 0 {
			continue
		}
		avg := mean(scores)
		dimMetrics[dim] = DimensionMetrics{
			Average:     avg,
			Consistency: 1.0 - stddev(scores)/5.0,
			SampleSize:  len(scores),
		}
		dimAverages = append(dimAverages, avg)
	}

	scenarioList := make([]string, 0, len(scenarios))
	for _, sess := range analyzed {
		if scenarios[sess.ScenarioType] {
			scenarioList = append(scenarioList, sess.ScenarioType)
			delete(scenarios, sess.ScenarioType)
		}
	}

	return &UserAnalytics{
		UserID:            userID,
		WindowDays:        daysBack,
		TotalSessions:     len(analyzed),
		TotalTurns:        len(allAnalyses),
		PracticeMinutes:   practiceMinutes,
		OverallAverage:    mean(dimAverages),
		DimensionMetrics:  dimMetrics,
		RecentTrend:       recentTrend(allAnalyses),
		ScenariosPractice: scenarioList,
		FirstSession:      analyzed[0].StartTime,
		LastSession:       analyzed[len(analyzed)-1].StartTime,
	}, nil
}

// recentTrend compares the last five turn averages against the first five.
func recentTrend(analyses []*domain.ConversationAnalysis) string {
	if len(analyses) < recentTrendMinTurns {
		return TrendInsufficientData
	}

	var earlier, recent []float64
	for i, a := range analyses {
		avg := a.AverageScore()
		if i < 5 {
			earlier = append(earlier, avg)
		}
		if i >= len(analyses)-5 {
			recent = append(recent, avg)
		}
	}

	improvement := mean(recent) - mean(earlier)
	switch {
	case improvement > 0.2:
		return TrendImproving
	case improvement < -0.2:
		return TrendDeclining
	default:
		return TrendStable
	}
}
