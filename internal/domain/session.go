package domain

import (
	"sync"
	"time"
)

// CoachingSensitivity controls how aggressively real-time coaching is
// surfaced to the learner.
type CoachingSensitivity string

const (
	SensitivityHigh   CoachingSensitivity = "high"
	SensitivityMedium CoachingSensitivity = "medium"
	SensitivityLow    CoachingSensitivity = "low"
)

// AdaptiveParameters are advisory signals derived from recent performance.
// They never change the session's configured difficulty by themselves; a
// caller decides whether to act on the suggestions.
type AdaptiveParameters struct {
	CurrentAvgPerformance     float64               `json:"current_avg_performance"`
	SuggestDifficultyIncrease bool                  `json:"suggested_difficulty_increase,omitempty"`
	SuggestDifficultyDecrease bool                  `json:"suggested_difficulty_decrease,omitempty"`
	CoachingSensitivity       CoachingSensitivity   `json:"coaching_sensitivity"`
	PerformanceBaseline       map[Dimension]float64 `json:"performance_baseline,omitempty"`
}

// SessionMetrics are recomputed in full after every processed turn.
type SessionMetrics struct {
	AveragePerformance       float64               `json:"average_performance"`
	PerformanceStdDev        float64               `json:"performance_std"`
	TurnCount                int                   `json:"turn_count"`
	CoachingInteractionCount int                   `json:"coaching_interactions"`
	DimensionAverages        map[Dimension]float64 `json:"skill_dimension_scores"`
	ProgressTrend            string                `json:"progress_trend"`
	EngagementScore          float64               `json:"engagement_score"`
}

// SessionConfig is the immutable configuration a learning session is
// created with.
type SessionConfig struct {
	ScenarioType       string   `json:"scenario_type"`
	ProspectPersona    string   `json:"prospect_persona"`
	DifficultyLevel    int      `json:"difficulty_level"` // 1-5
	LearningObjectives []string `json:"learning_objectives"`
}

// LearningSession is the central mutable entity of the analytics core. All
// turn-processing mutations must happen while holding the session lock; the
// single-writer invariant is explicit rather than an accident of scheduling.
type LearningSession struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`

	// Immutable after creation.
	ScenarioType       string   `json:"scenario_type"`
	ProspectPersona    string   `json:"prospect_persona"`
	DifficultyLevel    int      `json:"difficulty_level"`
	LearningObjectives []string `json:"learning_objectives"`

	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	CurrentStep          FrameworkStep           `json:"current_step"`
	Analyses             []*ConversationAnalysis `json:"conversation_analyses"`
	SkillProgression     map[Dimension][]float64 `json:"skill_progression"`
	CoachingInteractions []*CoachingFeedback     `json:"coaching_interactions"`
	AdaptiveParameters   AdaptiveParameters      `json:"adaptive_parameters"`
	Metrics              SessionMetrics          `json:"session_metrics"`

	mu sync.Mutex
}

// Lock acquires the per-session mutex serializing turn processing.
func (s *LearningSession) Lock() { s.mu.Lock() }

// Unlock releases the per-session mutex.
func (s *LearningSession) Unlock() { s.mu.Unlock() }

// TurnCount returns the number of turns processed so far.
func (s *LearningSession) TurnCount() int {
	return len(s.Analyses)
}

// RecentAnalyses returns the last n analyses, oldest first.
func (s *LearningSession) RecentAnalyses(n int) []*ConversationAnalysis {
	if n >= len(s.Analyses) {
		return s.Analyses
	}
	return s.Analyses[len(s.Analyses)-n:]
}

// Ended reports whether the session has been closed.
func (s *LearningSession) Ended() bool {
	return s.EndTime != nil
}
