package domain

import (
	"time"
)

// ConversationAnalysis holds the scored assessment of a single conversation
// turn. Instances are immutable once created and owned by the session that
// produced them.
type ConversationAnalysis struct {
	TurnID                 string                `json:"turn_id"`
	UserInput              string                `json:"user_input"`
	CounterpartResponse    string                `json:"counterpart_response"`
	Scores                 map[Dimension]float64 `json:"scores"`
	CoachingFeedback       []string              `json:"coaching_feedback"`
	ImprovementSuggestions []string              `json:"improvement_suggestions"`
	Confidence             float64               `json:"confidence"`
	Degraded               bool                  `json:"degraded"`
	Timestamp              time.Time             `json:"timestamp"`
}

// AverageScore returns the mean score across all dimensions for this turn.
func (a *ConversationAnalysis) AverageScore() float64 {
	if len(a.Scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range a.Scores {
		sum += s
	}
	return sum / float64(len(a.Scores))
}

// CoachingTrigger identifies why a coaching feedback item was emitted.
type CoachingTrigger string

const (
	// TriggerPerformanceThreshold marks feedback for a dimension that scored
	// below its coaching threshold this turn.
	TriggerPerformanceThreshold CoachingTrigger = "performance_threshold"
	// TriggerOpportunity marks feedback encouraging the learner to leverage a
	// high-scoring dimension.
	TriggerOpportunity CoachingTrigger = "opportunity"
)

// CoachingFeedback is a transient real-time hint surfaced to the learner
// during a turn. It lives only in the session's in-memory record.
type CoachingFeedback struct {
	FeedbackID         string          `json:"feedback_id"`
	SessionID          string          `json:"session_id"`
	TriggerType        CoachingTrigger `json:"trigger_type"`
	Message            string          `json:"message"`
	Priority           int             `json:"priority"` // 1-5, 5 most urgent
	DisplayDuration    time.Duration   `json:"display_duration_ms"`
	Hint               string          `json:"coaching_hint,omitempty"`
	ReflectiveQuestion string          `json:"reflective_question,omitempty"`
	Timestamp          time.Time       `json:"timestamp"`
}
