// Package analysis implements the external conversation analyzer: the LLM
// client that scores each conversation turn across the assessment dimensions
// and produces coaching observations.
package analysis

import (
	"context"

	"github.com/dkotov/pitchlab/internal/domain"
)

// HistoryEntry is one utterance of prior conversation supplied to the
// analyzer as context.
type HistoryEntry struct {
	Role    string `json:"role"` // "user" (salesperson) or "assistant" (prospect)
	Content string `json:"content"`
}

// TurnContext is the session snapshot handed to the analyzer alongside the
// turn being scored. History is bounded to the last few turns, most recent
// last.
type TurnContext struct {
	SessionID           string
	ScenarioType        string
	ProspectPersona     string
	DifficultyLevel     int
	LearningObjectives  []string
	CurrentStep         domain.FrameworkStep
	History             []HistoryEntry
	PerformanceBaseline map[domain.Dimension]float64
	TurnNumber          int
}

// Analyzer scores a single conversation turn. Implementations must populate
// all eight dimensions, filling any the upstream model omitted with the
// neutral default.
//
// This interface is implemented by the Anthropic client.
type Analyzer interface {
	// AnalyzeTurn analyzes one (salesperson, prospect) utterance pair.
	AnalyzeTurn(ctx context.Context, tc TurnContext, userInput, counterpartResponse string) (*domain.ConversationAnalysis, error)
}
