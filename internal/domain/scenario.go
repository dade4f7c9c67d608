package domain

import (
	"time"
)

// Scenario is a training scenario from the practice catalog.
type Scenario struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ScenarioType    string    `json:"scenario_type"` // e.g. "cold_call", "demo"
	ProspectPersona string    `json:"prospect_persona"`
	DifficultyLevel int       `json:"difficulty_level"` // 1-5
	DurationHint    string    `json:"duration"`         // e.g. "5-8 minutes"
	Objectives      []string  `json:"objectives"`
	Tags            []string  `json:"tags"`
	CompletionCount int       `json:"completion_count"`
	Active          bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
