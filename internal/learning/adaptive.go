package learning

import (
	"github.com/dkotov/pitchlab/internal/domain"
)

// adaptiveWindow is the number of most recent turns considered when deriving
// adaptive signals.
const adaptiveWindow = 3

// AdaptiveEngine derives advisory difficulty and coaching-intensity signals
// from recent performance. It never mutates the session's configured
// difficulty level.
type AdaptiveEngine struct{}

// NewAdaptiveEngine creates an adaptive parameter engine.
func NewAdaptiveEngine() *AdaptiveEngine {
	return &AdaptiveEngine{}
}

// Update recomputes the session's adaptive parameters from the mean of all
// dimension scores across the last three turns (fewer if the session is
// younger). The difficulty suggestions are mutually exclusive by their
// threshold ranges; at most one can be set per update.
func (e *AdaptiveEngine) Update(session *domain.LearningSession) {
	recent := session.RecentAnalyses(adaptiveWindow)
	if len(recent) == 0 {
		return
	}

	var scores []float64
	for _, analysis := range recent {
		for _, dim := range domain.Dimensions() {
			if s, ok := analysis.Scores[dim]; ok {
				scores = append(scores, s)
			}
		}
	}
	if len(scores) == 0 {
		return
	}

	avg := mean(scores)
	params := &session.AdaptiveParameters
	params.CurrentAvgPerformance = avg

	params.SuggestDifficultyIncrease = avg > 4.0 && session.DifficultyLevel < maxDifficulty
	params.SuggestDifficultyDecrease = avg < 2.0 && session.DifficultyLevel > minDifficulty

	switch {
	case avg < 2.5:
		params.CoachingSensitivity = domain.SensitivityHigh
	case avg > 3.5:
		params.CoachingSensitivity = domain.SensitivityLow
	default:
		params.CoachingSensitivity = domain.SensitivityMedium
	}
}
