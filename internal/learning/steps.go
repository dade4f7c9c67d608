package learning

import (
	"github.com/dkotov/pitchlab/internal/domain"
)

const (
	sceneSettingMinTurns = 2
	roleplayMinTurns     = 4
	feedbackMinTurns     = 10

	// feedbackPerformanceGate is the minimum mean of per-turn average scores
	// over the performance window required to enter structured feedback.
	feedbackPerformanceGate   = 2.5
	feedbackPerformanceWindow = 5
)

// StepController advances a session through the fixed framework sequence.
// Progression is gated on turn count, and for the structured-feedback step
// also on recent performance. Steps only ever move forward.
//
// Scenario selection (step 2) is never entered during a session: the
// scenario is resolved by the session's configuration at creation time, so
// context gathering advances directly to scene setting.
type StepController struct{}

// NewStepController creates a framework step controller.
func NewStepController() *StepController {
	return &StepController{}
}

// Advance checks the progression gates and moves the session's current step
// forward when one is met. It returns true if the step changed. Steps 5 and 6
// are never auto-advanced; ending the session is the only exit from
// structured feedback. A session at interactive roleplay whose performance
// gate never passes remains there indefinitely.
func (c *StepController) Advance(session *domain.LearningSession) bool {
	turns := session.TurnCount()

	switch session.CurrentStep {
	case domain.StepContextGathering:
		if turns >= sceneSettingMinTurns {
			session.CurrentStep = domain.StepSceneSetting
			return true
		}
	case domain.StepSceneSetting:
		if turns >= roleplayMinTurns {
			session.CurrentStep = domain.StepInteractiveRoleplay
			return true
		}
	case domain.StepInteractiveRoleplay:
		if turns >= feedbackMinTurns && c.performanceGatePasses(session) {
			session.CurrentStep = domain.StepStructuredFeedback
			return true
		}
	}
	return false
}

func (c *StepController) performanceGatePasses(session *domain.LearningSession) bool {
	recent := session.RecentAnalyses(feedbackPerformanceWindow)
	if len(recent) < 3 {
		return false
	}
	turnAverages := make([]float64, 0, len(recent))
	for _, analysis := range recent {
		turnAverages = append(turnAverages, analysis.AverageScore())
	}
	return mean(turnAverages) >= feedbackPerformanceGate
}
