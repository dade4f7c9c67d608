package learning

import (
	"fmt"
	"math"
	"time"

	"github.com/dkotov/pitchlab/internal/domain"
)

const (
	thresholdDisplayDuration   = 8 * time.Second
	opportunityDisplayDuration = 5 * time.Second

	// opportunityMinTurns is the number of turns a session must exceed before
	// opportunity feedback can be emitted.
	opportunityMinTurns = 3
	opportunityScore    = 4.0
)

// coachingThresholds maps each dimension to the score below which a
// real-time hint fires. Closing, conversation control and business acumen
// demand higher scores before a hint triggers: they are harder to get fully
// right than the rapport-oriented dimensions.
var coachingThresholds = map[domain.Dimension]float64{
	domain.DimensionDiscoveryQuestions:  2.5,
	domain.DimensionObjectionHandling:   2.0,
	domain.DimensionValueArticulation:   2.5,
	domain.DimensionActiveListening:     2.0,
	domain.DimensionConversationControl: 3.0,
	domain.DimensionEmpathyBuilding:     2.0,
	domain.DimensionBusinessAcumen:      3.0,
	domain.DimensionClosingSkills:       3.5,
}

var coachingMessages = map[domain.Dimension]string{
	domain.DimensionDiscoveryQuestions:  "Try asking more open-ended questions to uncover needs",
	domain.DimensionObjectionHandling:   "Remember: acknowledge, understand, then respond to objections",
	domain.DimensionValueArticulation:   "Focus on specific benefits that matter to this prospect",
	domain.DimensionActiveListening:     "Show you're listening by reflecting back what you heard",
	domain.DimensionConversationControl: "Guide the conversation toward your objectives",
	domain.DimensionEmpathyBuilding:     "Connect with the prospect's challenges and feelings",
	domain.DimensionBusinessAcumen:      "Demonstrate understanding of their business context",
	domain.DimensionClosingSkills:       "Look for opportunities to advance the conversation",
}

var coachingHints = map[domain.Dimension]string{
	domain.DimensionDiscoveryQuestions:  "Use 'What', 'How', 'Why' questions",
	domain.DimensionObjectionHandling:   "Feel, Felt, Found technique",
	domain.DimensionValueArticulation:   "Quantify benefits where possible",
	domain.DimensionActiveListening:     "Paraphrase and confirm understanding",
	domain.DimensionConversationControl: "Use transition phrases to redirect",
	domain.DimensionEmpathyBuilding:     "Acknowledge their perspective",
	domain.DimensionBusinessAcumen:      "Reference industry trends or challenges",
	domain.DimensionClosingSkills:       "Suggest concrete next steps",
}

var reflectiveQuestions = map[domain.Dimension]string{
	domain.DimensionDiscoveryQuestions:  "What information do you still need to understand their situation?",
	domain.DimensionObjectionHandling:   "What might be the real concern behind this objection?",
	domain.DimensionValueArticulation:   "How does this benefit solve their specific problem?",
	domain.DimensionActiveListening:     "What emotions or concerns did you hear in their response?",
	domain.DimensionConversationControl: "Where do you want to guide this conversation next?",
	domain.DimensionEmpathyBuilding:     "How might they be feeling about their current situation?",
	domain.DimensionBusinessAcumen:      "What business pressures might be driving their decision?",
	domain.DimensionClosingSkills:       "What would be a logical next step to propose?",
}

// CoachingGenerator emits real-time coaching feedback from per-turn analysis
// scores.
type CoachingGenerator struct{}

// NewCoachingGenerator creates a coaching feedback generator.
func NewCoachingGenerator() *CoachingGenerator {
	return &CoachingGenerator{}
}

// Generate returns the coaching feedback for one analyzed turn: one item per
// dimension that scored strictly below its threshold, in canonical dimension
// order, followed by at most one opportunity item once the session has more
// than three turns. TurnCount must already include the turn being analyzed.
func (g *CoachingGenerator) Generate(session *domain.LearningSession, analysis *domain.ConversationAnalysis) []*domain.CoachingFeedback {
	now := time.Now().UTC()
	turn := session.TurnCount()

	var feedback []*domain.CoachingFeedback
	for _, dim := range domain.Dimensions() {
		score, ok := analysis.Scores[dim]
		if !ok {
			score = domain.NeutralScore
		}
		if score >= coachingThresholds[dim] {
			continue
		}
		feedback = append(feedback, &domain.CoachingFeedback{
			FeedbackID:         fmt.Sprintf("rt_%s_%d_%s", session.SessionID, turn, dim),
			SessionID:          session.SessionID,
			TriggerType:        domain.TriggerPerformanceThreshold,
			Message:            fmt.Sprintf("%s (Score: %.1f)", coachingMessages[dim], score),
			Priority:           thresholdPriority(score),
			DisplayDuration:    thresholdDisplayDuration,
			Hint:               coachingHints[dim],
			ReflectiveQuestion: reflectiveQuestions[dim],
			Timestamp:          now,
		})
	}

	if turn > opportunityMinTurns {
		for _, dim := range domain.Dimensions() {
			if analysis.Scores[dim] < opportunityScore {
				continue
			}
			feedback = append(feedback, &domain.CoachingFeedback{
				FeedbackID:         fmt.Sprintf("opp_%s_%d", session.SessionID, turn),
				SessionID:          session.SessionID,
				TriggerType:        domain.TriggerOpportunity,
				Message:            fmt.Sprintf("Great %s! Can you leverage this strength to address other areas?", dim.Display()),
				Priority:           2,
				DisplayDuration:    opportunityDisplayDuration,
				Hint:               fmt.Sprintf("Use your strong %s to enhance the conversation flow", dim.Display()),
				ReflectiveQuestion: "How might you use this strength to overcome the current challenge?",
				Timestamp:          now,
			})
			break
		}
	}

	return feedback
}

// thresholdPriority maps a sub-threshold score to urgency: lower scores get
// strictly higher priority, clamped to the 1-5 range.
func thresholdPriority(score float64) int {
	p := 5 - int(math.Floor(score))
	if p > 5 {
		p = 5
	}
	if p < 1 {
		p = 1
	}
	return p
}
