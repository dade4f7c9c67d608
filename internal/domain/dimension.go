// Package domain contains core domain types for the PitchLab application.
package domain

// Dimension is one of the fixed skill axes scored on every conversation turn.
type Dimension string

const (
	DimensionDiscoveryQuestions  Dimension = "discovery_questions"
	DimensionObjectionHandling   Dimension = "objection_handling"
	DimensionValueArticulation   Dimension = "value_articulation"
	DimensionActiveListening     Dimension = "active_listening"
	DimensionConversationControl Dimension = "conversation_control"
	DimensionEmpathyBuilding     Dimension = "empathy_building"
	DimensionBusinessAcumen      Dimension = "business_acumen"
	DimensionClosingSkills       Dimension = "closing_skills"
)

// NeutralScore is the default score substituted when the analyzer omits a
// dimension or when analysis fails entirely.
const NeutralScore = 3.0

// allDimensions is the canonical iteration order. Coaching feedback and
// summaries must iterate dimensions in this order.
var allDimensions = []Dimension{
	DimensionDiscoveryQuestions,
	DimensionObjectionHandling,
	DimensionValueArticulation,
	DimensionActiveListening,
	DimensionConversationControl,
	DimensionEmpathyBuilding,
	DimensionBusinessAcumen,
	DimensionClosingSkills,
}

// Dimensions returns all assessment dimensions in canonical order.
// The returned slice must not be modified.
func Dimensions() []Dimension {
	return allDimensions
}

// Display returns a human-readable form of the dimension name.
func (d Dimension) Display() string {
	out := make([]byte, len(d))
	for i := 0; i < len(d); i++ {
		if d[i] == '_' {
			out[i] = ' '
		} else {
			out[i] = d[i]
		}
	}
	return string(out)
}
