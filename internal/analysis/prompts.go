package analysis

import (
	"fmt"
	"strings"

	"github.com/dkotov/pitchlab/internal/domain"
)

func buildAnalysisSystemPrompt(tc TurnContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are an expert sales training coach with deep expertise in conversation analysis and skill assessment. You specialize in the %s scenario type.

Your role is to analyze sales conversations with precision and provide evidence-based feedback. You evaluate performance across multiple dimensions:

1. Discovery Questions: Quality and effectiveness of information gathering
2. Objection Handling: Acknowledgment, understanding, and response technique
3. Value Articulation: Clarity and customer-centricity of value propositions
4. Active Listening: Demonstration of listening skills and empathy
5. Conversation Control: Ability to guide conversation toward objectives
6. Empathy Building: Connection and rapport establishment
7. Business Acumen: Understanding of business contexts and challenges
8. Closing Skills: Effectiveness in advancing the sales process

Assessment Scale: Rate each dimension from 1.0 (needs significant improvement) to 5.0 (expert level).

Current Context:
- Scenario: %s
- Prospect Persona: %s
- Difficulty Level: %d/5
- Learning Objectives: %s
- Current Framework Step: %s
- Learner Baseline: %s

Provide structured, actionable feedback that helps learners improve their sales skills systematically.`,
		tc.ScenarioType,
		tc.ScenarioType,
		tc.ProspectPersona,
		tc.DifficultyLevel,
		strings.Join(tc.LearningObjectives, ", "),
		tc.CurrentStep,
		formatBaseline(tc.PerformanceBaseline),
	)
	return b.String()
}

func buildAnalysisPrompt(tc TurnContext, userInput, counterpartResponse string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Analyze this sales conversation turn and provide detailed assessment:

**USER INPUT (Salesperson):**
%s

**PROSPECT RESPONSE:**
%s

**CONVERSATION HISTORY:**
%s

**ANALYSIS REQUIREMENTS:**

1. Score every dimension on a 1.0-5.0 scale: discovery_questions, objection_handling, value_articulation, active_listening, conversation_control, empathy_building, business_acumen, closing_skills.
2. Coaching feedback: 2-3 specific observations grounded in the conversation.
3. Improvement suggestions: 2-3 actionable recommendations.
4. Confidence: overall confidence in this assessment, 0.0-1.0.

Respond with JSON only, using this structure:
{
  "scores": {"discovery_questions": 3.5, "objection_handling": 3.0, "value_articulation": 3.0, "active_listening": 3.0, "conversation_control": 3.0, "empathy_building": 3.0, "business_acumen": 3.0, "closing_skills": 3.0},
  "coaching_feedback": ["observation 1", "observation 2"],
  "improvement_suggestions": ["suggestion 1", "suggestion 2"],
  "confidence": 0.85
}`,
		userInput,
		counterpartResponse,
		formatHistory(tc.History),
	)
	return b.String()
}

// formatBaseline summarizes the learner's historical averages as a single level.
func formatBaseline(baseline map[domain.Dimension]float64) string {
	if len(baseline) == 0 {
		return "N/A (new learner)"
	}

	var sum float64
	for _, score := range baseline {
		sum += score
	}
	return fmt.Sprintf("%.1f/5.0 average across prior sessions", sum/float64(len(baseline)))
}

// formatHistory renders prior turns for the prompt, most recent last.
func formatHistory(history []HistoryEntry) string {
	if len(history) == 0 {
		return "No previous conversation history."
	}

	var lines []string
	for i, entry := range history {
		role := "Prospect"
		if entry.Role == "user" {
			role = "Salesperson"
		}
		lines = append(lines, fmt.Sprintf("%d. %s: %s", i+1, role, entry.Content))
	}
	return strings.Join(lines, "\n")
}
