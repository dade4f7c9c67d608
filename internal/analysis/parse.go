package analysis

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/dkotov/pitchlab/internal/domain"
)

var errNoJSON = errors.New("no JSON object in response")

type parsedAnalysis struct {
	scores                 map[domain.Dimension]float64
	coachingFeedback       []string
	improvementSuggestions []string
	confidence             float64
}

type rawAnalysis struct {
	Scores                 map[string]float64 `json:"scores"`
	CoachingFeedback       []string           `json:"coaching_feedback"`
	ImprovementSuggestions []string           `json:"improvement_suggestions"`
	Confidence             float64            `json:"confidence"`
}

// parseAnalysisResponse extracts the first JSON object from the model's
// output. Dimensions the model omitted are filled with the neutral score;
// output with no parseable JSON object is an error the caller turns into the
// degraded fallback.
func parseAnalysisResponse(content string) (*parsedAnalysis, error) {
	jsonStr, err := extractJSONObject(content)
	if err != nil {
		return nil, err
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, err
	}

	scores := make(map[domain.Dimension]float64, len(domain.Dimensions()))
	for _, dim := range domain.Dimensions() {
		score, ok := lookupScore(raw.Scores, dim)
		if !ok {
			score = domain.NeutralScore
		}
		scores[dim] = clampScore(score)
	}

	feedback := raw.CoachingFeedback
	if len(feedback) == 0 {
		feedback = []string{"Good conversation engagement"}
	}
	suggestions := raw.ImprovementSuggestions
	if len(suggestions) == 0 {
		suggestions = []string{"Continue practicing"}
	}

	confidence := raw.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.8
	}

	return &parsedAnalysis{
		scores:                 scores,
		coachingFeedback:       feedback,
		improvementSuggestions: suggestions,
		confidence:             confidence,
	}, nil
}

// lookupScore tolerates common key variants the model produces: the exact
// snake_case name and a space-separated form.
func lookupScore(scores map[string]float64, dim domain.Dimension) (float64, bool) {
	if v, ok := scores[string(dim)]; ok {
		return v, true
	}
	if v, ok := scores[dim.Display()]; ok {
		return v, true
	}
	return 0, false
}

func clampScore(v float64) float64 {
	if v < 1.0 {
		return 1.0
	}
	if v > 5.0 {
		return 5.0
	}
	return v
}

// extractJSONObject returns the first balanced top-level JSON object in s.
// Models sometimes wrap the object in prose or code fences.
func extractJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", errNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", errNoJSON
}
