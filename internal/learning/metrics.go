package learning

import (
	"strings"

	"github.com/dkotov/pitchlab/internal/domain"
)

// Progress trend labels reported in session metrics.
const (
	TrendImproving        = "improving"
	TrendDeclining        = "declining"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient_data"
)

// trendBand is the minimum half-over-half improvement (or decline) that
// moves the trend off "stable".
const trendBand = 0.3

// computeMetrics recomputes the session's metrics from scratch. Metrics are
// replaced, never appended.
func computeMetrics(session *domain.LearningSession) {
	if session.TurnCount() == 0 {
		return
	}

	dimensionAverages := make(map[domain.Dimension]float64)
	var dimensionMeans []float64
	for _, dim := range domain.Dimensions() {
		scores := session.SkillProgression[dim]
		if len(scores) == 0 {
			continue
		}
		m := mean(scores)
		dimensionAverages[dim] = m
		dimensionMeans = append(dimensionMeans, m)
	}

	session.Metrics = domain.SessionMetrics{
		AveragePerformance:       mean(dimensionMeans),
		PerformanceStdDev:        stddev(dimensionMeans),
		TurnCount:                session.TurnCount(),
		CoachingInteractionCount: len(session.CoachingInteractions),
		DimensionAverages:        dimensionAverages,
		ProgressTrend:            progressTrend(session),
		EngagementScore:          engagementScore(session),
	}
}

// progressTrend compares first-half against second-half performance. Fewer
// than three turns is not enough signal for a meaningful comparison.
func progressTrend(session *domain.LearningSession) string {
	if session.TurnCount() < 3 {
		return TrendInsufficientData
	}

	mid := session.TurnCount() / 2
	var firstHalf, secondHalf []float64
	for i, analysis := range session.Analyses {
		for _, score := range analysis.Scores {
			if i < mid {
				firstHalf = append(firstHalf, score)
			} else {
				secondHalf = append(secondHalf, score)
			}
		}
	}
	if len(firstHalf) == 0 || len(secondHalf) == 0 {
		return TrendInsufficientData
	}

	improvement := mean(secondHalf) - mean(firstHalf)
	switch {
	case improvement > trendBand:
		return TrendImproving
	case improvement < -trendBand:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// engagementScore averages three equally weighted per-turn factors: input
// length (normalized to 20 words), whether the learner asked a question, and
// the analysis confidence.
func engagementScore(session *domain.LearningSession) float64 {
	if session.TurnCount() == 0 {
		return 0
	}

	factors := make([]float64, 0, session.TurnCount())
	for _, analysis := range session.Analyses {
		words := len(strings.Fields(analysis.UserInput))
		lengthScore := float64(words) / 20.0
		if lengthScore > 1.0 {
			lengthScore = 1.0
		}

		questionScore := 0.5
		if strings.Contains(analysis.UserInput, "?") {
			questionScore = 1.0
		}

		factors = append(factors, (lengthScore+questionScore+analysis.Confidence)/3.0)
	}
	return mean(factors)
}
