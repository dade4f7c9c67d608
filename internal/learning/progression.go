package learning

import (
	"sync"

	"github.com/dkotov/pitchlab/internal/domain"
)

// baselineCapacity bounds the per-user, per-dimension score history. The
// value is a tuning constant, not a correctness invariant.
const baselineCapacity = 50

// DimensionSummary describes the in-session trajectory of one skill
// dimension.
type DimensionSummary struct {
	Current     float64 `json:"current_score"`
	Starting    float64 `json:"starting_score"`
	Delta       float64 `json:"improvement"`
	Trend       string  `json:"trend"` // "improving" or "stable"
	Consistency float64 `json:"consistency"`
}

// boundedScores is a fixed-capacity FIFO score history. Appending beyond
// capacity evicts the oldest entry.
type boundedScores struct {
	buf []float64
}

func (b *boundedScores) append(v float64) {
	if len(b.buf) == baselineCapacity {
		copy(b.buf, b.buf[1:])
		b.buf[len(b.buf)-1] = v
		return
	}
	b.buf = append(b.buf, v)
}

func (b *boundedScores) values() []float64 {
	return b.buf
}

// ProgressionTracker records per-dimension scores into sessions and into the
// process-wide per-user baseline histories.
type ProgressionTracker struct {
	mu       sync.RWMutex
	baseline map[string]map[domain.Dimension]*boundedScores
}

// NewProgressionTracker creates an empty tracker.
func NewProgressionTracker() *ProgressionTracker {
	return &ProgressionTracker{
		baseline: make(map[string]map[domain.Dimension]*boundedScores),
	}
}

// Record appends this turn's score for every dimension to the session's
// progression lists and to the user's baseline history. Exactly one score is
// appended per dimension per processed turn.
func (t *ProgressionTracker) Record(session *domain.LearningSession, analysis *domain.ConversationAnalysis) {
	t.mu.Lock()
	defer t.mu.Unlock()

	user := t.baseline[session.UserID]
	if user == nil {
		user = make(map[domain.Dimension]*boundedScores, len(domain.Dimensions()))
		for _, dim := range domain.Dimensions() {
			user[dim] = &boundedScores{}
		}
		t.baseline[session.UserID] = user
	}

	for _, dim := range domain.Dimensions() {
		score, ok := analysis.Scores[dim]
		if !ok {
			score = domain.NeutralScore
		}
		session.SkillProgression[dim] = append(session.SkillProgression[dim], score)
		user[dim].append(score)
	}
}

// Summarize reports the per-dimension trajectory for the session. Dimensions
// with no recorded scores are omitted, unlike ConversationAnalysis.Scores
// which always carries all eight.
func (t *ProgressionTracker) Summarize(session *domain.LearningSession) map[domain.Dimension]DimensionSummary {
	summary := make(map[domain.Dimension]DimensionSummary)
	for _, dim := range domain.Dimensions() {
		scores := session.SkillProgression[dim]
		if len(scores) == 0 {
			continue
		}
		current := scores[len(scores)-1]
		starting := scores[0]
		delta := current - starting
		trend := "stable"
		if len(scores) >= 2 && delta > 0 {
			trend = "improving"
		}
		summary[dim] = DimensionSummary{
			Current:     current,
			Starting:    starting,
			Delta:       delta,
			Trend:       trend,
			Consistency: stddev(scores),
		}
	}
	return summary
}

// Baseline returns the user's mean score per dimension from the bounded
// history. Dimensions with no history default to the neutral score.
func (t *ProgressionTracker) Baseline(userID string) map[domain.Dimension]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[domain.Dimension]float64, len(domain.Dimensions()))
	user := t.baseline[userID]
	for _, dim := range domain.Dimensions() {
		if user != nil && len(user[dim].values()) > 0 {
			out[dim] = mean(user[dim].values())
		} else {
			out[dim] = domain.NeutralScore
		}
	}
	return out
}

// BaselineDepth returns the number of stored scores for one user/dimension.
// Used by analytics and tests to observe the capacity bound.
func (t *ProgressionTracker) BaselineDepth(userID string, dim domain.Dimension) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	user := t.baseline[userID]
	if user == nil {
		return 0
	}
	return len(user[dim].values())
}

// TrackedUsers returns the number of users with baseline history.
func (t *ProgressionTracker) TrackedUsers() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.baseline)
}
