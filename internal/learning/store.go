// Package learning implements the in-process learning-session state machine:
// session lifecycle, skill progression tracking, real-time coaching
// thresholds, adaptive difficulty signals and framework step progression.
package learning

import (
	"fmt"
	"sync"
	"time"

	"github.com/dkotov/pitchlab/internal/domain"
)

// defaultObjectives is substituted when a session is started with no
// learning objectives.
var defaultObjectives = []string{
	"Practice discovery questions",
	"Handle objections effectively",
	"Build compelling value propositions",
}

const (
	defaultDifficulty = 2
	minDifficulty     = 1
	maxDifficulty     = 5

	defaultScenarioType = "cold_call"
	defaultPersona      = "enterprise_vp"
)

// SessionStore owns the lifecycle of learning sessions: the active map and
// the per-user append-only archive. It is an injected dependency rather than
// package-global state so tests can construct isolated stores.
type SessionStore struct {
	mu      sync.RWMutex
	active  map[string]*domain.LearningSession
	history map[string][]*domain.LearningSession
	seq     uint64
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		active:  make(map[string]*domain.LearningSession),
		history: make(map[string][]*domain.LearningSession),
	}
}

// Start validates the configuration, creates a new session in the active set
// and returns its id. Difficulty outside 1-5 is rejected; a zero value takes
// the default. Empty objectives are replaced with the default triple.
func (st *SessionStore) Start(userID string, cfg domain.SessionConfig, baseline map[domain.Dimension]float64) (*domain.LearningSession, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidConfiguration)
	}
	if cfg.DifficultyLevel == 0 {
		cfg.DifficultyLevel = defaultDifficulty
	}
	if cfg.DifficultyLevel < minDifficulty || cfg.DifficultyLevel > maxDifficulty {
		return nil, fmt.Errorf("%w: difficulty_level %d outside [%d,%d]", ErrInvalidConfiguration, cfg.DifficultyLevel, minDifficulty, maxDifficulty)
	}
	if cfg.ScenarioType == "" {
		cfg.ScenarioType = defaultScenarioType
	}
	if cfg.ProspectPersona == "" {
		cfg.ProspectPersona = defaultPersona
	}
	objectives := cfg.LearningObjectives
	if len(objectives) == 0 {
		objectives = append([]string(nil), defaultObjectives...)
	}

	progression := make(map[domain.Dimension][]float64, len(domain.Dimensions()))
	for _, dim := range domain.Dimensions() {
		progression[dim] = []float64{}
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	st.seq++
	sessionID := fmt.Sprintf("session_%s_%d_%d", userID, time.Now().UnixNano(), st.seq)

	session := &domain.LearningSession{
		SessionID:          sessionID,
		UserID:             userID,
		ScenarioType:       cfg.ScenarioType,
		ProspectPersona:    cfg.ProspectPersona,
		DifficultyLevel:    cfg.DifficultyLevel,
		LearningObjectives: objectives,
		StartTime:          time.Now().UTC(),
		CurrentStep:        domain.StepContextGathering,
		SkillProgression:   progression,
		AdaptiveParameters: domain.AdaptiveParameters{
			CoachingSensitivity: domain.SensitivityMedium,
			PerformanceBaseline: baseline,
		},
	}

	st.active[sessionID] = session
	return session, nil
}

// Get returns the active session for the id, or ErrSessionNotFound.
func (st *SessionStore) Get(sessionID string) (*domain.LearningSession, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	session, ok := st.active[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return session, nil
}

// End sets the session's end time exactly once, moves it from the active set
// into the user's archive and returns the final snapshot. Ending a session
// twice fails with ErrSessionNotFound: the second call cannot distinguish an
// ended session from one that never existed.
func (st *SessionStore) End(sessionID string) (*domain.LearningSession, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	session, ok := st.active[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	now := time.Now().UTC()
	session.EndTime = &now
	delete(st.active, sessionID)
	st.history[session.UserID] = append(st.history[session.UserID], session)
	return session, nil
}

// UserSessions returns the user's sessions (active and archived) started at
// or after since, ordered by start time.
func (st *SessionStore) UserSessions(userID string, since time.Time) []*domain.LearningSession {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var out []*domain.LearningSession
	for _, s := range st.active {
		if s.UserID == userID && !s.StartTime.Before(since) {
			out = append(out, s)
		}
	}
	for _, s := range st.history[userID] {
		if !s.StartTime.Before(since) {
			out = append(out, s)
		}
	}

	// Insertion sort: session counts per user are small.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].StartTime.Before(out[j-1].StartTime); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// ActiveCount returns the number of active sessions across all users.
func (st *SessionStore) ActiveCount() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.active)
}
