package learning

import (
	"testing"

	"github.com/dkotov/pitchlab/internal/domain"
)

func TestAdvanceEarlySteps(t *testing.T) {
	c := NewStepController()
	session := newTestSession(t, NewSessionStore(), "user1")

	recordTurns(session, 3.0)
	if c.Advance(session) {
		t.Error("Expected no advance after 1 turn")
	}
	if session.CurrentStep != domain.StepContextGathering {
		t.Errorf("Expected context_gathering, got %s", session.CurrentStep)
	}

	recordTurns(session, 3.0)
	if !c.Advance(session) {
		t.Error("Expected advance to scene_setting at 2 turns")
	}
	if session.CurrentStep != domain.StepSceneSetting {
		t.Errorf("Expected scene_setting, got %s", session.CurrentStep)
	}

	// Scenario selection is skipped entirely.
	recordTurns(session, 3.0)
	if c.Advance(session) {
		t.Error("Expected no advance at 3 turns")
	}

	recordTurns(session, 3.0)
	if !c.Advance(session) {
		t.Error("Expected advance to interactive_roleplay at 4 turns")
	}
	if session.CurrentStep != domain.StepInteractiveRoleplay {
		t.Errorf("Expected interactive_roleplay, got %s", session.CurrentStep)
	}
}

func TestAdvanceStructuredFeedbackGate(t *testing.T) {
	c := NewStepController()

	t.Run("TurnCountGate", func(t *testing.T) {
		session := newTestSession(t, NewSessionStore(), "user1")
		session.CurrentStep = domain.StepInteractiveRoleplay
		recordTurns(session, 3.0, 3.0, 3.0, 3.0, 3.0, 3.0, 3.0, 3.0, 3.0)

		if c.Advance(session) {
			t.Error("Expected no advance at 9 turns regardless of performance")
		}

		recordTurns(session, 3.0)
		if !c.Advance(session) {
			t.Error("Expected advance at 10 turns with passing performance")
		}
		if session.CurrentStep != domain.StepStructuredFeedback {
			t.Errorf("Expected structured_feedback, got %s", session.CurrentStep)
		}
	})

	t.Run("PerformanceGateHolds", func(t *testing.T) {
		session := newTestSession(t, NewSessionStore(), "user1")
		session.CurrentStep = domain.StepInteractiveRoleplay
		recordTurns(session, 2.0, 2.0, 2.0, 2.0, 2.0, 2.0, 2.0, 2.0, 2.0, 2.0)

		if c.Advance(session) {
			t.Error("Expected gate to hold with recent average below 2.5")
		}
		if session.CurrentStep != domain.StepInteractiveRoleplay {
			t.Errorf("Expected interactive_roleplay, got %s", session.CurrentStep)
		}

		// Performance recovers later; the gate opens then.
		recordTurns(session, 4.0, 4.0, 4.0)
		if !c.Advance(session) {
			t.Error("Expected advance once the recent window recovers")
		}
	})

	t.Run("WeakFinalTurnStillPasses", func(t *testing.T) {
		// Nine neutral turns then one weak one: the last-5 window averages
		// (3+3+3+3+2)/5 = 2.8, which still clears the 2.5 gate.
		session := newTestSession(t, NewSessionStore(), "user1")
		session.CurrentStep = domain.StepInteractiveRoleplay
		recordTurns(session, 3.0, 3.0, 3.0, 3.0, 3.0, 3.0, 3.0, 3.0, 3.0, 2.0)

		if !c.Advance(session) {
			t.Error("Expected window average 2.8 to clear the 2.5 gate")
		}
	})
}

func TestAdvanceTerminalSteps(t *testing.T) {
	c := NewStepController()

	for _, step := range []domain.FrameworkStep{domain.StepStructuredFeedback, domain.StepExtendedLearning} {
		session := newTestSession(t, NewSessionStore(), "user1")
		session.CurrentStep = step
		recordTurns(session, 4.0, 4.0, 4.0, 4.0, 4.0, 4.0, 4.0, 4.0, 4.0, 4.0, 4.0, 4.0)

		if c.Advance(session) {
			t.Errorf("Expected no auto-advance from %s", step)
		}
		if session.CurrentStep != step {
			t.Errorf("Expected step %s unchanged, got %s", step, session.CurrentStep)
		}
	}
}

func TestAdvanceMonotonic(t *testing.T) {
	c := NewStepController()
	session := newTestSession(t, NewSessionStore(), "user1")

	var steps []domain.FrameworkStep
	for turn := 0; turn < 15; turn++ {
		recordTurns(session, 3.5)
		c.Advance(session)
		steps = append(steps, session.CurrentStep)
	}

	for i := 1; i < len(steps); i++ {
		if steps[i] < steps[i-1] {
			t.Fatalf("Step regressed from %s to %s at turn %d", steps[i-1], steps[i], i+1)
		}
	}
	if steps[len(steps)-1] != domain.StepStructuredFeedback {
		t.Errorf("Expected structured_feedback after 15 strong turns, got %s", steps[len(steps)-1])
	}
}
