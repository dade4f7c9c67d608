package domain

// FrameworkStep is one of the six ordered phases a learning session moves
// through. Sessions only ever advance forward; there are no backward
// transitions.
type FrameworkStep int

const (
	StepContextGathering FrameworkStep = iota + 1
	StepScenarioSelection
	StepSceneSetting
	StepInteractiveRoleplay
	StepStructuredFeedback
	StepExtendedLearning
)

var stepNames = map[FrameworkStep]string{
	StepContextGathering:    "context_gathering",
	StepScenarioSelection:   "scenario_selection",
	StepSceneSetting:        "scene_setting",
	StepInteractiveRoleplay: "interactive_roleplay",
	StepStructuredFeedback:  "structured_feedback",
	StepExtendedLearning:    "extended_learning",
}

// String returns the snake_case name of the step.
func (s FrameworkStep) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler so steps serialize as names
// rather than bare integers in JSON responses.
func (s FrameworkStep) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for reading archived
// reports back. Unknown names map to the zero step.
func (s *FrameworkStep) UnmarshalText(text []byte) error {
	name := string(text)
	for step, n := range stepNames {
		if n == name {
			*s = step
			return nil
		}
	}
	*s = 0
	return nil
}
