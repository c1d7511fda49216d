package prompts

import (
	"encoding/json"
	"slices"
)

// Stage represents an AI pipeline stage that a prompt override targets.
// Only the language-model-backed analysis stage accepts overrides; the
// remaining pipeline stages are deterministic.
type Stage string

// Valid pipeline stages for prompt overrides.
const (
	StageAnalysis Stage = "ai_analysis"
)

var stages = []Stage{
	StageAnalysis,
}

// Stages returns the list of valid pipeline stages.
func Stages() []Stage {
	return stages
}

// UnmarshalJSON validates that the decoded string is a known stage value.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := Stage(raw)
	if !slices.Contains(stages, v) {
		return ErrInvalidStage
	}
	*s = v
	return nil
}

// ParseStage validates a string as a known pipeline stage.
// Returns ErrInvalidStage if the value is not recognized.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}
