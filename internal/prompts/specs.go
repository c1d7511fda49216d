package prompts

const analysisSpec = `Respond with a JSON object matching this exact structure:

{
  "process_name": "<short name>",
  "participants": ["<role1>", "<role2>"],
  "activities": [
    {"name": "<label>", "participant": "<role>", "description": "<one sentence>"}
  ]
}

Field constraints:
- process_name: Short name of the administrative procedure, derived from
  the text (e.g., "BAföG Antragsverfahren").
- participants: Distinct roles in the order they first act. At least one.
- activities: The prescribed steps in prescribed order. participant must
  be one of the values in participants. At least one activity.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Derive everything from the supplied text and retrieval context
- Keep activity names under eight words`

var specs = map[Stage]string{
	StageAnalysis: analysisSpec,
}

// Spec returns the hardcoded output specification for a pipeline stage.
// Specifications define the expected response format and behavioral
// constraints. Returns ErrInvalidStage if the stage has no specification.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
