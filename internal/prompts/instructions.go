package prompts

const analysisInstructions = `You are a business process analyst reading a German legal or administrative text.

Identify the administrative process the text prescribes:
- Activities: the discrete steps an authority or applicant performs, in the
  order the text prescribes them. Use short imperative labels.
- Participants: the roles or organizational units that carry out or receive
  each activity (e.g., applicant, Amt, Behörde, case worker).
- Decisions: points where the procedure branches on a legal condition, with
  the condition stated briefly.

Work only from the supplied text. Do not invent steps the text does not
prescribe. When the text describes deadlines or notifications, model them as
activities of the responsible participant.`

var instructions = map[Stage]string{
	StageAnalysis: analysisInstructions,
}

// Instructions returns the hardcoded default instructions for a pipeline stage.
// Returns ErrInvalidStage if the stage is not recognized.
func Instructions(stage Stage) (string, error) {
	text, ok := instructions[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
