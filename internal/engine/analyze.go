package engine

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/verfahren/verfahren/internal/prompts"
	"github.com/verfahren/verfahren/pkg/formatting"
)

// Analyze derives a structured process definition from chunked document
// text. Instructions come from the prompts system so an active override
// takes effect without a redeploy.
func (e *gemini) Analyze(ctx context.Context, chunks []Chunk) (*ProcessDefinition, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks to analyze", ErrAnalysis)
	}

	instructions, err := e.prompts.ActiveInstructions(ctx, prompts.StageAnalysis)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}

	spec, err := prompts.Spec(prompts.StageAnalysis)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  e.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}

	resp, err := client.Models.GenerateContent(
		ctx,
		e.cfg.AnalysisModel,
		[]*genai.Content{{Parts: []*genai.Part{{Text: buildAnalysisPrompt(instructions, spec, chunks)}}}},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}

	def, err := formatting.Parse[ProcessDefinition](resp.Text())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}

	if err := normalize(&def); err != nil {
		return nil, err
	}

	e.logger.Debug("analysis complete",
		"process", def.ProcessName,
		"participants", len(def.Participants),
		"activities", len(def.Activities),
	)

	return &def, nil
}

func buildAnalysisPrompt(instructions, spec string, chunks []Chunk) string {
	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	sb.WriteString(spec)
	sb.WriteString("\n\nDocument text:\n\n")
	for _, chunk := range chunks {
		sb.WriteString(chunk.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// normalize rejects definitions too sparse to render and repairs the
// participant list when the model names a participant only inside an
// activity.
func normalize(def *ProcessDefinition) error {
	def.ProcessName = strings.TrimSpace(def.ProcessName)
	if def.ProcessName == "" {
		return fmt.Errorf("%w: missing process name", ErrAnalysis)
	}
	if len(def.Activities) == 0 {
		return fmt.Errorf("%w: no activities", ErrAnalysis)
	}

	known := make(map[string]bool, len(def.Participants))
	for _, p := range def.Participants {
		known[p] = true
	}
	for i, activity := range def.Activities {
		if strings.TrimSpace(activity.Name) == "" {
			return fmt.Errorf("%w: activity %d has no name", ErrAnalysis, i)
		}
		if activity.Participant != "" && !known[activity.Participant] {
			def.Participants = append(def.Participants, activity.Participant)
			known[activity.Participant] = true
		}
	}
	if len(def.Participants) == 0 {
		return fmt.Errorf("%w: no participants", ErrAnalysis)
	}

	return nil
}
