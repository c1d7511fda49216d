// Package engine implements the document processing stages that turn an
// uploaded PDF into a BPMN process model: text extraction, chunking,
// embedding, AI analysis, and XML generation.
package engine

import (
	"context"
	"log/slog"

	"github.com/verfahren/verfahren/internal/prompts"
)

// Chunk is a contiguous span of extracted document text prepared for
// embedding and analysis.
type Chunk struct {
	Content    string `json:"content"`
	TokenCount int    `json:"token_count"`
	Position   int    `json:"position"`
}

// Activity is a single prescribed step of an administrative procedure.
type Activity struct {
	Name        string `json:"name"`
	Participant string `json:"participant"`
	Description string `json:"description"`
}

// ProcessDefinition is the structured analysis result the generation
// stage renders as BPMN.
type ProcessDefinition struct {
	ProcessName  string     `json:"process_name"`
	Participants []string   `json:"participants"`
	Activities   []Activity `json:"activities"`
}

// Engine defines the processing stage contract the pipeline runs
// documents through. Implementations must be safe for concurrent use.
type Engine interface {
	// ExtractText extracts plain text from PDF bytes.
	// Returns ErrExtraction when the document yields no text.
	ExtractText(ctx context.Context, data []byte) (string, error)

	// ChunkText splits extracted text into ordered, overlapping chunks.
	ChunkText(text string) []Chunk

	// EmbedChunks produces one embedding vector per chunk, preserving
	// chunk order.
	EmbedChunks(ctx context.Context, chunks []Chunk) ([][]float32, error)

	// Analyze derives a structured process definition from the chunked
	// document text.
	Analyze(ctx context.Context, chunks []Chunk) (*ProcessDefinition, error)

	// GenerateBPMN renders a process definition as a BPMN 2.0 XML
	// document whose process element id is derived from modelID.
	GenerateBPMN(def *ProcessDefinition, modelID int64) (string, error)
}

type gemini struct {
	cfg     Config
	prompts prompts.System
	logger  *slog.Logger
}

// New creates an Engine backed by the Gemini API for the embedding and
// analysis stages. The prompts system supplies analysis instructions so
// operators can override them without a redeploy.
func New(cfg Config, prompts prompts.System, logger *slog.Logger) Engine {
	return &gemini{
		cfg:     cfg,
		prompts: prompts,
		logger:  logger.With("system", "engine"),
	}
}
