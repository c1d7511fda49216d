// Package pipeline implements the document processing pipeline for
// verfahren: it claims a document, runs it through the engine stages in
// order, and registers the generated BPMN model. Run records track
// per-stage completion so clients can poll progress.
package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Stage identifies one processing stage. Stages execute strictly in the
// order Stages() returns them; a failure stops the run at that stage.
type Stage string

// Pipeline stages in execution order.
const (
	StageExtraction Stage = "extraction"
	StageChunking   Stage = "chunking"
	StageEmbedding  Stage = "embedding"
	StageAnalysis   Stage = "ai_analysis"
	StageGeneration Stage = "bpmn_generation"
)

var stages = []Stage{
	StageExtraction,
	StageChunking,
	StageEmbedding,
	StageAnalysis,
	StageGeneration,
}

// Stages returns the pipeline stages in execution order.
func Stages() []Stage {
	return stages
}

// RunStatus represents the lifecycle of a pipeline run.
type RunStatus string

// Run statuses. Running is the only non-terminal status.
const (
	RunRunning  RunStatus = "running"
	RunDone     RunStatus = "done"
	RunFailed   RunStatus = "failed"
	RunCanceled RunStatus = "canceled"
)

// Run represents one pipeline execution over a document. Completed
// records which stages finished; on failure the run stops after the
// last completed stage and Error carries the failing stage's reason.
type Run struct {
	ID         uuid.UUID  `json:"id"`
	DocumentID uuid.UUID  `json:"document_id"`
	Status     RunStatus  `json:"status"`
	Completed  []Stage    `json:"completed_stages"`
	ModelID    *int64     `json:"model_id"`
	Error      *string    `json:"error"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

// CompletedStage reports whether the given stage finished during this run.
func (r *Run) CompletedStage(stage Stage) bool {
	for _, s := range r.Completed {
		if s == stage {
			return true
		}
	}
	return false
}
