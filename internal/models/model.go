// Package models implements the generated model domain for verfahren.
// It provides types, data access, and business logic for BPMN 2.0 models
// produced by the processing pipeline, including their review lifecycle.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ReviewState represents the human review lifecycle of a generated model.
type ReviewState string

// Review states. A model is created unrated and transitions to rated
// exactly once when a rating is submitted; rated is terminal.
const (
	ReviewStateUnrated ReviewState = "unrated"
	ReviewStateRated   ReviewState = "rated"
)

// Model represents a generated BPMN 2.0 model. IDs are assigned
// monotonically so the embedded BPMN process id (Process_<id>) is stable
// and unique. SourceDocumentID is a non-owning back-reference: deleting
// the source document leaves it dangling but still displayable.
type Model struct {
	ID               int64       `json:"id"`
	SourceDocumentID uuid.UUID   `json:"source_document_id"`
	Name             string      `json:"name"`
	XMLContent       string      `json:"xml_content"`
	ReviewState      ReviewState `json:"review_state"`
	CreatedAt        time.Time   `json:"created_at"`
}

// CreateCommand carries the data needed to register a generated model.
// ID must come from Reserve so the XML content can embed the process id
// before the row exists.
type CreateCommand struct {
	ID               int64
	SourceDocumentID uuid.UUID
	Name             string
	XMLContent       string
}
