// Package documents implements the document domain for verfahren.
// It provides types, data access, and business logic for uploading and
// registering legal source documents and tracking their processing status.
package documents

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the processing lifecycle of a document.
type Status string

// Document lifecycle states. A document is created ready, claimed into
// processing by the pipeline, and finishes done or failed. Done and failed
// documents may be claimed again for a fresh run.
const (
	StatusReady      Status = "ready"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// Processable reports whether a document in this status may be claimed
// for a pipeline run.
func (s Status) Processable() bool {
	return s == StatusReady || s == StatusDone || s == StatusFailed
}

// Document represents an uploaded legal document with its metadata and
// blob storage reference. Filename is unique across the store; an upload
// with an existing filename returns the original record unchanged.
type Document struct {
	ID            uuid.UUID `json:"id"`
	Filename      string    `json:"filename"`
	ContentType   string    `json:"content_type"`
	SizeBytes     int64     `json:"size_bytes"`
	PageCount     *int      `json:"page_count"`
	StorageKey    string    `json:"storage_key"`
	Status        Status    `json:"status"`
	FailureReason *string   `json:"failure_reason"`
	UploadedAt    time.Time `json:"uploaded_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateCommand carries the data needed to upload and register a new document.
// Data holds the raw file bytes. PageCount is optional and may be extracted
// by the caller via pdfcpu; nil values are stored as NULL.
type CreateCommand struct {
	Data        []byte
	Filename    string
	ContentType string
	PageCount   *int
}
