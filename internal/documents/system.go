package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/verfahren/verfahren/pkg/pagination"
)

// System defines the public contract for document domain operations.
// Claim, Complete, and Fail are the status transitions owned by the
// processing pipeline; nothing else mutates document status.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Claim atomically moves a processable document into processing.
	// Returns ErrNotFound for an unknown id and ErrProcessing when the
	// document is already claimed by an in-flight run.
	Claim(ctx context.Context, id uuid.UUID) error
	// Complete moves a processing document to done.
	Complete(ctx context.Context, id uuid.UUID) error
	// Fail moves a processing document to failed with a human-readable reason.
	Fail(ctx context.Context, id uuid.UUID, reason string) error
	// Release returns a processing document to ready, used when run
	// startup fails after the claim succeeded.
	Release(ctx context.Context, id uuid.UUID) error
}
