package models

import (
	"context"

	"github.com/verfahren/verfahren/pkg/pagination"
)

// System defines the public contract for model domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Model], error)

	Find(ctx context.Context, id int64) (*Model, error)

	// ListUnrated returns unrated models in creation order.
	ListUnrated(ctx context.Context) ([]Model, error)

	// NextUnrated returns the oldest unrated model, or ErrNotFound when
	// every model has been rated. This is the review queue head.
	NextUnrated(ctx context.Context) (*Model, error)

	// Reserve allocates the next model id without creating a row, so the
	// pipeline can derive the BPMN process id before generation completes.
	Reserve(ctx context.Context) (int64, error)

	Create(ctx context.Context, cmd CreateCommand) (*Model, error)

	// Delete removes a model regardless of review state. Ratings referencing
	// the model are kept; the feedback history outlives its subject.
	Delete(ctx context.Context, id int64) error
}
