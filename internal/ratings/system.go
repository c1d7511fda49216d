package ratings

import (
	"context"

	"github.com/verfahren/verfahren/internal/models"
	"github.com/verfahren/verfahren/pkg/pagination"
)

// System defines the public contract for the review workflow.
type System interface {
	Handler() *Handler

	// NextForReview returns the oldest unrated model, or ErrNonePending
	// when every model has been rated. The selection policy is fixed:
	// oldest first, not caller-selectable.
	NextForReview(ctx context.Context) (*models.Model, error)

	// Submit rates an unrated model. The rating insert and the model's
	// unrated-to-rated transition commit atomically; of two concurrent
	// submissions for the same model exactly one succeeds and the other
	// observes ErrAlreadyRated.
	Submit(ctx context.Context, cmd SubmitCommand) (*Rating, error)

	Find(ctx context.Context, id int64) (*Rating, error)

	// History lists ratings in creation order for audit display.
	History(
		ctx context.Context,
		page pagination.PageRequest,
	) (*pagination.PageResult[Rating], error)
}
