package ratings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/verfahren/verfahren/internal/models"
	"github.com/verfahren/verfahren/pkg/pagination"
	"github.com/verfahren/verfahren/pkg/query"
	"github.com/verfahren/verfahren/pkg/repository"
)

type repo struct {
	db         *sql.DB
	models     models.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a rating repository implementing the System interface.
func New(
	db *sql.DB,
	modelSys models.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		models:     modelSys,
		logger:     logger.With("system", "ratings"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) NextForReview(ctx context.Context) (*models.Model, error) {
	m, err := r.models.NextUnrated(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrNonePending
		}
		return nil, fmt.Errorf("next unrated model: %w", err)
	}
	return m, nil
}

// Submit creates the rating and flips the model to rated in one
// transaction. The conditional UPDATE on the model row is the guard: a
// model that is missing or already rated matches zero rows, and the
// distinction is resolved inside the same transaction.
func (r *repo) Submit(ctx context.Context, cmd SubmitCommand) (*Rating, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	insertQ := `
		INSERT INTO ratings(model_id, structural_score, content_accuracy_score, feedback_text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, model_id, structural_score, content_accuracy_score, feedback_text, created_at`

	rating, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Rating, error) {
		err := repository.ExecExpectOne(
			ctx, tx,
			`UPDATE models SET review_state = $2 WHERE id = $1 AND review_state = $3`,
			cmd.ModelID, models.ReviewStateRated, models.ReviewStateUnrated,
		)
		if errors.Is(err, sql.ErrNoRows) {
			var state string
			lookupErr := tx.QueryRowContext(
				ctx,
				"SELECT review_state FROM models WHERE id = $1",
				cmd.ModelID,
			).Scan(&state)
			if errors.Is(lookupErr, sql.ErrNoRows) {
				return Rating{}, ErrModelNotFound
			}
			if lookupErr != nil {
				return Rating{}, lookupErr
			}
			return Rating{}, ErrAlreadyRated
		}
		if err != nil {
			return Rating{}, fmt.Errorf("mark model rated: %w", err)
		}

		insertArgs := []any{
			cmd.ModelID,
			cmd.StructuralScore,
			cmd.ContentAccuracyScore,
			cmd.FeedbackText,
		}
		return repository.QueryOne(ctx, tx, insertQ, insertArgs, scanRating)
	})

	if err != nil {
		if errors.Is(err, ErrModelNotFound) || errors.Is(err, ErrAlreadyRated) {
			return nil, err
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("rating submitted",
		"id", rating.ID,
		"model_id", rating.ModelID,
		"structural_score", rating.StructuralScore,
		"content_accuracy_score", rating.ContentAccuracyScore,
	)
	return &rating, nil
}

func (r *repo) Find(ctx context.Context, id int64) (*Rating, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	rating, err := repository.QueryOne(ctx, r.db, q, args, scanRating)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rating, nil
}

func (r *repo) History(
	ctx context.Context,
	page pagination.PageRequest,
) (*pagination.PageResult[Rating], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count ratings: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRating)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}
