package models

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/verfahren/verfahren/pkg/pagination"
	"github.com/verfahren/verfahren/pkg/query"
	"github.com/verfahren/verfahren/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a model repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "models"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Model], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count models: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanModel)
	if err != nil {
		return nil, fmt.Errorf("query models: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id int64) (*Model, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	m, err := repository.QueryOne(ctx, r.db, q, args, scanModel)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &m, nil
}

func (r *repo) ListUnrated(ctx context.Context) ([]Model, error) {
	state := string(ReviewStateUnrated)
	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("ReviewState", &state).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanModel)
	if err != nil {
		return nil, fmt.Errorf("query unrated models: %w", err)
	}
	return items, nil
}

func (r *repo) NextUnrated(ctx context.Context) (*Model, error) {
	state := string(ReviewStateUnrated)
	q, args := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("ReviewState", &state).
		BuildSingleOrNull()

	m, err := repository.QueryOne(ctx, r.db, q, args, scanModel)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &m, nil
}

func (r *repo) Reserve(ctx context.Context) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(
		ctx,
		"SELECT nextval(pg_get_serial_sequence('models', 'id'))",
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("reserve model id: %w", err)
	}
	return id, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Model, error) {
	if cmd.XMLContent == "" {
		return nil, ErrEmptyContent
	}
	if cmd.ID <= 0 {
		return nil, ErrInvalidID
	}

	q := `
		INSERT INTO models(id, source_document_id, name, xml_content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, source_document_id, name, xml_content, review_state, created_at`

	insertArgs := []any{
		cmd.ID,
		cmd.SourceDocumentID,
		cmd.Name,
		cmd.XMLContent,
	}

	m, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Model, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanModel)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("model created",
		"id", m.ID,
		"source_document_id", m.SourceDocumentID,
		"name", m.Name,
	)
	return &m, nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM models WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("model deleted", "id", id)
	return nil
}
