package documents

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/verfahren/verfahren/pkg/pagination"
	"github.com/verfahren/verfahren/pkg/query"
	"github.com/verfahren/verfahren/pkg/repository"
	"github.com/verfahren/verfahren/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a document repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Filename")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

// Create registers a new document. Uploading a filename that already exists
// is a no-op: the original record is returned and no blob is written. This
// is the de-duplication contract the upload surface relies on when the same
// file is submitted twice.
func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	if existing, err := r.findByName(ctx, cmd.Filename); err == nil {
		r.logger.Info("duplicate upload ignored", "filename", cmd.Filename, "id", existing.ID)
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	id := uuid.New()
	key := buildStorageKey(id, sanitizeFilename(cmd.Filename))

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload document blob: %w", err)
	}

	q := `
		INSERT INTO documents(id, filename, content_type, size_bytes, page_count, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, filename, content_type, size_bytes, page_count, storage_key,
				  status, failure_reason, uploaded_at, updated_at`

	insertArgs := []any{
		id,
		cmd.Filename,
		cmd.ContentType,
		int64(len(cmd.Data)),
		cmd.PageCount,
		key,
	}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanDocument)
	})

	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}

		// lost an insert race on the unique filename: honor the no-op contract
		if repository.MapError(err, ErrNotFound, ErrDuplicate) == ErrDuplicate {
			return r.findByName(ctx, cmd.Filename)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document created", "id", d.ID, "filename", d.Filename)
	return &d, nil
}

// Delete removes the document record and its blob. Models generated from the
// document are untouched; they keep a dangling source_document_id by design.
func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM documents WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if delErr := r.storage.Delete(ctx, doc.StorageKey); delErr != nil {
		r.logger.Warn(
			"blob delete failed after DB delete",
			"key", doc.StorageKey,
			"error", delErr,
		)
	}

	r.logger.Info("document deleted", "id", id)
	return nil
}

// Claim is the check-and-set entry into processing. The conditional UPDATE
// is what guarantees a single in-flight run per document: of two racing
// claims, exactly one matches a processable status.
func (r *repo) Claim(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		`UPDATE documents
		 SET status = $2, failure_reason = NULL, updated_at = NOW()
		 WHERE id = $1 AND status IN ($3, $4, $5)`,
		id, StatusProcessing, StatusReady, StatusDone, StatusFailed,
	)

	if errors.Is(err, sql.ErrNoRows) {
		if _, findErr := r.Find(ctx, id); findErr != nil {
			return findErr
		}
		return ErrProcessing
	}
	if err != nil {
		return fmt.Errorf("claim document %s: %w", id, err)
	}

	r.logger.Info("document claimed", "id", id)
	return nil
}

func (r *repo) Complete(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		`UPDATE documents
		 SET status = $2, updated_at = NOW()
		 WHERE id = $1 AND status = $3`,
		id, StatusDone, StatusProcessing,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document completed", "id", id)
	return nil
}

func (r *repo) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		`UPDATE documents
		 SET status = $2, failure_reason = $3, updated_at = NOW()
		 WHERE id = $1 AND status = $4`,
		id, StatusFailed, reason, StatusProcessing,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Warn("document failed", "id", id, "reason", reason)
	return nil
}

func (r *repo) Release(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		`UPDATE documents
		 SET status = $2, updated_at = NOW()
		 WHERE id = $1 AND status = $3`,
		id, StatusReady, StatusProcessing,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document released", "id", id)
	return nil
}

func (r *repo) findByName(ctx context.Context, filename string) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("Filename", filename)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("documents/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "document"
	}
	return url.PathEscape(name)
}
