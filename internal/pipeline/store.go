package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/verfahren/verfahren/pkg/repository"
)

// RunStore persists pipeline run records.
type RunStore interface {
	CreateRun(ctx context.Context, run *Run) error
	// MarkStage appends a completed stage to a running run.
	MarkStage(ctx context.Context, runID uuid.UUID, stage Stage) error
	// FinishRun moves a running run to a terminal status. Returns
	// ErrNotRunning when the run already finished.
	FinishRun(ctx context.Context, runID uuid.UUID, status RunStatus, modelID *int64, reason *string) error
	FindRun(ctx context.Context, runID uuid.UUID) (*Run, error)
	// RunsByDocument returns a document's runs, most recent first.
	RunsByDocument(ctx context.Context, documentID uuid.UUID) ([]Run, error)
}

type store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a Postgres-backed RunStore.
func NewStore(db *sql.DB, logger *slog.Logger) RunStore {
	return &store{
		db:     db,
		logger: logger.With("system", "pipeline"),
	}
}

const runColumns = `id, document_id, status, completed_stages, model_id, error, started_at, finished_at`

func (s *store) CreateRun(ctx context.Context, run *Run) error {
	insertQ := fmt.Sprintf(`
		INSERT INTO pipeline_runs(id, document_id, status, completed_stages)
		VALUES ($1, $2, $3, '[]'::jsonb)
		RETURNING %s`, runColumns)

	created, err := repository.QueryOne(ctx, s.db, insertQ,
		[]any{run.ID, run.DocumentID, run.Status},
		scanRun,
	)
	if err != nil {
		return fmt.Errorf("create pipeline run: %w", err)
	}

	*run = created
	return nil
}

func (s *store) MarkStage(ctx context.Context, runID uuid.UUID, stage Stage) error {
	err := repository.ExecExpectOne(
		ctx, s.db,
		`UPDATE pipeline_runs
		 SET completed_stages = completed_stages || to_jsonb($2::text)
		 WHERE id = $1 AND status = $3`,
		runID, string(stage), string(RunRunning),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotRunning
	}
	return err
}

func (s *store) FinishRun(
	ctx context.Context,
	runID uuid.UUID,
	status RunStatus,
	modelID *int64,
	reason *string,
) error {
	err := repository.ExecExpectOne(
		ctx, s.db,
		`UPDATE pipeline_runs
		 SET status = $2, model_id = $3, error = $4, finished_at = NOW()
		 WHERE id = $1 AND status = $5`,
		runID, string(status), modelID, reason, string(RunRunning),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotRunning
	}
	return err
}

func (s *store) FindRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	findQ := fmt.Sprintf(`SELECT %s FROM pipeline_runs WHERE id = $1`, runColumns)

	run, err := repository.QueryOne(ctx, s.db, findQ, []any{runID}, scanRun)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("find pipeline run: %w", err)
	}
	return &run, nil
}

func (s *store) RunsByDocument(ctx context.Context, documentID uuid.UUID) ([]Run, error) {
	listQ := fmt.Sprintf(
		`SELECT %s FROM pipeline_runs WHERE document_id = $1 ORDER BY started_at DESC`,
		runColumns,
	)

	runs, err := repository.QueryMany(ctx, s.db, listQ, []any{documentID}, scanRun)
	if err != nil {
		return nil, fmt.Errorf("list pipeline runs: %w", err)
	}
	return runs, nil
}

func scanRun(s repository.Scanner) (Run, error) {
	var r Run
	var stagesRaw []byte

	err := s.Scan(
		&r.ID,
		&r.DocumentID,
		&r.Status,
		&stagesRaw,
		&r.ModelID,
		&r.Error,
		&r.StartedAt,
		&r.FinishedAt,
	)
	if err != nil {
		return r, err
	}

	if len(stagesRaw) > 0 {
		if err := json.Unmarshal(stagesRaw, &r.Completed); err != nil {
			return r, fmt.Errorf("unmarshal completed_stages: %w", err)
		}
	}
	if r.Completed == nil {
		r.Completed = []Stage{}
	}

	return r, nil
}
