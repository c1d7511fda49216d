package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verfahren/verfahren/internal/documents"
	"github.com/verfahren/verfahren/internal/engine"
	"github.com/verfahren/verfahren/internal/models"
	"github.com/verfahren/verfahren/pkg/lifecycle"
	"github.com/verfahren/verfahren/pkg/storage"
)

// Runner executes pipeline runs. StartRun claims the document and
// processes it on a background goroutine bound to the application
// lifecycle; clients follow progress through the run record and the
// event bus.
type Runner struct {
	docs    documents.System
	models  models.System
	storage storage.System
	engine  engine.Engine
	runs    RunStore
	bus     *Bus
	logger  *slog.Logger

	mu      sync.Mutex
	base    context.Context
	cancels map[uuid.UUID]context.CancelFunc
	wg      sync.WaitGroup
}

// NewRunner creates a Runner over the given collaborators.
func NewRunner(
	docs documents.System,
	mdls models.System,
	store storage.System,
	eng engine.Engine,
	runs RunStore,
	bus *Bus,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		docs:    docs,
		models:  mdls,
		storage: store,
		engine:  eng,
		runs:    runs,
		bus:     bus,
		logger:  logger.With("system", "pipeline"),
		base:    context.Background(),
		cancels: make(map[uuid.UUID]context.CancelFunc),
	}
}

// Handler returns the HTTP handler for pipeline endpoints.
func (r *Runner) Handler() *Handler {
	return NewHandler(r, r.logger)
}

// Start binds run execution to the application lifecycle. In-flight
// runs observe shutdown through the coordinator's context, and shutdown
// waits for them to record a terminal status.
func (r *Runner) Start(lc *lifecycle.Coordinator) {
	r.mu.Lock()
	r.base = lc.Context()
	r.mu.Unlock()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		r.wg.Wait()
	})
}

// StartRun claims the document and begins a pipeline run over it. The
// returned run is in running status; processing continues in the
// background. Returns documents.ErrProcessing when another run already
// holds the document.
func (r *Runner) StartRun(ctx context.Context, documentID uuid.UUID) (*Run, error) {
	if err := r.docs.Claim(ctx, documentID); err != nil {
		return nil, err
	}

	run := &Run{
		ID:         uuid.New(),
		DocumentID: documentID,
		Status:     RunRunning,
	}
	if err := r.runs.CreateRun(ctx, run); err != nil {
		if relErr := r.docs.Release(ctx, documentID); relErr != nil {
			r.logger.Error("release after failed run create",
				"document_id", documentID,
				"error", relErr,
			)
		}
		return nil, err
	}

	r.mu.Lock()
	runCtx, cancel := context.WithCancel(r.base)
	r.cancels[run.ID] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			cancel()
			r.mu.Lock()
			delete(r.cancels, run.ID)
			r.mu.Unlock()
		}()
		r.execute(runCtx, run.ID, documentID)
	}()

	r.logger.Info("run started", "run_id", run.ID, "document_id", documentID)
	return run, nil
}

// FindRun returns a run record by id.
func (r *Runner) FindRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	return r.runs.FindRun(ctx, runID)
}

// RunsByDocument returns a document's runs, most recent first.
func (r *Runner) RunsByDocument(ctx context.Context, documentID uuid.UUID) ([]Run, error) {
	return r.runs.RunsByDocument(ctx, documentID)
}

// Events returns progress events for a run after the given sequence,
// blocking until at least one arrives when wait is true.
func (r *Runner) Events(ctx context.Context, runID uuid.UUID, since uint64, wait bool) ([]Event, uint64, error) {
	return r.bus.Fetch(ctx, runID, since, wait)
}

// Cancel requests cancellation of a running run. The run stops at the
// next stage boundary and its document moves to failed with a
// "cancelled" reason, leaving it re-runnable. Returns ErrNotRunning
// when the run already reached a terminal status.
func (r *Runner) Cancel(ctx context.Context, runID uuid.UUID) error {
	r.mu.Lock()
	cancel, ok := r.cancels[runID]
	r.mu.Unlock()

	if !ok {
		if _, err := r.runs.FindRun(ctx, runID); err != nil {
			return err
		}
		return ErrNotRunning
	}

	cancel()
	r.logger.Info("run cancellation requested", "run_id", runID)
	return nil
}

func (r *Runner) execute(ctx context.Context, runID, documentID uuid.UUID) {
	logger := r.logger.With("run_id", runID, "document_id", documentID)

	// Terminal bookkeeping must land even when ctx is already canceled.
	dbCtx := context.WithoutCancel(ctx)

	modelID, err := r.process(ctx, dbCtx, runID, documentID)
	switch {
	case err == nil:
		r.settle(dbCtx, runID, documentID, RunDone, &modelID, nil, logger)
	case errors.Is(err, context.Canceled):
		r.settle(dbCtx, runID, documentID, RunCanceled, nil, nil, logger)
	default:
		reason := err.Error()
		r.settle(dbCtx, runID, documentID, RunFailed, nil, &reason, logger)
	}
}

func (r *Runner) settle(
	ctx context.Context,
	runID, documentID uuid.UUID,
	status RunStatus,
	modelID *int64,
	reason *string,
	logger *slog.Logger,
) {
	if err := r.runs.FinishRun(ctx, runID, status, modelID, reason); err != nil {
		logger.Error("finish run", "status", status, "error", err)
	}

	var docErr error
	var kind EventKind
	switch status {
	case RunDone:
		docErr = r.docs.Complete(ctx, documentID)
		kind = EventRunDone
		logger.Info("run complete", "model_id", *modelID)
	case RunCanceled:
		docErr = r.docs.Fail(ctx, documentID, "cancelled")
		kind = EventRunCanceled
		logger.Info("run canceled")
	default:
		docErr = r.docs.Fail(ctx, documentID, *reason)
		kind = EventRunFailed
		logger.Warn("run failed", "reason", *reason)
	}
	if docErr != nil {
		logger.Error("document status transition", "status", status, "error", docErr)
	}

	evt := Event{RunID: runID, Kind: kind}
	if reason != nil {
		evt.Message = *reason
	}
	r.bus.Publish(evt)
}

// process runs the stages in order, checking for cancellation at each
// stage boundary. It returns the registered model's id on success.
func (r *Runner) process(ctx, dbCtx context.Context, runID, documentID uuid.UUID) (int64, error) {
	doc, err := r.docs.Find(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("load document: %w", err)
	}

	blob, err := r.storage.Download(ctx, doc.StorageKey)
	if err != nil {
		return 0, fmt.Errorf("download document: %w", err)
	}
	data, err := io.ReadAll(blob.Body)
	blob.Body.Close()
	if err != nil {
		return 0, fmt.Errorf("read document: %w", err)
	}

	stage := func(s Stage, fn func() (string, error)) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.bus.Publish(Event{RunID: runID, Stage: s, Kind: EventStageStarted})

		msg, err := fn()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%s: %w", s, err)
		}

		if err := r.runs.MarkStage(dbCtx, runID, s); err != nil {
			return fmt.Errorf("%s: record completion: %w", s, err)
		}
		r.bus.Publish(Event{RunID: runID, Stage: s, Kind: EventStageCompleted, Message: msg})
		return nil
	}

	var text string
	if err := stage(StageExtraction, func() (string, error) {
		text, err = r.engine.ExtractText(ctx, data)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d characters extracted", len(text)), nil
	}); err != nil {
		return 0, err
	}

	var chunks []engine.Chunk
	if err := stage(StageChunking, func() (string, error) {
		chunks = r.engine.ChunkText(text)
		if len(chunks) == 0 {
			return "", errors.New("no chunks produced")
		}
		return fmt.Sprintf("%d chunks", len(chunks)), nil
	}); err != nil {
		return 0, err
	}

	if err := stage(StageEmbedding, func() (string, error) {
		vectors, err := r.engine.EmbedChunks(ctx, chunks)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d chunks embedded", len(vectors)), nil
	}); err != nil {
		return 0, err
	}

	var def *engine.ProcessDefinition
	if err := stage(StageAnalysis, func() (string, error) {
		def, err = r.engine.Analyze(ctx, chunks)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d activities identified", len(def.Activities)), nil
	}); err != nil {
		return 0, err
	}

	var modelID int64
	if err := stage(StageGeneration, func() (string, error) {
		modelID, err = r.models.Reserve(ctx)
		if err != nil {
			return "", err
		}

		xml, err := r.engine.GenerateBPMN(def, modelID)
		if err != nil {
			return "", err
		}

		name := modelName(doc.Filename)
		key := fmt.Sprintf("models/%d/%s.bpmn", modelID, name)
		if err := r.storage.Upload(ctx, key, strings.NewReader(xml), "application/xml"); err != nil {
			return "", fmt.Errorf("upload bpmn artifact: %w", err)
		}

		model, err := r.models.Create(ctx, models.CreateCommand{
			ID:               modelID,
			SourceDocumentID: documentID,
			Name:             name,
			XMLContent:       xml,
		})
		if err != nil {
			if delErr := r.storage.Delete(dbCtx, key); delErr != nil {
				r.logger.Warn("compensating artifact delete failed", "key", key, "error", delErr)
			}
			return "", err
		}
		return fmt.Sprintf("model %d registered", model.ID), nil
	}); err != nil {
		return 0, err
	}

	return modelID, nil
}

func modelName(filename string) string {
	base := strings.TrimSuffix(filename, ".pdf")
	return fmt.Sprintf("BPMN-%s-%s", base, time.Now().Format("20060102"))
}
