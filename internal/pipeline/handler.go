package pipeline

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/verfahren/verfahren/internal/documents"
	"github.com/verfahren/verfahren/pkg/handlers"
	"github.com/verfahren/verfahren/pkg/routes"
)

// Handler provides HTTP endpoints for pipeline operations.
type Handler struct {
	runner *Runner
	logger *slog.Logger
}

// EventPage is the response type for the run events endpoint. Next is
// the sequence cursor for the follow-up request.
type EventPage struct {
	Events []Event `json:"events"`
	Next   uint64  `json:"next"`
}

// NewHandler creates a Handler for the given runner.
func NewHandler(runner *Runner, logger *slog.Logger) *Handler {
	return &Handler{
		runner: runner,
		logger: logger.With("handler", "pipeline"),
	}
}

// Routes returns the route group definitions for pipeline endpoints.
// Generation mounts under the documents prefix because it acts on a
// document; run inspection lives under its own prefix.
func (h *Handler) Routes() []routes.Group {
	return []routes.Group{
		{
			Prefix: "/documents",
			Routes: []routes.Route{
				{Method: "POST", Pattern: "/{id}/generate", Handler: h.Generate},
				{Method: "GET", Pattern: "/{id}/runs", Handler: h.RunsByDocument},
			},
		},
		{
			Prefix: "/pipeline",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/stages", Handler: h.Stages},
				{Method: "GET", Pattern: "/runs/{id}", Handler: h.FindRun},
				{Method: "GET", Pattern: "/runs/{id}/events", Handler: h.Events},
				{Method: "POST", Pattern: "/runs/{id}/cancel", Handler: h.Cancel},
			},
		},
	}
}

// Generate starts a pipeline run over a document and returns the run
// record with 202 Accepted. Returns 409 when a run already holds the
// document.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, documents.ErrNotFound)
		return
	}

	run, err := h.runner.StartRun(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, documents.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, run)
}

// Stages returns the pipeline stages in execution order.
func (h *Handler) Stages(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, Stages())
}

// FindRun returns a run record by its UUID path parameter.
func (h *Handler) FindRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrRunNotFound)
		return
	}

	run, err := h.runner.FindRun(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, run)
}

// RunsByDocument returns a document's runs, most recent first.
func (h *Handler) RunsByDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, documents.ErrNotFound)
		return
	}

	runs, err := h.runner.RunsByDocument(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, runs)
}

// Events returns progress events for a run after the since cursor.
// With wait=true the request blocks until an event arrives or the
// client disconnects.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrRunNotFound)
		return
	}

	if _, err := h.runner.FindRun(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	since, _ := strconv.ParseUint(r.URL.Query().Get("since"), 10, 64)
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))

	events, next, err := h.runner.Events(r.Context(), id, since, wait)
	if err != nil {
		// Client gave up while waiting.
		return
	}
	if events == nil {
		events = []Event{}
	}

	handlers.RespondJSON(w, http.StatusOK, EventPage{Events: events, Next: next})
}

// Cancel requests cancellation of a running run.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrRunNotFound)
		return
	}

	if err := h.runner.Cancel(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
