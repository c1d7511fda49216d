package ratings

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/verfahren/verfahren/pkg/handlers"
	"github.com/verfahren/verfahren/pkg/pagination"
	"github.com/verfahren/verfahren/pkg/routes"
)

// Handler provides HTTP endpoints for the review workflow.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "ratings"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for rating endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/ratings",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.History},
			{Method: "GET", Pattern: "/next", Handler: h.Next},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Submit},
		},
	}
}

// Next returns the oldest unrated model, or 204 when the review queue is empty.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	m, err := h.sys.NextForReview(r.Context())
	if err != nil {
		if errors.Is(err, ErrNonePending) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, m)
}

// Submit accepts a JSON rating submission for an unrated model.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var cmd SubmitCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	rating, err := h.sys.Submit(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, rating)
}

// Find returns a single rating by its numeric path parameter. Ratings for
// deleted models remain retrievable here.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	rating, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rating)
}

// History returns the paginated rating history in creation order.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.History(r.Context(), page)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
