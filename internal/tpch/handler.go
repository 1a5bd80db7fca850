package tpch

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tpcbench/tpcbench/internal/bench"
	"github.com/tpcbench/tpcbench/internal/platform/httpx"
	"github.com/tpcbench/tpcbench/internal/tpcc"
)

// RunQueryRequest selects one catalog query and optional overrides for
// its named parameters.
type RunQueryRequest struct {
	QueryID    string            `json:"query_id" validate:"required"`
	Parameters map[string]string `json:"parameters"`
}

// RunConcurrentRequest specifies a concurrent analytical run: a mix of
// catalog query ids driven through the load harness.
type RunConcurrentRequest struct {
	QueryIDs    []string          `json:"query_ids" validate:"required,min=1,dive,required"`
	Concurrency int               `json:"concurrency" validate:"required,gt=0,lte=256"`
	Duration    int               `json:"duration" validate:"required,gt=0"`
	Parameters  map[string]string `json:"parameters"`
}

// Handler exposes the analytical catalog over HTTP.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	recorder    bench.TxRecorder
	validate    *validator.Validate
	pause       time.Duration
	maxDuration time.Duration
}

func NewHandler(logger *slog.Logger, service *Service, recorder bench.TxRecorder, pause, maxDuration time.Duration) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		recorder:    recorder,
		validate:    validator.New(),
		pause:       pause,
		maxDuration: maxDuration,
	}
}

// MountRoutes registers the analytical endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/queries", h.ListQueries)
	r.Post("/query", h.RunQuery)
	r.Post("/concurrent", h.RunConcurrent)
}

func (h *Handler) ListQueries(w http.ResponseWriter, r *http.Request) {
	queries := make([]Query, 0, len(Catalog))
	for _, id := range QueryIDs() {
		queries = append(queries, Catalog[id])
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"queries": queries,
	})
}

func (h *Handler) RunQuery(w http.ResponseWriter, r *http.Request) {
	var req RunQueryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.service.Run(r.Context(), req.QueryID, req.Parameters)
	if err != nil {
		if errors.Is(err, tpcc.ErrValidation) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("query run failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) RunConcurrent(w http.ResponseWriter, r *http.Request) {
	var req RunConcurrentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	for _, id := range req.QueryIDs {
		if _, ok := Lookup(id); !ok {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown query "+id)
			return
		}
	}

	duration := time.Duration(req.Duration) * time.Second
	if h.maxDuration > 0 && duration > h.maxDuration {
		duration = h.maxDuration
	}

	invoker := NewInvoker(h.service, req.Parameters, h.recorder)
	runner := bench.NewRunner(invoker, h.logger, h.pause)
	report, err := runner.Run(r.Context(), bench.RunSpec{
		Mix:         req.QueryIDs,
		Concurrency: req.Concurrency,
		Duration:    duration,
	})
	if err != nil {
		h.logger.Error("concurrent query run failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Run Failed", err.Error())
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"summary": report.Summary,
		"results": report.Results,
	})
}
