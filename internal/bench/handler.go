package bench

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tpcbench/tpcbench/internal/platform/httpx"
)

// Enqueuer dispatches a run to the background worker.
type Enqueuer interface {
	EnqueueRun(ctx context.Context, runID string, spec RunSpec) error
}

// RunConcurrentRequest is the gateway-facing run specification.
type RunConcurrentRequest struct {
	TransactionTypes []string `json:"transaction_types" validate:"required,min=1,dive,required"`
	Concurrency      int      `json:"concurrency" validate:"required,gt=0,lte=1024"`
	Duration         int      `json:"duration" validate:"required,gt=0"`
}

// Handler exposes synchronous and asynchronous run endpoints plus report
// retrieval.
type Handler struct {
	logger      *slog.Logger
	runner      *Runner
	store       *ReportStore
	enqueuer    Enqueuer
	validate    *validator.Validate
	maxDuration time.Duration
}

// NewHandler builds the harness gateway. store and enqueuer may be nil;
// the async endpoints then report unavailability.
func NewHandler(logger *slog.Logger, runner *Runner, store *ReportStore, enqueuer Enqueuer, maxDuration time.Duration) *Handler {
	return &Handler{
		logger:      logger,
		runner:      runner,
		store:       store,
		enqueuer:    enqueuer,
		validate:    validator.New(),
		maxDuration: maxDuration,
	}
}

// MountRoutes registers the harness endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/concurrent", h.RunConcurrent)
	r.Post("/concurrent/async", h.EnqueueConcurrent)
	r.Get("/runs/{runID}", h.GetReport)
}

func (h *Handler) RunConcurrent(w http.ResponseWriter, r *http.Request) {
	spec, ok := h.decodeSpec(w, r)
	if !ok {
		return
	}

	report, err := h.runner.Run(r.Context(), spec)
	if err != nil {
		h.logger.Error("concurrent run failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Run Failed", err.Error())
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"summary": report.Summary,
		"results": report.Results,
	})
}

func (h *Handler) EnqueueConcurrent(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "background runs are not configured")
		return
	}
	spec, ok := h.decodeSpec(w, r)
	if !ok {
		return
	}

	runID := uuid.NewString()
	if err := h.enqueuer.EnqueueRun(r.Context(), runID, spec); err != nil {
		h.logger.Error("enqueue run failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Enqueue Failed", err.Error())
		return
	}

	httpx.JSON(w, http.StatusAccepted, map[string]any{
		"success": true,
		"run_id":  runID,
	})
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "report store is not configured")
		return
	}
	runID := chi.URLParam(r, "runID")

	report, err := h.store.Get(r.Context(), runID)
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("get report failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) decodeSpec(w http.ResponseWriter, r *http.Request) (RunSpec, bool) {
	var req RunConcurrentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return RunSpec{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return RunSpec{}, false
	}

	duration := time.Duration(req.Duration) * time.Second
	if h.maxDuration > 0 && duration > h.maxDuration {
		duration = h.maxDuration
	}

	return RunSpec{
		Mix:         req.TransactionTypes,
		Concurrency: req.Concurrency,
		Duration:    duration,
	}, true
}
