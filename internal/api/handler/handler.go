package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-tennis-pipeline/internal/model"
	"go-tennis-pipeline/internal/pipeline"
	"go-tennis-pipeline/internal/store"
	"go-tennis-pipeline/pkg/router"
)

// Route patterns served by the handler.
const (
	RunsPath      = "/api/v1/runs"
	RunPath       = "/api/v1/runs/*"
	RunErrorsPath = "/api/v1/runs/*/errors"
	RunRetryPath  = "/api/v1/runs/*/retry"
	PipelinePath  = "/api/v1/pipeline"
)

// Service submits and executes runs of the configured pipeline.
type Service interface {
	Submit(ctx context.Context, retryOf string) (model.RunRecord, error)
	Execute(ctx context.Context, runID string) (*pipeline.RunResult, error)
	Describe() model.PipelineDescription
}

// RunStore reads persisted runs.
type RunStore interface {
	GetRun(ctx context.Context, runID string) (*model.RunRecord, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	GetRunErrors(ctx context.Context, runID string) ([]model.ErrorRecord, error)
}

// Handler serves the runs API. Runs execute in the background under the
// handler's base context.
type Handler struct {
	svc    Service
	runs   RunStore
	logger *zap.Logger

	ctx context.Context
	wg  sync.WaitGroup
}

// New returns a Handler. Cancelling ctx cancels background runs between
// stages.
func New(ctx context.Context, svc Service, runs RunStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, runs: runs, logger: logger, ctx: ctx}
}

// Wait blocks until every background run has finished.
func (h *Handler) Wait() {
	h.wg.Wait()
}

// SubmitResponse is returned when a run is accepted.
type SubmitResponse struct {
	Message   string          `json:"message"`
	RunID     string          `json:"run_id"`
	RetryOf   string          `json:"retry_of,omitempty"`
	Status    model.RunStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// CreateRun starts a new run of the pipeline
// @Summary Start a pipeline run
// @Description Register a run of the tennis matches pipeline and execute it in the background
// @Tags runs
// @Produce json
// @Success 202 {object} SubmitResponse "Run accepted"
// @Failure 500 {string} string "Internal server error"
// @Router /runs [post]
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, "")
}

// ListRuns retrieves all runs
// @Summary List runs
// @Description Get all runs, newest first
// @Tags runs
// @Produce json
// @Success 200 {array} model.RunRecord "List of runs"
// @Failure 500 {string} string "Internal server error"
// @Router /runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runs.ListRuns(r.Context())
	if err != nil {
		h.logger.Error("failed to list runs", zap.Error(err))
		http.Error(w, "Failed to fetch runs", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, runs)
}

// GetRun retrieves a run with its stages
// @Summary Get run
// @Description Retrieve a run and the progress of each stage
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} model.RunRecord "Run details"
// @Failure 400 {string} string "Run ID is required"
// @Failure 404 {string} string "Run not found"
// @Router /runs/{id} [get]
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := router.PathParam(r, RunPath, 0)
	if runID == "" {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}
	run, ok := h.lookup(w, r, runID)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

// GetRunErrors retrieves errors for a run
// @Summary Get run errors
// @Description Retrieve the errors recorded while the run executed
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {array} model.ErrorRecord "Run errors"
// @Failure 400 {string} string "Run ID is required"
// @Failure 404 {string} string "Run not found"
// @Router /runs/{id}/errors [get]
func (h *Handler) GetRunErrors(w http.ResponseWriter, r *http.Request) {
	runID := router.PathParam(r, RunErrorsPath, 0)
	if runID == "" {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}
	if _, ok := h.lookup(w, r, runID); !ok {
		return
	}
	errs, err := h.runs.GetRunErrors(r.Context(), runID)
	if err != nil {
		h.logger.Error("failed to fetch run errors", zap.String("run_id", runID), zap.Error(err))
		http.Error(w, "Failed to fetch run errors", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, errs)
}

// RetryRun starts a new run in place of a finished one
// @Summary Retry run
// @Description Start a new run of the pipeline linked to a finished run. Every stage is idempotent, so the whole chain is re-executed.
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 202 {object} SubmitResponse "Retry accepted"
// @Failure 400 {string} string "Run ID is required"
// @Failure 404 {string} string "Run not found"
// @Failure 409 {string} string "Run has not finished"
// @Router /runs/{id}/retry [post]
func (h *Handler) RetryRun(w http.ResponseWriter, r *http.Request) {
	runID := router.PathParam(r, RunRetryPath, 0)
	if runID == "" {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}
	run, ok := h.lookup(w, r, runID)
	if !ok {
		return
	}
	if !run.Status.Terminal() {
		http.Error(w, "Run has not finished", http.StatusConflict)
		return
	}
	h.submit(w, r, runID)
}

// GetPipeline describes the configured pipeline
// @Summary Describe pipeline
// @Description Stages in execution order with their parameters, and the table schema
// @Tags pipeline
// @Produce json
// @Success 200 {object} model.PipelineDescription "Pipeline description"
// @Router /pipeline [get]
func (h *Handler) GetPipeline(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Describe())
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, retryOf string) {
	run, err := h.svc.Submit(r.Context(), retryOf)
	if err != nil {
		h.logger.Error("failed to register run", zap.Error(err))
		http.Error(w, "Failed to register run", http.StatusInternalServerError)
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if _, err := h.svc.Execute(h.ctx, run.ID); err != nil {
			h.logger.Warn("❌ run failed", zap.String("run_id", run.ID), zap.Error(err))
			return
		}
		h.logger.Info("✅ run finished", zap.String("run_id", run.ID))
	}()

	message := "Run started"
	if retryOf != "" {
		message = "Retry initiated"
	}
	h.writeJSON(w, http.StatusAccepted, SubmitResponse{
		Message:   message,
		RunID:     run.ID,
		RetryOf:   retryOf,
		Status:    run.Status,
		CreatedAt: time.Now().UTC(),
	})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request, runID string) (*model.RunRecord, bool) {
	run, err := h.runs.GetRun(r.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Run not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		h.logger.Error("failed to fetch run", zap.String("run_id", runID), zap.Error(err))
		http.Error(w, "Failed to fetch run", http.StatusInternalServerError)
		return nil, false
	}
	return run, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to write response", zap.Int("status", status), zap.Error(err))
	}
}
