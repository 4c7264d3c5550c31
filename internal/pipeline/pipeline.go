// Package pipeline defines the stage chain of the tennis matches pipeline and
// runs it stage by stage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-tennis-pipeline/internal/model"
)

// Runner executes a definition one stage at a time in topological order,
// stopping at the first failure.
type Runner struct {
	recorder Recorder
	logger   *zap.Logger
	retry    model.RetryConfig
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithRecorder persists run progress.
func WithRecorder(r Recorder) Option { return func(rn *Runner) { rn.recorder = r } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(rn *Runner) { rn.logger = l } }

// WithRetry sets the per-stage retry policy. The default makes one attempt.
func WithRetry(cfg model.RetryConfig) Option { return func(rn *Runner) { rn.retry = cfg } }

// NewRunner returns a Runner with the given options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger: zap.NewNop(),
		retry:  model.NoRetry,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StageResult is the outcome of one stage.
type StageResult struct {
	StageID  string            `json:"stage_id"`
	Status   model.StageStatus `json:"status"`
	Attempts int               `json:"attempts"`
	Duration time.Duration     `json:"duration"`
	Error    string            `json:"error,omitempty"`
}

// RunResult is the outcome of a run.
type RunResult struct {
	RunID       string          `json:"run_id"`
	Pipeline    string          `json:"pipeline"`
	Status      model.RunStatus `json:"status"`
	FailedStage string          `json:"failed_stage,omitempty"`
	Stages      []StageResult   `json:"stages"`
	Duration    time.Duration   `json:"duration"`
}

// Run executes every stage of def. Stage N+1 is dispatched only after stage N
// succeeds. On the first failure the run is failed, the remaining stages are
// skipped and the returned error is a *model.CollaboratorError naming the
// failing stage. Cancellation is honoured between stages; an in-flight
// collaborator call is not interrupted by the runner.
func (r *Runner) Run(ctx context.Context, def *Definition, runID string) (*RunResult, error) {
	start := r.now()
	order := def.Order()
	logger := r.logger.With(zap.String("run_id", runID), zap.String("pipeline", def.Name()))

	t := newTracker(r.recorder, logger, runID)
	t.start(ctx, def.Name(), order, start)

	result := &RunResult{RunID: runID, Pipeline: def.Name(), Status: model.RunPending}

	logger.Info("🚀 starting run", zap.Strings("stages", order))
	t.transition(ctx, model.RunRunning, "")
	result.Status = model.RunRunning

	var runErr error
	for i, id := range order {
		if err := ctx.Err(); err != nil {
			runErr = &model.CollaboratorError{StageID: id, Err: fmt.Errorf("not dispatched: %w", err)}
			t.stageFinished(ctx, id, 0, r.now(), runErr)
			r.skipRest(ctx, t, order[i+1:])
			break
		}

		stageStart := r.now()
		t.stageStarted(ctx, id, stageStart)
		logger.Info("➡️ stage started", zap.String("stage", id))

		attempts, err := executeWithRetry(ctx, logger, r.retry, id, def.task(id))
		stageEnd := r.now()
		if err != nil {
			var ce *model.CollaboratorError
			if !errors.As(err, &ce) || ce.StageID != id {
				err = &model.CollaboratorError{StageID: id, Err: err}
			}
			runErr = err
			t.stageFinished(ctx, id, attempts, stageEnd, err)
			logger.Error("❌ stage failed",
				zap.String("stage", id),
				zap.Int("attempts", attempts),
				zap.Duration("duration", stageEnd.Sub(stageStart)),
				zap.Error(err))
			r.skipRest(ctx, t, order[i+1:])
			break
		}

		t.stageFinished(ctx, id, attempts, stageEnd, nil)
		logger.Info("✅ stage succeeded",
			zap.String("stage", id),
			zap.Int("attempts", attempts),
			zap.Duration("duration", stageEnd.Sub(stageStart)))
	}

	for _, id := range order {
		rec := t.record(id)
		result.Stages = append(result.Stages, StageResult{
			StageID:  id,
			Status:   rec.Status,
			Attempts: rec.Attempts,
			Duration: rec.Duration(),
			Error:    rec.Error,
		})
	}
	result.Duration = r.now().Sub(start)

	if runErr != nil {
		var ce *model.CollaboratorError
		errors.As(runErr, &ce)
		result.Status = model.RunFailed
		result.FailedStage = ce.StageID
		t.transition(ctx, model.RunFailed, ce.StageID)
		logger.Error("🏁 run failed", zap.String("failed_stage", ce.StageID), zap.Duration("duration", result.Duration))
		return result, runErr
	}

	result.Status = model.RunSucceeded
	t.transition(ctx, model.RunSucceeded, "")
	logger.Info("🏁 run succeeded", zap.Duration("duration", result.Duration))
	return result, nil
}

func (r *Runner) skipRest(ctx context.Context, t *tracker, rest []string) {
	for _, id := range rest {
		t.stageSkipped(ctx, id)
	}
}
