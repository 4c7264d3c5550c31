package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"go-tennis-pipeline/internal/model"
)

// Recorder persists run progress. The sqlite store implements it.
type Recorder interface {
	EnsureRun(ctx context.Context, run model.RunRecord) error
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus, failedStage string) error
	SaveStageProgress(ctx context.Context, rec model.StageRecord) error
	SaveRunError(ctx context.Context, runID, stageID string, err error) error
}

// tracker records one run. Recording failures are logged and never change
// the outcome of the run. Writes ignore cancellation of the run context so a
// cancelled run is still recorded as failed.
type tracker struct {
	recorder Recorder
	logger   *zap.Logger
	runID    string
	status   model.RunStatus
	stages   map[string]*model.StageRecord
}

func newTracker(recorder Recorder, logger *zap.Logger, runID string) *tracker {
	return &tracker{
		recorder: recorder,
		logger:   logger,
		runID:    runID,
		status:   model.RunPending,
		stages:   make(map[string]*model.StageRecord),
	}
}

// start registers the run and every stage as pending.
func (t *tracker) start(ctx context.Context, pipeline string, order []string, now time.Time) {
	if t.recorder != nil {
		t.warn("ensure run", t.recorder.EnsureRun(context.WithoutCancel(ctx), model.RunRecord{
			ID:        t.runID,
			Pipeline:  pipeline,
			Status:    model.RunPending,
			CreatedAt: now,
			UpdatedAt: now,
		}))
	}
	for i, id := range order {
		rec := &model.StageRecord{RunID: t.runID, StageID: id, Position: i, Status: model.StagePending}
		t.stages[id] = rec
		t.save(ctx, rec)
	}
}

// transition moves the run to a new status, refusing illegal moves.
func (t *tracker) transition(ctx context.Context, to model.RunStatus, failedStage string) bool {
	if !model.CanTransition(t.status, to) {
		t.logger.Error("illegal run transition",
			zap.String("run_id", t.runID),
			zap.String("from", string(t.status)),
			zap.String("to", string(to)))
		return false
	}
	t.status = to
	if t.recorder != nil {
		t.warn("update run status", t.recorder.UpdateRunStatus(context.WithoutCancel(ctx), t.runID, to, failedStage))
	}
	return true
}

func (t *tracker) stageStarted(ctx context.Context, id string, at time.Time) {
	rec := t.stages[id]
	rec.Status = model.StageRunning
	rec.StartedAt = &at
	t.save(ctx, rec)
}

func (t *tracker) stageFinished(ctx context.Context, id string, attempts int, at time.Time, err error) {
	rec := t.stages[id]
	rec.Attempts = attempts
	rec.EndedAt = &at
	if err != nil {
		rec.Status = model.StageFailed
		rec.Error = err.Error()
		if t.recorder != nil {
			t.warn("save run error", t.recorder.SaveRunError(context.WithoutCancel(ctx), t.runID, id, err))
		}
	} else {
		rec.Status = model.StageSucceeded
	}
	t.save(ctx, rec)
}

func (t *tracker) stageSkipped(ctx context.Context, id string) {
	rec := t.stages[id]
	rec.Status = model.StageSkipped
	t.save(ctx, rec)
}

func (t *tracker) record(id string) model.StageRecord {
	return *t.stages[id]
}

func (t *tracker) save(ctx context.Context, rec *model.StageRecord) {
	if t.recorder == nil {
		return
	}
	t.warn("save stage progress", t.recorder.SaveStageProgress(context.WithoutCancel(ctx), *rec))
}

func (t *tracker) warn(op string, err error) {
	if err != nil {
		t.logger.Warn("run tracking failed", zap.String("run_id", t.runID), zap.String("op", op), zap.Error(err))
	}
}
