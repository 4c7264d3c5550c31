package pipeline

import (
	"context"
	"io"
	"sync"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/mock"

	"go-tennis-pipeline/internal/model"
	"go-tennis-pipeline/internal/warehouse"
)

type mockWarehouse struct {
	mock.Mock
}

func (m *mockWarehouse) EnsureDataset(ctx context.Context, dataset string) error {
	return m.Called(ctx, dataset).Error(0)
}

func (m *mockWarehouse) EnsureTable(ctx context.Context, dataset, table string, schema bigquery.Schema) error {
	return m.Called(ctx, dataset, table, schema).Error(0)
}

func (m *mockWarehouse) LoadCSV(ctx context.Context, req warehouse.LoadRequest) (warehouse.LoadResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(warehouse.LoadResult), args.Error(1)
}

func (m *mockWarehouse) DescribeTable(ctx context.Context, dataset, table string) (warehouse.TableInfo, error) {
	args := m.Called(ctx, dataset, table)
	return args.Get(0).(warehouse.TableInfo), args.Error(1)
}

func (m *mockWarehouse) DeleteDataset(ctx context.Context, dataset string, deleteContents bool) error {
	return m.Called(ctx, dataset, deleteContents).Error(0)
}

type mockBlob struct {
	mock.Mock
}

func (m *mockBlob) Upload(ctx context.Context, localPath, bucket, object string) error {
	return m.Called(ctx, localPath, bucket, object).Error(0)
}

func (m *mockBlob) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, object)
	if rc := args.Get(0); rc != nil {
		return rc.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

// memoryRecorder keeps every call in order.
type memoryRecorder struct {
	mu       sync.Mutex
	runs     map[string]model.RunRecord
	statuses []model.RunStatus
	stages   map[string]model.StageRecord
	errors   []string
}

func newMemoryRecorder() *memoryRecorder {
	return &memoryRecorder{
		runs:   make(map[string]model.RunRecord),
		stages: make(map[string]model.StageRecord),
	}
}

func (r *memoryRecorder) EnsureRun(_ context.Context, run model.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[run.ID]; !ok {
		r.runs[run.ID] = run
		r.statuses = append(r.statuses, run.Status)
	}
	return nil
}

func (r *memoryRecorder) UpdateRunStatus(_ context.Context, runID string, status model.RunStatus, failedStage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run := r.runs[runID]
	run.Status = status
	run.FailedStage = failedStage
	r.runs[runID] = run
	r.statuses = append(r.statuses, status)
	return nil
}

func (r *memoryRecorder) SaveStageProgress(_ context.Context, rec model.StageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[rec.StageID] = rec
	return nil
}

func (r *memoryRecorder) SaveRunError(_ context.Context, _, stageID string, _ error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, stageID)
	return nil
}
