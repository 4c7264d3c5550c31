package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"go-tennis-pipeline/internal/config"
	"go-tennis-pipeline/internal/model"
	"go-tennis-pipeline/internal/pipeline"
)

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg, err := config.Load(config.New(), "")
	require.NoError(t, err)
	cfg.Backend = config.BackendLocal
	cfg.GCP.Bucket = "tennis-bucket"
	cfg.Local.BlobRoot = filepath.Join(dir, "gcs")
	cfg.Local.WarehousePath = filepath.Join(dir, "warehouse.db")
	cfg.Store.Path = filepath.Join(dir, "pipeline.db")
	cfg.Pipeline.SourcePath = fixture(t)
	return cfg
}

func fixture(t *testing.T) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "pipeline", "testdata", "atp_matches_fixture.csv"))
	require.NoError(t, err)
	return path
}

func TestRunLocalBackend(t *testing.T) {
	cfg := localConfig(t)
	a, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close()

	res, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.RunSucceeded, res.Status)

	run, err := a.Store().GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunSucceeded, run.Status)
	assert.Equal(t, pipeline.DefaultName, run.Pipeline)
	require.Len(t, run.Stages, 6)
	for _, s := range run.Stages {
		assert.Equal(t, model.StageSucceeded, s.Status, s.StageID)
	}
}

func TestRunRecordsFailure(t *testing.T) {
	cfg := localConfig(t)
	cfg.Pipeline.SourcePath = filepath.Join(t.TempDir(), "missing.csv")
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	res, err := a.Run(context.Background())
	require.Error(t, err)

	run, err := a.Store().GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, run.Status)
	assert.Equal(t, pipeline.StageUpload, run.FailedStage)

	errs, err := a.Store().GetRunErrors(context.Background(), res.RunID)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, pipeline.StageUpload, errs[0].StageID)
}

func TestSubmitRetry(t *testing.T) {
	cfg := localConfig(t)
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	first, err := a.Submit(context.Background(), "")
	require.NoError(t, err)
	second, err := a.Submit(context.Background(), first.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	run, err := a.Store().GetRun(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, run.RetryOf)
	assert.Equal(t, model.RunPending, run.Status)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := localConfig(t)
	cfg.Backend = config.BackendGCP
	cfg.GCP.ProjectID = ""

	_, err := New(context.Background(), cfg, nil)
	var ce *model.ConfigurationError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, "gcp.project_id", ce.Field)
}

func TestDescribe(t *testing.T) {
	a, err := New(context.Background(), localConfig(t), nil)
	require.NoError(t, err)
	defer a.Close()

	desc := a.Describe()
	assert.Equal(t, []string{
		pipeline.StageBegin, pipeline.StageCreateDataset, pipeline.StageCreateTable,
		pipeline.StageUpload, pipeline.StageLoad, pipeline.StageEnd,
	}, desc.Order)
	assert.Len(t, desc.Columns, 49)
}
