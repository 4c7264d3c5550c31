package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"go-tennis-pipeline/internal/api/handler"
	"go-tennis-pipeline/internal/app"
	"go-tennis-pipeline/internal/config"
	"go-tennis-pipeline/internal/model"
	"go-tennis-pipeline/internal/pipeline"
	"go-tennis-pipeline/pkg/router"
)

type testServer struct {
	srv *httptest.Server
	h   *handler.Handler
}

func newTestServer(t *testing.T, source string) *testServer {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Load(config.New(), "")
	require.NoError(t, err)
	cfg.Backend = config.BackendLocal
	cfg.GCP.Bucket = "tennis-bucket"
	cfg.Local.BlobRoot = filepath.Join(dir, "gcs")
	cfg.Local.WarehousePath = filepath.Join(dir, "warehouse.db")
	cfg.Store.Path = filepath.Join(dir, "pipeline.db")
	cfg.Pipeline.SourcePath = source

	logger := zaptest.NewLogger(t)
	a, err := app.New(context.Background(), cfg, logger)
	require.NoError(t, err)

	h := handler.New(context.Background(), a, a.Store(), logger)
	r := router.New(logger)
	RegisterRoutes(r, h)
	srv := httptest.NewServer(r.Handler())

	t.Cleanup(func() {
		srv.Close()
		h.Wait()
		a.Close()
	})
	return &testServer{srv: srv, h: h}
}

func fixture(t *testing.T) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "pipeline", "testdata", "atp_matches_fixture.csv"))
	require.NoError(t, err)
	return path
}

func (s *testServer) do(t *testing.T, method, path string, out interface{}) int {
	t.Helper()
	req, err := http.NewRequest(method, s.srv.URL+path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestCreateAndGetRun(t *testing.T) {
	s := newTestServer(t, fixture(t))

	var submitted handler.SubmitResponse
	require.Equal(t, http.StatusAccepted, s.do(t, http.MethodPost, "/api/v1/runs", &submitted))
	require.NotEmpty(t, submitted.RunID)
	assert.Equal(t, model.RunPending, submitted.Status)

	s.h.Wait()

	var run model.RunRecord
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/runs/"+submitted.RunID, &run))
	assert.Equal(t, model.RunSucceeded, run.Status)
	require.Len(t, run.Stages, 6)
	assert.Equal(t, pipeline.StageLoad, run.Stages[4].StageID)
	assert.Equal(t, model.StageSucceeded, run.Stages[4].Status)

	var runs []model.RunRecord
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/runs", &runs))
	assert.Len(t, runs, 1)

	var errs []model.ErrorRecord
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/runs/"+submitted.RunID+"/errors", &errs))
	assert.Empty(t, errs)
}

func TestFailedRunAndRetry(t *testing.T) {
	s := newTestServer(t, filepath.Join(t.TempDir(), "missing.csv"))

	var submitted handler.SubmitResponse
	require.Equal(t, http.StatusAccepted, s.do(t, http.MethodPost, "/api/v1/runs", &submitted))
	s.h.Wait()

	var run model.RunRecord
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/runs/"+submitted.RunID, &run))
	assert.Equal(t, model.RunFailed, run.Status)
	assert.Equal(t, pipeline.StageUpload, run.FailedStage)

	var errs []model.ErrorRecord
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/runs/"+submitted.RunID+"/errors", &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, pipeline.StageUpload, errs[0].StageID)

	var retried handler.SubmitResponse
	require.Equal(t, http.StatusAccepted, s.do(t, http.MethodPost, "/api/v1/runs/"+submitted.RunID+"/retry", &retried))
	assert.Equal(t, submitted.RunID, retried.RetryOf)
	assert.NotEqual(t, submitted.RunID, retried.RunID)
	s.h.Wait()

	var retryRun model.RunRecord
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/runs/"+retried.RunID, &retryRun))
	assert.Equal(t, submitted.RunID, retryRun.RetryOf)
}

func TestUnknownRun(t *testing.T) {
	s := newTestServer(t, fixture(t))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/runs/nope", nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/runs/nope/errors", nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/v1/runs/nope/retry", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, s.do(t, http.MethodDelete, "/api/v1/runs", nil))
}

func TestDescribePipeline(t *testing.T) {
	s := newTestServer(t, fixture(t))

	var desc model.PipelineDescription
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/pipeline", &desc))
	assert.Equal(t, pipeline.DefaultName, desc.Name)
	assert.Equal(t, []string{
		pipeline.StageBegin, pipeline.StageCreateDataset, pipeline.StageCreateTable,
		pipeline.StageUpload, pipeline.StageLoad, pipeline.StageEnd,
	}, desc.Order)
	assert.Len(t, desc.Columns, 49)
}

func TestSwaggerDoc(t *testing.T) {
	s := newTestServer(t, fixture(t))

	var doc map[string]interface{}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/swagger/doc.json", &doc))
	assert.Equal(t, "2.0", doc["swagger"])
	paths, ok := doc["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/runs/{id}/retry")
}
