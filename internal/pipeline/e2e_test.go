package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-tennis-pipeline/internal/blob"
	"go-tennis-pipeline/internal/model"
	"go-tennis-pipeline/internal/schema"
	"go-tennis-pipeline/internal/warehouse"
)

const fixturePath = "testdata/atp_matches_fixture.csv"

type localEnv struct {
	wh    *warehouse.SQLite
	blobs *blob.Local
	dir   string
}

func newLocalEnv(t *testing.T) *localEnv {
	t.Helper()
	dir := t.TempDir()
	blobs, err := blob.NewLocal(filepath.Join(dir, "gcs"))
	require.NoError(t, err)
	wh, err := warehouse.OpenSQLite(filepath.Join(dir, "warehouse.db"), blobs)
	require.NoError(t, err)
	t.Cleanup(func() { wh.Close() })
	return &localEnv{wh: wh, blobs: blobs, dir: dir}
}

func (e *localEnv) definition(t *testing.T, p Params) *Definition {
	t.Helper()
	d, err := NewTennisDefinition(p, Collaborators{Warehouse: e.wh, Blob: e.blobs})
	require.NoError(t, err)
	return d
}

func TestEndToEndLocal(t *testing.T) {
	env := newLocalEnv(t)
	ctx := context.Background()

	res, err := NewRunner().Run(ctx, env.definition(t, testParams()), "e2e-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunSucceeded, res.Status)

	exists, err := env.wh.DatasetExists(ctx, "tennise_matches_example")
	require.NoError(t, err)
	assert.True(t, exists)

	info, err := env.wh.DescribeTable(ctx, "tennise_matches_example", "atp_2022")
	require.NoError(t, err)
	assert.Len(t, info.Schema, 49)
	assert.EqualValues(t, 3, info.NumRows)

	got, err := schema.FromBigQuery(info.Schema)
	require.NoError(t, err)
	assert.Empty(t, schema.ATPMatches.Diff(got))

	rows, err := env.wh.Rows(ctx, "tennise_matches_example", "atp_2022")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2022-8888", rows[0][0])
	assert.Equal(t, int64(20220103), rows[0][5])
	assert.Nil(t, rows[0][8], "empty winner_seed loads as NULL")
}

func TestEndToEndRerunReplacesRows(t *testing.T) {
	env := newLocalEnv(t)
	ctx := context.Background()
	d := env.definition(t, testParams())

	_, err := NewRunner().Run(ctx, d, "e2e-first")
	require.NoError(t, err)
	_, err = NewRunner().Run(ctx, d, "e2e-second")
	require.NoError(t, err)

	info, err := env.wh.DescribeTable(ctx, "tennise_matches_example", "atp_2022")
	require.NoError(t, err)
	assert.EqualValues(t, 3, info.NumRows)
}

func TestEndToEndShorterRerun(t *testing.T) {
	env := newLocalEnv(t)
	ctx := context.Background()

	_, err := NewRunner().Run(ctx, env.definition(t, testParams()), "e2e-full")
	require.NoError(t, err)

	raw, err := os.ReadFile(fixturePath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	short := filepath.Join(env.dir, "short.csv")
	require.NoError(t, os.WriteFile(short, []byte(strings.Join(lines[:2], "\n")+"\n"), 0644))

	p := testParams()
	p.SourcePath = short
	_, err = NewRunner().Run(ctx, env.definition(t, p), "e2e-short")
	require.NoError(t, err)

	info, err := env.wh.DescribeTable(ctx, "tennise_matches_example", "atp_2022")
	require.NoError(t, err)
	assert.EqualValues(t, 1, info.NumRows)
}

func TestEndToEndMissingSourceFailsAtUpload(t *testing.T) {
	env := newLocalEnv(t)
	p := testParams()
	p.SourcePath = filepath.Join(env.dir, "missing.csv")

	res, err := NewRunner().Run(context.Background(), env.definition(t, p), "e2e-missing")
	require.Error(t, err)
	assert.Equal(t, StageUpload, res.FailedStage)
	assert.Equal(t, model.StageSkipped, res.Stages[4].Status)

	// the table was created empty and never loaded
	info, err := env.wh.DescribeTable(context.Background(), "tennise_matches_example", "atp_2022")
	require.NoError(t, err)
	assert.EqualValues(t, 0, info.NumRows)
}

func TestEndToEndQualityCheck(t *testing.T) {
	env := newLocalEnv(t)
	p := testParams()
	p.QualityCheck = true
	p.MinRows = 3

	res, err := NewRunner().Run(context.Background(), env.definition(t, p), "e2e-quality")
	require.NoError(t, err)
	assert.Equal(t, model.StageSucceeded, stageStatuses(res)[StageQualityCheck])

	p.MinRows = 10
	res, err = NewRunner().Run(context.Background(), env.definition(t, p), "e2e-quality-fail")
	require.Error(t, err)
	assert.Equal(t, StageQualityCheck, res.FailedStage)
	assert.Contains(t, err.Error(), "row count below minimum")
}

func TestEndToEndCleanup(t *testing.T) {
	env := newLocalEnv(t)
	ctx := context.Background()
	p := testParams()
	p.Cleanup = true

	res, err := NewRunner().Run(ctx, env.definition(t, p), "e2e-cleanup")
	require.NoError(t, err)
	assert.Equal(t, model.StageSucceeded, stageStatuses(res)[StageDeleteDataset])

	exists, err := env.wh.DatasetExists(ctx, "tennise_matches_example")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = env.wh.DescribeTable(ctx, "tennise_matches_example", "atp_2022")
	assert.True(t, errors.Is(err, warehouse.ErrNotFound))
}
