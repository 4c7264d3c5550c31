package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-tennis-pipeline/internal/model"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func localConfig(t *testing.T) string {
	t.Helper()
	source, err := filepath.Abs(filepath.Join("..", "..", "internal", "pipeline", "testdata", "atp_matches_fixture.csv"))
	require.NoError(t, err)

	dir := t.TempDir()
	chdir(t, dir)
	file := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
backend: local
gcp:
  bucket: tennis-bucket
pipeline:
  source_path: `+source+`
log:
  level: error
`), 0644))
	return file
}

func TestRunPrintsResult(t *testing.T) {
	file := localConfig(t)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", file, "run"})
	require.NoError(t, cmd.Execute())

	var res struct {
		Status model.RunStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, model.RunSucceeded, res.Status)
}

func TestRunReportsUnwritableResult(t *testing.T) {
	file := localConfig(t)

	cmd := newRootCmd()
	cmd.SetOut(failingWriter{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", file, "run"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write run result")
	assert.Contains(t, err.Error(), "broken pipe")
}
