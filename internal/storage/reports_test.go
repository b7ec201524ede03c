package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestWriteDetailSuccess(t *testing.T) {
	rs := NewReportStorage(t.TempDir())

	path, err := rs.WriteDetail(Detail{
		Project:  "frontend",
		Success:  true,
		Duration: 1500 * time.Millisecond,
		Stages: []StageLine{
			{Name: "build", Status: "SUCCESS", Duration: time.Second, OutputBytes: 2048},
			{Name: "test", Status: "SKIPPED"},
		},
		Output: "built ok",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rs.BaseDir, "details", "frontend_report.md"), path)

	got := read(t, path)
	assert.Contains(t, got, "# Project: frontend\n")
	assert.Contains(t, got, "## Status: SUCCESS\n")
	assert.Contains(t, got, "**Duration:** 1.5s\n")
	assert.Contains(t, got, "- build: SUCCESS (1s, 2.0 kB output)\n")
	assert.Contains(t, got, "- test: SKIPPED\n")
	assert.Contains(t, got, "### Output\n```\nbuilt ok\n```\n")
	assert.NotContains(t, got, "### Error")
	assert.NotContains(t, got, "### Deploy")
	assert.NotContains(t, got, "**Failed Stage:**")
}

func TestWriteDetailFailureWithDeploy(t *testing.T) {
	rs := NewReportStorage(t.TempDir())

	path, err := rs.WriteDetail(Detail{
		Project:     "worker",
		FailedStage: "deploy",
		Error:       "boom",
		Deploy: &DeployInfo{
			Environment: "staging",
			DeployID:    "dep-1",
			FinalStatus: "build_failed",
			Error:       "deploy dep-1 ended with status build_failed",
		},
	})
	require.NoError(t, err)

	got := read(t, path)
	assert.Contains(t, got, "## Status: FAILURE\n")
	assert.Contains(t, got, "**Failed Stage:** deploy\n")
	assert.Contains(t, got, "### Error\n```\nboom\n```\n")
	assert.Contains(t, got, "### Deploy\n- Environment: staging\n- Status: FAILURE\n- Deploy ID: dep-1\n- Final Status: build_failed\n")
}

func TestWriteDetailOverwrites(t *testing.T) {
	rs := NewReportStorage(t.TempDir())

	_, err := rs.WriteDetail(Detail{Project: "api", Output: "first run with a long log"})
	require.NoError(t, err)
	path, err := rs.WriteDetail(Detail{Project: "api", Success: true, Output: "second"})
	require.NoError(t, err)

	got := read(t, path)
	assert.Contains(t, got, "## Status: SUCCESS")
	assert.NotContains(t, got, "first run")
}

func TestWriteSummary(t *testing.T) {
	rs := NewReportStorage(t.TempDir())
	ts := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

	path, err := rs.WriteSummary(Summary{
		RunID:     "run-1",
		Timestamp: ts,
		Lines:     []string{"- **api**: Tests FAILED"},
		Projects:  []string{"frontend", "api"},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(rs.BaseDir, "summary.md"), path)

	want := "# MAMOS Test Summary - 2026-10-15 09:30:00\n\n" +
		"**Run ID:** run-1\n\n" +
		"## Overall Status: FAILURE\n\n" +
		"### Project Statuses:\n" +
		"- **api**: Tests FAILED\n" +
		"\n### Detailed Reports:\n" +
		"- [frontend Report](details/frontend_report.md)\n" +
		"- [api Report](details/api_report.md)\n"
	assert.Equal(t, want, read(t, path))
}

func TestDetailNameSanitizes(t *testing.T) {
	assert.Equal(t, "api-gw_report.md", DetailName("api-gw"))
	assert.Equal(t, "a_b_report.md", DetailName("a/b"))
	assert.Equal(t, "project_report.md", DetailName(""))
}
