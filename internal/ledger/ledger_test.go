package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mamos/internal/security"
)

// writeReport creates a report file to be recorded.
func writeReport(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newRecorder(t *testing.T) (*Recorder, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.jsonl")
	l, err := Open(path)
	require.NoError(t, err)
	pub, priv, err := security.GenerateKeyPair()
	require.NoError(t, err)
	return NewRecorder(l, pub, priv), path
}

func TestNewEntryHash(t *testing.T) {
	e, err := NewEntry(0, "run-1", "api", "detail", "reports/details/api_report.md", "abc", "")
	require.NoError(t, err)

	h, err := e.ComputeHash()
	require.NoError(t, err)
	assert.Equal(t, h, e.Hash)
}

func TestRecordAndVerify(t *testing.T) {
	rec, _ := newRecorder(t)
	dir := t.TempDir()

	_, err := rec.Record("run-1", "api", "detail", writeReport(t, dir, "api_report.md", "# Project: api"))
	require.NoError(t, err)
	e2, err := rec.Record("run-1", "", "summary", writeReport(t, dir, "summary.md", "# Summary"))
	require.NoError(t, err)

	assert.Equal(t, 1, e2.Index)
	assert.Equal(t, rec.Ledger.Entries()[0].Hash, e2.PrevHash)
	require.NoError(t, rec.Ledger.VerifyChain())
	require.NoError(t, rec.Ledger.VerifyReports())
}

func TestTamperedEntryDetected(t *testing.T) {
	rec, _ := newRecorder(t)
	dir := t.TempDir()

	_, err := rec.Record("run-1", "api", "detail", writeReport(t, dir, "api_report.md", "ok"))
	require.NoError(t, err)

	rec.Ledger.Entries()[0].ReportHash = "fakehash"
	assert.Error(t, rec.Ledger.VerifyChain())
}

func TestEditedReportDetected(t *testing.T) {
	rec, _ := newRecorder(t)
	path := writeReport(t, t.TempDir(), "api_report.md", "## Status: FAILURE")

	_, err := rec.Record("run-1", "api", "detail", path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("## Status: SUCCESS"), 0o644))

	assert.NoError(t, rec.Ledger.VerifyChain())
	assert.Error(t, rec.Ledger.VerifyReports())
}

func TestRerunOnlyChecksLatestEntry(t *testing.T) {
	rec, _ := newRecorder(t)
	path := writeReport(t, t.TempDir(), "api_report.md", "first")

	_, err := rec.Record("run-1", "api", "detail", path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("second"), 0o644))
	_, err = rec.Record("run-2", "api", "detail", path)
	require.NoError(t, err)

	assert.NoError(t, rec.Ledger.VerifyReports())
}

func TestLedgerPersistence(t *testing.T) {
	rec, path := newRecorder(t)
	_, err := rec.Record("run-1", "api", "detail", writeReport(t, t.TempDir(), "r.md", "persisted"))
	require.NoError(t, err)

	reopened, err := Open(path)
	require.NoError(t, err)
	require.Len(t, reopened.Entries(), 1)
	assert.NoError(t, reopened.VerifyChain())
}

func TestAppendRejectsBrokenLink(t *testing.T) {
	rec, _ := newRecorder(t)
	_, err := rec.Record("run-1", "api", "detail", writeReport(t, t.TempDir(), "r.md", "x"))
	require.NoError(t, err)

	e, err := NewEntry(1, "run-1", "api", "detail", "r.md", "h", "not-the-last-hash")
	require.NoError(t, err)
	assert.Error(t, rec.Ledger.Append(e, rec.Priv, rec.Pub))
}
