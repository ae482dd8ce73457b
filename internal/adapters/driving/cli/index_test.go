package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestIndexCmd_Use(t *testing.T) {
	assert.Equal(t, "index [path...]", indexCmd.Use)
	require.NotNil(t, indexCmd.Flags().Lookup("remove"))
}

func TestIndexCmd_DefaultRoots(t *testing.T) {
	ta := setupTestApp(t)
	ta.ingest.summary = &domain.RunSummary{Documents: 3, Chunks: 12, Skipped: 1, Pruned: 2}

	out, err := execute(t, "index")

	require.NoError(t, err)
	assert.Equal(t, []string{"all:/docs"}, ta.ingest.calls)
	assert.Equal(t, domain.DefaultSkipRules(), ta.ingest.rulesArg)
	assert.Contains(t, out, "Indexed 3 documents (12 chunks), 1 skipped, 2 pruned")
	assert.Equal(t, 1, ta.closed)
}

func TestIndexCmd_PathArguments(t *testing.T) {
	ta := setupTestApp(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(file, []byte("hello"), 0644))

	_, err := execute(t, "index", dir, file)

	require.NoError(t, err)
	assert.Equal(t, []string{"all:" + dir, "one:" + file}, ta.ingest.calls)
}

func TestIndexCmd_MissingPath(t *testing.T) {
	setupTestApp(t)

	_, err := execute(t, "index", filepath.Join(t.TempDir(), "nope"))

	assert.Error(t, err)
}

func TestIndexCmd_ReportsFailures(t *testing.T) {
	ta := setupTestApp(t)
	ta.ingest.summary = &domain.RunSummary{
		Documents:     1,
		FailedBatches: 2,
		FailedChunks:  7,
		Failures:      []domain.FileFailure{{Path: "/docs/bad.pdf", Err: errors.New("corrupt")}},
	}

	out, err := execute(t, "index")

	require.NoError(t, err)
	assert.Contains(t, out, "2 embedding batches failed (7 chunks not indexed)")
	assert.Contains(t, out, "failed: /docs/bad.pdf: corrupt")
}

func TestIndexCmd_RunError(t *testing.T) {
	ta := setupTestApp(t)
	ta.ingest.err = domain.ErrIndexInProgress

	out, err := execute(t, "index")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexInProgress)
	assert.Contains(t, out, "Indexed 0 documents")
}

func TestIndexCmd_Remove(t *testing.T) {
	ta := setupTestApp(t)
	ta.ingest.removed = 4
	path, err := filepath.Abs("gone.txt")
	require.NoError(t, err)

	out, err := execute(t, "index", "--remove", "gone.txt")

	require.NoError(t, err)
	assert.Equal(t, []string{"remove:" + path}, ta.ingest.calls)
	assert.Contains(t, out, "Removed 4 entries")
}

func TestIndexCmd_RemoveNeedsPath(t *testing.T) {
	setupTestApp(t)

	_, err := execute(t, "index", "--remove")

	assert.Error(t, err)
}

func TestIndexCmd_NotConfigured(t *testing.T) {
	setupTestApp(t)
	SetAppFactory(nil)

	_, err := execute(t, "index")

	assert.ErrorIs(t, err, errNotConfigured)
}

func TestPrintSummary_Cancelled(t *testing.T) {
	ta := setupTestApp(t)
	ta.ingest.summary = &domain.RunSummary{Cancelled: true, Duration: time.Second}

	out, err := execute(t, "index")

	require.NoError(t, err)
	assert.Contains(t, out, "Run cancelled")
}
