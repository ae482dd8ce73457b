package loadutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	data, info, err := ReadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, int64(5), info.Size())
}

func TestReadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, _, err := ReadFile(context.Background(), filepath.Join(dir, "missing.txt"))
		var loadErr *domain.LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Contains(t, loadErr.Path, "missing.txt")
	})

	t.Run("directory", func(t *testing.T) {
		_, _, err := ReadFile(context.Background(), dir)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := ReadFile(ctx, dir)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTitleFromPath(t *testing.T) {
	assert.Equal(t, "my document", TitleFromPath("/path/to/my_document.pdf"))
	assert.Equal(t, "release notes", TitleFromPath("release-notes.md"))
	assert.Equal(t, "README", TitleFromPath("README"))
}

func TestNormaliseText(t *testing.T) {
	assert.Equal(t, "a\nb", NormaliseText("\uFEFFa\r\nb"))
}
