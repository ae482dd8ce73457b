// Package loadutil holds helpers shared by the file loaders.
package loadutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// MaxFileSize bounds how much of a file a loader will read.
const MaxFileSize = 64 << 20

// Fail wraps err as a load failure for path.
func Fail(path string, err error) error {
	return &domain.LoadError{Path: path, Err: err}
}

// ReadFile reads a regular file, returning its bytes and file info.
// Errors are returned as *domain.LoadError.
func ReadFile(ctx context.Context, path string) ([]byte, os.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, Fail(path, err)
	}
	if info.IsDir() {
		return nil, nil, Fail(path, fmt.Errorf("%w: is a directory", domain.ErrInvalidInput))
	}
	if info.Size() > MaxFileSize {
		return nil, nil, Fail(path, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidInput, MaxFileSize))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, Fail(path, err)
	}
	return data, info, nil
}

// Stat returns file info as a load failure on error.
func Stat(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, Fail(path, err)
	}
	return info, nil
}

// NewDocument assembles a document for a loaded file.
func NewDocument(path, title, text string, info os.FileInfo, kind domain.LoaderKind) *domain.Document {
	src := domain.NewSourceMetadata(path, info.ModTime(), kind)
	return &domain.Document{
		Path:   path,
		Title:  title,
		Text:   text,
		Source: src,
	}
}

// TitleFromPath extracts a human-readable title from a file path.
func TitleFromPath(path string) string {
	filename := filepath.Base(path)

	ext := filepath.Ext(filename)
	if ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}

	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")

	return filename
}

// NormaliseText strips a UTF-8 byte order mark and converts CRLF line endings.
func NormaliseText(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	return strings.ReplaceAll(s, "\r\n", "\n")
}
