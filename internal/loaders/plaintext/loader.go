// Package plaintext loads text and source code files verbatim.
package plaintext

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/loaders/loadutil"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles plain text and source code files.
type Loader struct {
	kind domain.LoaderKind
}

// New creates a new plain text loader.
func New() *Loader {
	return &Loader{kind: domain.LoaderPlainText}
}

// NewCode creates a loader for source code files.
// Code is indexed verbatim; the title keeps the file extension.
func NewCode() *Loader {
	return &Loader{kind: domain.LoaderCode}
}

// Kind returns the loader family.
func (l *Loader) Kind() domain.LoaderKind {
	return l.kind
}

// Load reads the file and returns its text.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Document, error) {
	data, info, err := loadutil.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, loadutil.Fail(path, fmt.Errorf("%w: not valid UTF-8 text", domain.ErrUnsupportedType))
	}

	title := loadutil.TitleFromPath(path)
	if l.kind == domain.LoaderCode {
		title = info.Name()
	}

	return loadutil.NewDocument(path, title, loadutil.NormaliseText(string(data)), info, l.kind), nil
}
