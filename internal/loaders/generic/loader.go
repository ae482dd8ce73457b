// Package generic loads allowed files that have no dedicated loader.
// Content is sniffed and accepted only when it is text.
package generic

import (
	"bytes"
	"context"
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/loaders/loadutil"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles unrecognised-but-allowed text formats such as R scripts.
type Loader struct{}

// New creates a new generic loader.
func New() *Loader {
	return &Loader{}
}

// Kind returns the loader family.
func (l *Loader) Kind() domain.LoaderKind {
	return domain.LoaderGeneric
}

// Load reads the file and returns its text if the content sniffs as text.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Document, error) {
	data, info, err := loadutil.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	if len(data) > 0 && !isText(data) {
		mt := mimetype.Detect(data)
		return nil, loadutil.Fail(path, fmt.Errorf("%w: detected %s", domain.ErrUnsupportedType, mt.String()))
	}

	data = bytes.ReplaceAll(data, []byte{0}, nil)
	return loadutil.NewDocument(path, loadutil.TitleFromPath(path), loadutil.NormaliseText(string(data)), info, domain.LoaderGeneric), nil
}

// isText reports whether the sniffed type is text/plain or a descendant of it.
func isText(data []byte) bool {
	for mt := mimetype.Detect(data); mt != nil; mt = mt.Parent() {
		if mt.Is("text/plain") {
			return true
		}
	}
	return false
}
