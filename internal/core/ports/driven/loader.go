package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Loader extracts text from a file.
// Each loader handles one LoaderKind (e.g. PDF, Markdown).
type Loader interface {
	// Kind returns the loader family this loader implements.
	Kind() domain.LoaderKind

	// Load reads the file at path and returns its document.
	// Failures are returned as *domain.LoadError.
	Load(ctx context.Context, path string) (*domain.Document, error)
}

// LoaderRegistry selects a loader by file extension.
type LoaderRegistry interface {
	// Register adds a loader for its kind.
	Register(loader Loader)

	// ForPath returns the loader configured for the path's extension.
	// The boolean is false for unsupported extensions.
	ForPath(path string) (Loader, bool)

	// Supports reports whether the path's extension has a loader.
	Supports(path string) bool

	// Extensions returns the configured extensions in sorted order.
	Extensions() []string
}
