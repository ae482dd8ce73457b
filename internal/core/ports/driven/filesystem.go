package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// FileWalker enumerates regular files beneath a root directory.
type FileWalker interface {
	// Walk returns absolute paths of files under root not excluded by rules,
	// in lexical order. It returns ctx.Err() if cancelled.
	Walk(ctx context.Context, root string, rules domain.SkipRules) ([]string, error)
}

// FileWatcher streams filesystem changes beneath a set of roots.
type FileWatcher interface {
	// Watch starts watching roots recursively. The returned channel is closed
	// when ctx is cancelled or Close is called.
	Watch(ctx context.Context, roots []string, rules domain.SkipRules) (<-chan domain.FileEvent, error)

	// Close stops watching and releases resources.
	Close() error
}
