package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// IngestionCoordinator turns a document tree into index entries.
type IngestionCoordinator interface {
	// IndexAll walks each root and indexes every supported file.
	// A summary is returned even when the run fails or is cancelled.
	IndexAll(ctx context.Context, roots []string, rules domain.SkipRules) (*domain.RunSummary, error)

	// IndexOne re-indexes a single file, replacing its previous entries.
	IndexOne(ctx context.Context, path string) (*domain.RunSummary, error)

	// Remove deletes every entry derived from path.
	Remove(ctx context.Context, path string) (int, error)

	// Status returns the progress of the current run.
	Status() domain.IngestStatus

	// EntryCount returns the number of entries in the index.
	EntryCount(ctx context.Context) (int, error)
}
