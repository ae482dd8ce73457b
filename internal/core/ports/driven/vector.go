package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// VectorIndex is the persistent store of index entries.
//
// Implementations must give every Retrieve a consistent snapshot: an entry
// becomes visible only after it has been durably accepted, and a concurrent
// Upsert is never observed half-applied.
type VectorIndex interface {
	// Upsert inserts or replaces entries keyed by ChunkID.
	// Zero entries is a no-op. Vectors must match Identity().Dimensions.
	Upsert(ctx context.Context, entries []domain.IndexEntry) error

	// Retrieve returns up to k entries by descending cosine similarity.
	// Ties are broken by upsert recency, most recent first.
	Retrieve(ctx context.Context, query []float32, k int) ([]domain.RetrievedEntry, error)

	// Persist makes prior upserts durable. Safe to call repeatedly.
	Persist(ctx context.Context) error

	// DeleteSource removes every entry whose source path matches.
	DeleteSource(ctx context.Context, path string) (int, error)

	// PruneSource removes entries for path whose sequence index is >= keep.
	PruneSource(ctx context.Context, path string, keep int) (int, error)

	// Count returns the number of live entries.
	Count(ctx context.Context) (int, error)

	// Identity returns the embedding identity the index was built with.
	Identity() domain.IndexIdentity

	// Close releases resources.
	Close() error
}
