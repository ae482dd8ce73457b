package driven

import "context"

// EmbeddingService turns text into vectors. VectorIndex stores them.
//
// The model name and dimensions form the identity recorded by the index;
// vectors from a different identity are never mixed into it. Adapters
// report provider throttling as *domain.RateLimitError so the batch
// embedder can honour the requested backoff.
type EmbeddingService interface {
	// Embed returns the vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts in one provider call. The result is
	// order-aligned with texts and every vector has Dimensions() entries.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions() int
	ModelName() string

	// Ping checks reachability and credentials.
	Ping(ctx context.Context) error

	Close() error
}
