package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/chunker"
)

// ChunkerName is the registry key of the chunking processor.
const ChunkerName = "chunker"

// DefaultProcessors is the ingestion pipeline order.
var DefaultProcessors = []string{ChunkerName}

// NewDefaultRegistry returns a registry holding the built-in processors.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(ChunkerName, buildChunker)
	return r
}

// NewDefaultPipeline builds the ingestion pipeline from chunker settings.
func NewDefaultPipeline(cfg domain.ChunkerSettings) (*Pipeline, error) {
	return NewDefaultRegistry().Pipeline(cfg, DefaultProcessors...)
}

// buildChunker rejects settings the chunker would otherwise clamp, so a
// misconfigured overlap fails at startup instead of silently changing.
func buildChunker(cfg domain.ChunkerSettings) (driven.PostProcessor, error) {
	if cfg.ChunkSize <= 0 {
		return chunker.New(), nil
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", domain.ErrInvalidInput, cfg.Overlap, cfg.ChunkSize)
	}
	return chunker.New(chunker.WithChunkSize(cfg.ChunkSize), chunker.WithOverlap(cfg.Overlap)), nil
}
