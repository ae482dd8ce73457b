package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file extension with no configured loader.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrNoContext indicates retrieval found no relevant passages.
	ErrNoContext = errors.New("no relevant context found")

	// ErrRateLimited indicates the provider rejected a request for rate reasons.
	ErrRateLimited = errors.New("rate limited")

	// ErrIndexInProgress indicates a full ingestion run is already active.
	ErrIndexInProgress = errors.New("indexing in progress")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrWatcherStopped indicates the change watcher has been shut down.
	ErrWatcherStopped = errors.New("watcher stopped")
)

// LoadError reports an unreadable or unparseable file.
// It is non-fatal to an ingestion run.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// EmbedError reports an embedding batch that failed after retries.
// ChunkIDs identifies the skipped chunks.
type EmbedError struct {
	ChunkIDs []string
	Attempts int
	Err      error
}

func (e *EmbedError) Error() string {
	return fmt.Sprintf("embed batch of %d chunks failed after %d attempts: %v",
		len(e.ChunkIDs), e.Attempts, e.Err)
}

func (e *EmbedError) Unwrap() error { return e.Err }

// IndexError reports a persistence or storage failure.
// It is fatal to the current operation.
type IndexError struct {
	Op  string
	Err error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %s: %v", e.Op, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

// GenerationError reports a failure of the answering model.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate answer: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ConfigError reports a mismatch between the stored index and the current
// embedding configuration. It is fatal at startup.
//
// When Provider is set the mismatch was observed in a provider response:
// Stored holds the configured value and Current the value the provider
// actually returned.
type ConfigError struct {
	Field    string
	Stored   string
	Current  string
	Provider bool
}

func (e *ConfigError) Error() string {
	if e.Provider {
		return fmt.Sprintf("embedding %s mismatch: provider returned %q, configured %q (check the embedding model settings)",
			e.Field, e.Current, e.Stored)
	}
	return fmt.Sprintf("embedding %s mismatch: index built with %q, configured %q (rebuild the index or restore the setting)",
		e.Field, e.Stored, e.Current)
}

// RateLimitError carries a provider's requested backoff.
// It matches ErrRateLimited with errors.Is.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	var b strings.Builder
	b.WriteString("rate limited")
	if e.RetryAfter > 0 {
		fmt.Fprintf(&b, " (retry after %s)", e.RetryAfter)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}
