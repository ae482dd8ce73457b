// Package ratelimit wraps an embedding service with a token bucket so that
// concurrent batches stay under the provider's request quota.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerSecond is the sustained rate limit. Zero or less disables limiting.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// EmbeddingService rate-limits calls to an underlying embedding service.
// A provider rate-limit response pauses every caller until its Retry-After
// period has passed.
type EmbeddingService struct {
	next    driven.EmbeddingService
	limiter *rate.Limiter

	mu      sync.Mutex
	retryAt time.Time
}

// New wraps next with the given limits.
func New(next driven.EmbeddingService, cfg Config) *EmbeddingService {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return &EmbeddingService{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Embed waits for a token and embeds a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	v, err := s.next.Embed(ctx, text)
	s.observe(err)
	return v, err
}

// EmbedBatch waits for a token and embeds a batch in one provider call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	v, err := s.next.EmbedBatch(ctx, texts)
	s.observe(err)
	return v, err
}

// Dimensions returns the wrapped service's vector size.
func (s *EmbeddingService) Dimensions() int { return s.next.Dimensions() }

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string { return s.next.ModelName() }

// Ping checks the wrapped service without consuming a token.
func (s *EmbeddingService) Ping(ctx context.Context) error { return s.next.Ping(ctx) }

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error { return s.next.Close() }

// wait blocks until any backoff period has passed and a token is available.
func (s *EmbeddingService) wait(ctx context.Context) error {
	s.mu.Lock()
	retryAt := s.retryAt
	s.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}

	return s.limiter.Wait(ctx)
}

// observe records a provider backoff request.
func (s *EmbeddingService) observe(err error) {
	var rle *domain.RateLimitError
	if !errors.As(err, &rle) || rle.RetryAfter <= 0 {
		return
	}
	until := time.Now().Add(rle.RetryAfter)

	s.mu.Lock()
	defer s.mu.Unlock()
	if until.After(s.retryAt) {
		s.retryAt = until
	}
}
