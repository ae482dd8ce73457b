package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Retry backoff defaults for failing embedding batches.
const (
	DefaultBackoffBase = 200 * time.Millisecond
	DefaultBackoffMax  = 5 * time.Second
)

// BatchEmbedder turns texts into vectors through an EmbeddingService,
// splitting work into bounded batches that run concurrently.
type BatchEmbedder struct {
	service     driven.EmbeddingService
	metrics     driven.Metrics
	batchSize   int
	concurrency int
	maxAttempts int
	dimensions  int
	backoffBase time.Duration
	backoffMax  time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// EmbedderOption configures a BatchEmbedder.
type EmbedderOption func(*BatchEmbedder)

// WithEmbedderMetrics records per-batch measurements.
func WithEmbedderMetrics(m driven.Metrics) EmbedderOption {
	return func(e *BatchEmbedder) {
		e.metrics = m
	}
}

// WithBackoff overrides the retry backoff base and cap.
func WithBackoff(base, maxDelay time.Duration) EmbedderOption {
	return func(e *BatchEmbedder) {
		e.backoffBase = base
		e.backoffMax = maxDelay
	}
}

// NewBatchEmbedder creates an embedder using the batching settings in cfg.
// Non-positive settings fall back to single-item, single-attempt behaviour.
func NewBatchEmbedder(service driven.EmbeddingService, cfg domain.EmbeddingSettings, opts ...EmbedderOption) *BatchEmbedder {
	e := &BatchEmbedder{
		service:     service,
		batchSize:   max(cfg.BatchSize, 1),
		concurrency: max(cfg.Concurrency, 1),
		maxAttempts: max(cfg.MaxAttempts, 1),
		dimensions:  cfg.Dimensions,
		backoffBase: DefaultBackoffBase,
		backoffMax:  DefaultBackoffMax,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dimensions <= 0 && service != nil {
		e.dimensions = service.Dimensions()
	}
	return e
}

// BatchSize returns the maximum number of texts per provider call.
func (e *BatchEmbedder) BatchSize() int {
	return e.batchSize
}

// Concurrency returns the maximum number of outstanding provider calls.
func (e *BatchEmbedder) Concurrency() int {
	return e.concurrency
}

// Embed returns one vector per text in input order.
// The first batch to fail after retries fails the call.
func (e *BatchEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.service == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		g.Go(func() error {
			vectors, attempts, err := e.embedBatch(gctx, texts[start:end])
			if err != nil {
				return batchError(nil, attempts, err)
			}
			copy(out[start:end], vectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return out, nil
}

// EmbedChunks embeds chunk texts and pairs them into index entries.
// Batches that fail after retries are skipped and reported; the entries of
// successful batches are returned in input order. The error is non-nil when
// no embedding service is configured, when ctx is cancelled, or when the
// provider returns vectors of the wrong size (*domain.ConfigError). In those
// cases no entries are returned.
func (e *BatchEmbedder) EmbedChunks(ctx context.Context, chunks []domain.Chunk) ([]domain.IndexEntry, []*domain.EmbedError, error) {
	if e.service == nil {
		return nil, nil, domain.ErrEmbeddingUnavailable
	}
	if len(chunks) == 0 {
		return nil, nil, nil
	}

	numBatches := (len(chunks) + e.batchSize - 1) / e.batchSize
	vectors := make([][][]float32, numBatches)
	failures := make([]*domain.EmbedError, numBatches)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for b := 0; b < numBatches; b++ {
		start := b * e.batchSize
		end := min(start+e.batchSize, len(chunks))
		batch := chunks[start:end]

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			texts := make([]string, len(batch))
			for i := range batch {
				texts[i] = batch[i].Text
			}
			vecs, attempts, err := e.embedBatch(gctx, texts)
			if err != nil {
				var cfgErr *domain.ConfigError
				if errors.As(err, &cfgErr) {
					return err
				}
				if gctx.Err() == nil {
					failures[b] = batchError(batch, attempts, err)
					logger.Warn("Embedding batch %d/%d failed: %v", b+1, numBatches, err)
				}
				return nil
			}
			vectors[b] = vecs
			logger.Debug("Embedded batch %d/%d (%d chunks)", b+1, numBatches, len(batch))
			return nil
		})
	}
	waitErr := g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if waitErr != nil {
		return nil, nil, waitErr
	}

	entries := make([]domain.IndexEntry, 0, len(chunks))
	var failed []*domain.EmbedError
	for b := 0; b < numBatches; b++ {
		if failures[b] != nil {
			failed = append(failed, failures[b])
			continue
		}
		start := b * e.batchSize
		end := min(start+e.batchSize, len(chunks))
		entries = append(entries, domain.EntriesFromChunks(chunks[start:end], vectors[b])...)
	}
	return entries, failed, nil
}

// embedBatch calls the provider with retries and validates the result.
func (e *BatchEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, int, error) {
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		began := time.Now()
		vectors, err := e.service.EmbedBatch(ctx, texts)
		if err == nil {
			err = e.validate(texts, vectors)
			if err == nil {
				e.record(len(texts), attempt, began, nil)
				return vectors, attempt, nil
			}
			e.record(len(texts), attempt, began, err)
			return nil, attempt, err
		}
		e.record(len(texts), attempt, began, err)
		lastErr = err

		if ctx.Err() != nil || !retryable(err) || attempt == e.maxAttempts {
			return nil, attempt, lastErr
		}

		delay := e.backoff(attempt)
		var rle *domain.RateLimitError
		if errors.As(err, &rle) && rle.RetryAfter > delay {
			delay = rle.RetryAfter
		}
		logger.Debug("Embedding attempt %d/%d failed, retrying in %s: %v", attempt, e.maxAttempts, delay, err)
		if err := e.sleep(ctx, delay); err != nil {
			return nil, attempt, err
		}
	}
	return nil, e.maxAttempts, lastErr
}

func (e *BatchEmbedder) validate(texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("provider returned %d vectors for %d texts", len(vectors), len(texts))
	}
	if e.dimensions <= 0 {
		return nil
	}
	for _, v := range vectors {
		if len(v) != e.dimensions {
			return &domain.ConfigError{
				Field:    "dimensions",
				Stored:   fmt.Sprint(e.dimensions),
				Current:  fmt.Sprint(len(v)),
				Provider: true,
			}
		}
	}
	return nil
}

// backoff returns the delay before the retry following attempt.
func (e *BatchEmbedder) backoff(attempt int) time.Duration {
	d := e.backoffBase
	for i := 1; i < attempt && d < e.backoffMax; i++ {
		d *= 2
	}
	return min(d, e.backoffMax)
}

func (e *BatchEmbedder) record(size, attempt int, began time.Time, err error) {
	if e.metrics != nil {
		e.metrics.EmbedBatch(size, attempt, time.Since(began), err)
	}
}

func retryable(err error) bool {
	var cfgErr *domain.ConfigError
	if errors.As(err, &cfgErr) {
		return false
	}
	return !errors.Is(err, domain.ErrInvalidInput) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

func batchError(batch []domain.Chunk, attempts int, err error) *domain.EmbedError {
	ids := make([]string, len(batch))
	for i := range batch {
		ids[i] = batch[i].ID
	}
	return &domain.EmbedError{ChunkIDs: ids, Attempts: attempts, Err: err}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
