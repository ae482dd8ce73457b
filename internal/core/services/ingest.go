package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure IngestionCoordinator implements the interface.
var _ driving.IngestionCoordinator = (*IngestionCoordinator)(nil)

// IngestionCoordinator drives files through load, chunk, embed and upsert.
type IngestionCoordinator struct {
	walker   driven.FileWalker
	loaders  driven.LoaderRegistry
	pipeline driven.PostProcessorPipeline
	embedder *BatchEmbedder
	index    driven.VectorIndex
	metrics  driven.Metrics

	// runMu serialises runs. IndexAll refuses to wait; IndexOne queues.
	runMu sync.Mutex

	mu     sync.RWMutex
	status domain.IngestStatus
}

// IngestOption configures an IngestionCoordinator.
type IngestOption func(*IngestionCoordinator)

// WithIngestMetrics records per-document and failure measurements.
func WithIngestMetrics(m driven.Metrics) IngestOption {
	return func(o *IngestionCoordinator) {
		o.metrics = m
	}
}

// NewIngestionCoordinator creates a coordinator over the given collaborators.
func NewIngestionCoordinator(
	walker driven.FileWalker,
	loaders driven.LoaderRegistry,
	pipeline driven.PostProcessorPipeline,
	embedder *BatchEmbedder,
	index driven.VectorIndex,
	opts ...IngestOption,
) *IngestionCoordinator {
	o := &IngestionCoordinator{
		walker:   walker,
		loaders:  loaders,
		pipeline: pipeline,
		embedder: embedder,
		index:    index,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run tracks per-run state shared by the flush and prune steps.
type run struct {
	summary *domain.RunSummary
	pending []domain.Chunk
	// chunkCounts maps each loaded document to its chunk count.
	chunkCounts map[string]int
	// incomplete holds documents with at least one abandoned batch.
	incomplete map[string]bool
}

func newRun() *run {
	return &run{
		summary:     &domain.RunSummary{},
		chunkCounts: make(map[string]int),
		incomplete:  make(map[string]bool),
	}
}

// IndexAll walks each root and indexes every supported file.
// Per-file failures are collected in the summary; index failures abort.
//
//nolint:gocognit // Orchestration function with necessary sequential steps
func (o *IngestionCoordinator) IndexAll(ctx context.Context, roots []string, rules domain.SkipRules) (*domain.RunSummary, error) {
	if !o.runMu.TryLock() {
		return &domain.RunSummary{}, domain.ErrIndexInProgress
	}
	defer o.runMu.Unlock()

	started := time.Now()
	o.beginStatus(started)
	defer o.endStatus()

	r := newRun()
	defer func() {
		r.summary.Duration = time.Since(started)
		logSummary(r.summary)
	}()

	window := o.embedder.BatchSize() * o.embedder.Concurrency()

	for _, root := range roots {
		logger.Section("Indexing " + root)

		files, err := o.walker.Walk(ctx, root, rules)
		if err != nil {
			if ctx.Err() != nil {
				r.summary.Cancelled = true
				return r.summary, ctx.Err()
			}
			return r.summary, fmt.Errorf("walk %s: %w", root, err)
		}

		for _, path := range files {
			if ctx.Err() != nil {
				r.summary.Cancelled = true
				return r.summary, ctx.Err()
			}

			loader, ok := o.loaders.ForPath(path)
			if !ok {
				r.summary.Skipped++
				continue
			}

			chunks, err := o.prepare(ctx, loader, path)
			if err != nil {
				if ctx.Err() != nil {
					r.summary.Cancelled = true
					return r.summary, ctx.Err()
				}
				r.summary.Failures = append(r.summary.Failures, domain.FileFailure{Path: path, Err: err})
				o.recordFailure("load")
				o.updateStatus(0, 0, 1)
				logger.Warn("Failed to load %s: %v", path, err)
				continue
			}

			logger.Info("Loaded %s (%d chunks)", path, len(chunks))
			r.summary.Documents++
			r.chunkCounts[path] = len(chunks)
			r.pending = append(r.pending, chunks...)
			o.recordDocument(len(chunks))
			o.updateStatus(1, 0, 0)

			if len(r.pending) >= window {
				if err := o.flush(ctx, r); err != nil {
					return r.summary, err
				}
			}
		}
	}

	if err := o.flush(ctx, r); err != nil {
		return r.summary, err
	}
	if err := o.finish(ctx, r); err != nil {
		return r.summary, err
	}
	return r.summary, nil
}

// IndexOne re-indexes a single file. Any failure is returned.
func (o *IngestionCoordinator) IndexOne(ctx context.Context, path string) (*domain.RunSummary, error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	started := time.Now()
	r := newRun()
	defer func() { r.summary.Duration = time.Since(started) }()

	loader, ok := o.loaders.ForPath(path)
	if !ok {
		r.summary.Skipped++
		return r.summary, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, path)
	}

	chunks, err := o.prepare(ctx, loader, path)
	if err != nil {
		if ctx.Err() == nil {
			r.summary.Failures = append(r.summary.Failures, domain.FileFailure{Path: path, Err: err})
			o.recordFailure("load")
		}
		return r.summary, err
	}

	r.summary.Documents++
	r.chunkCounts[path] = len(chunks)
	r.pending = chunks
	o.recordDocument(len(chunks))

	if err := o.flush(ctx, r); err != nil {
		return r.summary, err
	}
	if err := o.finish(ctx, r); err != nil {
		return r.summary, err
	}
	if r.summary.FailedBatches > 0 {
		return r.summary, fmt.Errorf("embed %s: %d of %d chunks failed", path, r.summary.FailedChunks, len(chunks))
	}

	logger.Info("Re-indexed %s (%d chunks)", path, r.summary.Chunks)
	return r.summary, nil
}

// Remove deletes every entry derived from path.
func (o *IngestionCoordinator) Remove(ctx context.Context, path string) (int, error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	n, err := o.index.DeleteSource(ctx, path)
	if err != nil {
		o.recordFailure("index")
		return 0, &domain.IndexError{Op: "delete", Err: err}
	}
	if err := o.index.Persist(ctx); err != nil {
		o.recordFailure("index")
		return n, &domain.IndexError{Op: "persist", Err: err}
	}
	logger.Info("Removed %d entries for %s", n, path)
	return n, nil
}

// Status returns the progress of the current IndexAll run.
func (o *IngestionCoordinator) Status() domain.IngestStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

// EntryCount returns the number of entries in the index.
func (o *IngestionCoordinator) EntryCount(ctx context.Context) (int, error) {
	n, err := o.index.Count(ctx)
	if err != nil {
		return 0, &domain.IndexError{Op: "count", Err: err}
	}
	return n, nil
}

// prepare loads and chunks one file.
func (o *IngestionCoordinator) prepare(ctx context.Context, loader driven.Loader, path string) ([]domain.Chunk, error) {
	doc, err := loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	chunks, err := o.pipeline.Process(ctx, doc)
	if err != nil {
		var loadErr *domain.LoadError
		if errors.As(err, &loadErr) {
			return nil, err
		}
		return nil, &domain.LoadError{Path: path, Err: err}
	}
	return chunks, nil
}

// flush embeds and upserts all pending chunks.
func (o *IngestionCoordinator) flush(ctx context.Context, r *run) error {
	if len(r.pending) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		r.summary.Cancelled = true
		return err
	}

	pending := r.pending
	r.pending = nil

	entries, failures, err := o.embedder.EmbedChunks(ctx, pending)
	if err != nil {
		if ctx.Err() != nil {
			r.summary.Cancelled = true
		}
		return err
	}

	if len(failures) > 0 {
		owner := make(map[string]string, len(pending))
		for _, c := range pending {
			owner[c.ID] = c.Source.Path
		}
		for _, f := range failures {
			r.summary.FailedBatches++
			r.summary.FailedChunks += len(f.ChunkIDs)
			o.recordFailure("embed")
			for _, id := range f.ChunkIDs {
				r.incomplete[owner[id]] = true
			}
		}
		o.updateStatus(0, 0, len(failures))
	}

	if len(entries) == 0 {
		return nil
	}
	if err := o.index.Upsert(ctx, entries); err != nil {
		o.recordFailure("index")
		return &domain.IndexError{Op: "upsert", Err: err}
	}
	r.summary.Chunks += len(entries)
	o.updateStatus(0, len(entries), 0)
	logger.Debug("Upserted %d entries", len(entries))
	return nil
}

// finish prunes stale trailing chunks and persists the index.
func (o *IngestionCoordinator) finish(ctx context.Context, r *run) error {
	for path, count := range r.chunkCounts {
		if r.incomplete[path] {
			continue
		}
		n, err := o.index.PruneSource(ctx, path, count)
		if err != nil {
			o.recordFailure("index")
			return &domain.IndexError{Op: "prune", Err: err}
		}
		if n > 0 {
			logger.Debug("Pruned %d stale entries for %s", n, path)
		}
		r.summary.Pruned += n
	}

	if err := o.index.Persist(ctx); err != nil {
		o.recordFailure("index")
		return &domain.IndexError{Op: "persist", Err: err}
	}
	return nil
}

func (o *IngestionCoordinator) beginStatus(started time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status = domain.IngestStatus{Running: true, StartedAt: started}
}

func (o *IngestionCoordinator) endStatus() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.Running = false
}

func (o *IngestionCoordinator) updateStatus(docs, chunks, failures int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.Documents += docs
	o.status.Chunks += chunks
	o.status.Failures += failures
}

func (o *IngestionCoordinator) recordDocument(chunks int) {
	if o.metrics != nil {
		o.metrics.DocumentIngested(chunks)
	}
}

func (o *IngestionCoordinator) recordFailure(kind string) {
	if o.metrics != nil {
		o.metrics.IngestFailure(kind)
	}
}

func logSummary(s *domain.RunSummary) {
	logger.Notice("Indexed %d documents, %d chunks embedded, %d skipped, %d failures in %s",
		s.Documents, s.Chunks, s.Skipped, s.FailureCount(), s.Duration.Round(time.Millisecond))
	for _, f := range s.Failures {
		logger.Error("%s: %v", f.Path, f.Err)
	}
	if s.FailedBatches > 0 {
		logger.Error("%d embedding batches (%d chunks) failed", s.FailedBatches, s.FailedChunks)
	}
	if s.Cancelled {
		logger.Notice("Indexing cancelled before completion")
	}
}
