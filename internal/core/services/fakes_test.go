package services

import (
	"context"
	"errors"
	"hash/fnv"
	"sort"
	"strings"
	stdsync "sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// --- Shared fakes for service tests ---

// fakeEmbedder implements driven.EmbeddingService with deterministic vectors.
type fakeEmbedder struct {
	mu        stdsync.Mutex
	dims      int
	calls     int
	sizes     []int
	failTimes int              // fail this many calls before succeeding
	failWith  error            // error returned for failing calls
	failOn    func(string) bool // texts that always fail
	delay     func(texts []string) time.Duration
	wrongDims bool
}

func newFakeEmbedder(dims int) *fakeEmbedder {
	return &fakeEmbedder{dims: dims}
}

// vectorFor derives a stable vector from text.
func vectorFor(text string, dims int) []float32 {
	v := make([]float32, dims)
	for i := range v {
		h := fnv.New32a()
		h.Write([]byte{byte(i)})
		h.Write([]byte(strings.ToLower(text)))
		v[i] = float32(h.Sum32()%1000)/1000 + 0.001
	}
	return v
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.sizes = append(f.sizes, len(texts))
	fail := f.failTimes > 0
	if fail {
		f.failTimes--
	}
	f.mu.Unlock()

	if f.delay != nil {
		select {
		case <-time.After(f.delay(texts)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fail {
		if f.failWith != nil {
			return nil, f.failWith
		}
		return nil, errors.New("provider unavailable")
	}
	if f.failOn != nil {
		for _, t := range texts {
			if f.failOn(t) {
				return nil, errors.New("rejected input")
			}
		}
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		dims := f.dims
		if f.wrongDims {
			dims++
		}
		out[i] = vectorFor(t, dims)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int              { return f.dims }
func (f *fakeEmbedder) ModelName() string            { return "fake-embed" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                 { return nil }

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeEmbedder) batchSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.sizes...)
}

// fakeLLM implements driven.LLMService and records chat requests.
type fakeLLM struct {
	mu       stdsync.Mutex
	reply    string
	err      error
	requests [][]driven.ChatMessage
}

func (f *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, append([]driven.ChatMessage(nil), messages...))
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) ModelName() string            { return "fake-llm" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error                 { return nil }

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// fakePrompts implements driven.PromptStore with fixed templates.
type fakePrompts struct{}

func (fakePrompts) Load(name string) (string, error) {
	switch name {
	case driven.PromptAnswerSystem:
		return "Answer only from the context.", nil
	case driven.PromptAnswerQuestion:
		return "Context:\n%s\n\nQuestion: %s", nil
	}
	return "", domain.ErrNotFound
}

func (fakePrompts) Reload() {}

// fakeMetrics implements driven.Metrics and counts calls.
type fakeMetrics struct {
	mu        stdsync.Mutex
	documents int
	chunks    int
	failures  map[string]int
	batches   int
	queries   map[string]int
	sessions  int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{failures: map[string]int{}, queries: map[string]int{}}
}

func (m *fakeMetrics) DocumentIngested(chunks int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents++
	m.chunks += chunks
}

func (m *fakeMetrics) IngestFailure(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[kind]++
}

func (m *fakeMetrics) EmbedBatch(_, _ int, _ time.Duration, _ error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
}

func (m *fakeMetrics) Query(_ time.Duration, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries[outcome]++
}

func (m *fakeMetrics) Sessions(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = n
}

// fakeWatcher implements driven.FileWatcher over a test-controlled channel.
type fakeWatcher struct {
	events   chan domain.FileEvent
	watchErr error
	once     stdsync.Once
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{events: make(chan domain.FileEvent, 16)}
}

func (w *fakeWatcher) Watch(ctx context.Context, _ []string, _ domain.SkipRules) (<-chan domain.FileEvent, error) {
	if w.watchErr != nil {
		return nil, w.watchErr
	}
	out := make(chan domain.FileEvent)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.events:
				if !ok {
					return
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (w *fakeWatcher) Close() error {
	w.once.Do(func() { close(w.events) })
	return nil
}

// fakeIngestor implements driving.IngestionCoordinator and records calls.
type fakeIngestor struct {
	mu      stdsync.Mutex
	indexed []string
	removed []string
	err     error
	notify  chan string
}

func newFakeIngestor() *fakeIngestor {
	return &fakeIngestor{notify: make(chan string, 16)}
}

func (f *fakeIngestor) IndexAll(_ context.Context, _ []string, _ domain.SkipRules) (*domain.RunSummary, error) {
	return &domain.RunSummary{}, nil
}

func (f *fakeIngestor) IndexOne(_ context.Context, path string) (*domain.RunSummary, error) {
	f.mu.Lock()
	f.indexed = append(f.indexed, path)
	err := f.err
	f.mu.Unlock()
	f.notify <- "index:" + path
	if err != nil {
		return &domain.RunSummary{}, err
	}
	return &domain.RunSummary{Documents: 1}, nil
}

func (f *fakeIngestor) Remove(_ context.Context, path string) (int, error) {
	f.mu.Lock()
	f.removed = append(f.removed, path)
	f.mu.Unlock()
	f.notify <- "remove:" + path
	return 1, nil
}

func (f *fakeIngestor) Status() domain.IngestStatus { return domain.IngestStatus{} }

func (f *fakeIngestor) EntryCount(context.Context) (int, error) { return 0, nil }

func (f *fakeIngestor) indexedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.indexed...)
	sort.Strings(out)
	return out
}
