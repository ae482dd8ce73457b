package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

type queryFixture struct {
	embedder *fakeEmbedder
	index    *memory.VectorIndex
	llm      *fakeLLM
	sessions *SessionManager
	metrics  *fakeMetrics
	service  *QueryService
}

func newQueryFixture(t *testing.T, k int) *queryFixture {
	t.Helper()
	f := &queryFixture{
		embedder: newFakeEmbedder(testDims),
		index:    memory.NewVectorIndex(domain.IndexIdentity{Model: "fake-embed", Dimensions: testDims}),
		llm:      &fakeLLM{reply: "  The answer.  "},
		sessions: NewSessionManager(6, nil),
		metrics:  newFakeMetrics(),
	}
	embedder := NewBatchEmbedder(f.embedder, embedSettings(8, 1, 1))
	f.service = NewQueryService(embedder, f.index, f.llm, f.sessions, fakePrompts{}, f.metrics, k)
	return f
}

func (f *queryFixture) seed(t *testing.T, items ...[2]string) {
	t.Helper()
	entries := make([]domain.IndexEntry, len(items))
	for i, it := range items {
		entries[i] = domain.IndexEntry{
			ChunkID: it[0] + "#" + it[1],
			Vector:  vectorFor(it[1], testDims),
			Text:    it[1],
			Source:  domain.SourceMetadata{Path: it[0]},
		}
	}
	require.NoError(t, f.index.Upsert(context.Background(), entries))
}

func TestQueryService_Answer(t *testing.T) {
	f := newQueryFixture(t, 3)
	f.seed(t,
		[2]string{"/docs/a.txt", "first passage"},
		[2]string{"/docs/a.txt", "second passage"},
		[2]string{"/docs/b.txt", "third passage"},
		[2]string{"/docs/c.txt", "unrelated"},
	)

	answer, err := f.service.Answer(context.Background(), "s1", "  what is in the passages?  ")
	require.NoError(t, err)

	assert.Equal(t, "The answer.", answer.Text)
	assert.False(t, answer.NoContext)
	assert.NotEmpty(t, answer.Sources)
	assert.LessOrEqual(t, len(answer.Sources), 3)
	seen := map[string]bool{}
	for _, s := range answer.Sources {
		assert.False(t, seen[s], "duplicate source %s", s)
		seen[s] = true
	}

	require.Equal(t, 1, f.llm.calls())
	msgs := f.llm.requests[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, driven.ChatRoleSystem, msgs[0].Role)
	assert.Equal(t, driven.ChatRoleUser, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "[Source: /docs/")
	assert.True(t, strings.HasSuffix(msgs[1].Content, "Question: what is in the passages?"))

	snap := f.sessions.Snapshot("s1")
	require.Len(t, snap, 2)
	assert.Equal(t, "what is in the passages?", snap[0].Text)
	assert.Equal(t, "The answer.", snap[1].Text)
	assert.Equal(t, 1, f.metrics.queries[outcomeAnswered])
}

func TestQueryService_IncludesHistory(t *testing.T) {
	f := newQueryFixture(t, 2)
	f.seed(t, [2]string{"/a.txt", "passage"})

	_, err := f.service.Answer(context.Background(), "s", "first question")
	require.NoError(t, err)
	_, err = f.service.Answer(context.Background(), "s", "follow up")
	require.NoError(t, err)

	msgs := f.llm.requests[1]
	require.Len(t, msgs, 4)
	assert.Equal(t, "first question", msgs[1].Content)
	assert.Equal(t, driven.ChatRoleAssistant, msgs[2].Role)

	// Other sessions see no history.
	_, err = f.service.Answer(context.Background(), "other", "fresh")
	require.NoError(t, err)
	assert.Len(t, f.llm.requests[2], 2)
}

func TestQueryService_NoContext(t *testing.T) {
	f := newQueryFixture(t, 5)

	answer, err := f.service.Answer(context.Background(), "s", "anything?")
	require.NoError(t, err)

	assert.True(t, answer.NoContext)
	assert.Equal(t, domain.NoContextMessage, answer.Text)
	assert.NotNil(t, answer.Sources)
	assert.Empty(t, answer.Sources)
	assert.Zero(t, f.llm.calls())
	assert.Zero(t, f.sessions.Len("s"))
	assert.Equal(t, 1, f.metrics.queries[outcomeNoContext])
}

func TestQueryService_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty question", func(t *testing.T) {
		f := newQueryFixture(t, 5)
		_, err := f.service.Answer(ctx, "s", "   ")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("embedding failure", func(t *testing.T) {
		f := newQueryFixture(t, 5)
		f.embedder.failTimes = 1
		_, err := f.service.Answer(ctx, "s", "question")
		var embedErr *domain.EmbedError
		assert.ErrorAs(t, err, &embedErr)
		assert.Equal(t, 1, f.metrics.queries[outcomeError])
	})

	t.Run("generation failure leaves session untouched", func(t *testing.T) {
		f := newQueryFixture(t, 5)
		f.seed(t, [2]string{"/a.txt", "passage"})
		f.llm.err = errors.New("model overloaded")

		_, err := f.service.Answer(ctx, "s", "question")
		var genErr *domain.GenerationError
		assert.ErrorAs(t, err, &genErr)
		assert.Zero(t, f.sessions.Len("s"))
	})

	t.Run("retrieval failure", func(t *testing.T) {
		f := newQueryFixture(t, 5)
		require.NoError(t, f.index.Close())
		f.service.index = failingRetrieve{f.index}

		_, err := f.service.Answer(ctx, "s", "question")
		var idxErr *domain.IndexError
		assert.ErrorAs(t, err, &idxErr)
	})

	t.Run("no LLM configured", func(t *testing.T) {
		f := newQueryFixture(t, 5)
		f.seed(t, [2]string{"/a.txt", "passage"})
		f.service.llm = nil

		_, err := f.service.Answer(ctx, "s", "question")
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})
}

type failingRetrieve struct {
	*memory.VectorIndex
}

func (failingRetrieve) Retrieve(context.Context, []float32, int) ([]domain.RetrievedEntry, error) {
	return nil, errors.New("corrupt page")
}

func TestDistinctSources(t *testing.T) {
	hits := []domain.RetrievedEntry{
		{IndexEntry: domain.IndexEntry{Source: domain.SourceMetadata{Path: "/b"}}},
		{IndexEntry: domain.IndexEntry{Source: domain.SourceMetadata{Path: "/a"}}},
		{IndexEntry: domain.IndexEntry{Source: domain.SourceMetadata{Path: "/b"}}},
	}
	assert.Equal(t, []string{"/b", "/a"}, distinctSources(hits))
}
