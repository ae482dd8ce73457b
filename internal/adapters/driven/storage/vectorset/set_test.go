package vectorset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func entry(id string, v ...float32) domain.IndexEntry {
	return domain.IndexEntry{ChunkID: id, Vector: v, Text: "text " + id, Source: domain.SourceMetadata{Path: "/docs/" + id}}
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 1}, []float32{-1, -1}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 0}))
}

func TestSet_UpsertIsCopyOnWrite(t *testing.T) {
	base := Empty().Upsert([]domain.IndexEntry{entry("a", 1, 0)}, 1)
	next := base.Upsert([]domain.IndexEntry{entry("b", 0, 1)}, 2)

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, next.Len())
	assert.Equal(t, uint64(2), next.MaxSeq())
}

func TestSet_UpsertReplaces(t *testing.T) {
	s := Empty().Upsert([]domain.IndexEntry{entry("a", 1, 0)}, 1)
	replaced := entry("a", 0, 1)
	replaced.Text = "new"
	s = s.Upsert([]domain.IndexEntry{replaced}, 2)

	require.Equal(t, 1, s.Len())
	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "new", got.Text)
}

func TestSet_Rank(t *testing.T) {
	s := Empty().Upsert([]domain.IndexEntry{
		entry("far", 0, 1),
		entry("near", 1, 0.1),
		entry("mid", 1, 1),
	}, 1)

	hits := s.Rank([]float32{1, 0}, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].ChunkID)
	assert.Equal(t, "mid", hits[1].ChunkID)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)

	assert.Len(t, s.Rank([]float32{1, 0}, 10), 3)
	assert.Empty(t, s.Rank([]float32{1, 0}, 0))
	assert.Empty(t, Empty().Rank([]float32{1, 0}, 3))
}

func TestSet_RankTiesPreferRecent(t *testing.T) {
	s := Empty().Upsert([]domain.IndexEntry{entry("old", 1, 0)}, 1)
	s = s.Upsert([]domain.IndexEntry{entry("new", 2, 0)}, 2)

	for i := 0; i < 5; i++ {
		hits := s.Rank([]float32{1, 0}, 2)
		require.Len(t, hits, 2)
		assert.Equal(t, "new", hits[0].ChunkID)
		assert.Equal(t, "old", hits[1].ChunkID)
	}

	// Re-upserting refreshes recency
	s = s.Upsert([]domain.IndexEntry{entry("old", 1, 0)}, 3)
	assert.Equal(t, "old", s.Rank([]float32{1, 0}, 1)[0].ChunkID)
}

func TestSet_Delete(t *testing.T) {
	s := Empty().Upsert([]domain.IndexEntry{entry("a", 1), entry("b", 1), entry("c", 1)}, 1)

	same, n := s.Delete(func(e domain.IndexEntry) bool { return false })
	assert.Zero(t, n)
	assert.Same(t, s, same)

	next, n := s.Delete(func(e domain.IndexEntry) bool { return e.ChunkID != "b" })
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, next.Len())
	assert.Equal(t, 3, s.Len())
}

func TestBuilder(t *testing.T) {
	b := NewBuilder()
	b.Add(entry("x", 1, 0), 7)
	b.Add(entry("y", 1, 0), 3)
	s := b.Set()

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, uint64(7), s.MaxSeq())
	assert.Equal(t, "x", s.Rank([]float32{1, 0}, 1)[0].ChunkID)
}
