package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/vectorset"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex.
// Contents are lost on Close; Persist is a no-op.
type VectorIndex struct {
	identity domain.IndexIdentity
	writeMu  sync.Mutex
	snap     atomic.Pointer[vectorset.Set]
}

// NewVectorIndex creates an empty in-memory index for the given identity.
func NewVectorIndex(identity domain.IndexIdentity) *VectorIndex {
	idx := &VectorIndex{identity: identity}
	idx.snap.Store(vectorset.Empty())
	return idx
}

// Upsert inserts or replaces entries atomically with respect to Retrieve.
func (v *VectorIndex) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if err := v.checkDimensions(len(e.Vector)); err != nil {
			return err
		}
	}

	copied := make([]domain.IndexEntry, len(entries))
	for i, e := range entries {
		e.Vector = append([]float32(nil), e.Vector...)
		copied[i] = e
	}

	v.writeMu.Lock()
	defer v.writeMu.Unlock()

	current := v.snap.Load()
	v.snap.Store(current.Upsert(copied, current.MaxSeq()+1))
	return nil
}

// Retrieve returns up to k entries by descending cosine similarity.
func (v *VectorIndex) Retrieve(_ context.Context, query []float32, k int) ([]domain.RetrievedEntry, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}
	if err := v.checkDimensions(len(query)); err != nil {
		return nil, err
	}
	return v.snap.Load().Rank(query, k), nil
}

// Persist is a no-op.
func (v *VectorIndex) Persist(_ context.Context) error {
	return nil
}

// DeleteSource removes every entry derived from path.
func (v *VectorIndex) DeleteSource(_ context.Context, path string) (int, error) {
	return v.delete(func(e domain.IndexEntry) bool { return e.Source.Path == path }), nil
}

// PruneSource removes entries for path at sequence index keep or beyond.
func (v *VectorIndex) PruneSource(_ context.Context, path string, keep int) (int, error) {
	return v.delete(func(e domain.IndexEntry) bool { return e.Source.Path == path && e.Seq >= keep }), nil
}

// Count returns the number of live entries.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	return v.snap.Load().Len(), nil
}

// Identity returns the embedding identity of the index.
func (v *VectorIndex) Identity() domain.IndexIdentity {
	return v.identity
}

// Close releases all entries.
func (v *VectorIndex) Close() error {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()
	v.snap.Store(vectorset.Empty())
	return nil
}

func (v *VectorIndex) delete(match func(domain.IndexEntry) bool) int {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()

	next, n := v.snap.Load().Delete(match)
	v.snap.Store(next)
	return n
}

func (v *VectorIndex) checkDimensions(n int) error {
	if v.identity.Dimensions > 0 && n != v.identity.Dimensions {
		return &domain.ConfigError{
			Field:   "dimensions",
			Stored:  fmt.Sprint(v.identity.Dimensions),
			Current: fmt.Sprint(n),
		}
	}
	return nil
}
