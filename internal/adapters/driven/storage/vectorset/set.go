// Package vectorset holds an immutable set of index entries and ranks them
// by cosine similarity. Index adapters publish a new Set after every write,
// so readers always rank against a complete, consistent snapshot.
package vectorset

import (
	"cmp"
	"math"
	"slices"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

type record struct {
	entry domain.IndexEntry
	norm  float64
	seq   uint64
}

// Set is an immutable collection of entries keyed by chunk ID.
// Methods that change the set return a new Set and leave the receiver intact.
type Set struct {
	records map[string]record
	maxSeq  uint64
}

// Empty returns a set with no entries.
func Empty() *Set {
	return &Set{records: map[string]record{}}
}

// Len returns the number of entries.
func (s *Set) Len() int {
	return len(s.records)
}

// MaxSeq returns the highest upsert sequence number in the set.
func (s *Set) MaxSeq() uint64 {
	return s.maxSeq
}

// Get returns the entry for chunkID.
func (s *Set) Get(chunkID string) (domain.IndexEntry, bool) {
	r, ok := s.records[chunkID]
	return r.entry, ok
}

// Upsert returns a new set with entries inserted or replaced. Entry i is
// stamped with sequence firstSeq+i; a later entry with the same chunk ID
// replaces an earlier one.
func (s *Set) Upsert(entries []domain.IndexEntry, firstSeq uint64) *Set {
	next := s.clone(len(entries))
	for i, e := range entries {
		next.put(e, firstSeq+uint64(i))
	}
	return next
}

// Delete returns a new set without the entries matching drop, and the
// number removed. The receiver is returned unchanged when nothing matches.
func (s *Set) Delete(drop func(domain.IndexEntry) bool) (*Set, int) {
	removed := 0
	for _, r := range s.records {
		if drop(r.entry) {
			removed++
		}
	}
	if removed == 0 {
		return s, 0
	}

	next := &Set{records: make(map[string]record, len(s.records)-removed), maxSeq: s.maxSeq}
	for id, r := range s.records {
		if !drop(r.entry) {
			next.records[id] = r
		}
	}
	return next, removed
}

// Builder accumulates entries loaded from storage into a Set.
type Builder struct {
	set *Set
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{set: Empty()}
}

// Add stores an entry with its persisted sequence number.
func (b *Builder) Add(e domain.IndexEntry, seq uint64) {
	b.set.put(e, seq)
}

// Set returns the built set. The builder must not be used afterwards.
func (b *Builder) Set() *Set {
	return b.set
}

// Rank returns up to k entries by descending cosine similarity to query.
// Equal similarities are ordered by most recent upsert first.
func (s *Set) Rank(query []float32, k int) []domain.RetrievedEntry {
	if k <= 0 || len(s.records) == 0 {
		return []domain.RetrievedEntry{}
	}

	qnorm := Norm(query)
	type scored struct {
		rec *record
		sim float64
	}
	hits := make([]scored, 0, len(s.records))
	for id := range s.records {
		r := s.records[id]
		hits = append(hits, scored{rec: &r, sim: cosine(query, qnorm, r.entry.Vector, r.norm)})
	}

	slices.SortFunc(hits, func(a, b scored) int {
		if c := cmp.Compare(b.sim, a.sim); c != 0 {
			return c
		}
		return cmp.Compare(b.rec.seq, a.rec.seq)
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]domain.RetrievedEntry, len(hits))
	for i, h := range hits {
		out[i] = domain.RetrievedEntry{IndexEntry: h.rec.entry, Similarity: h.sim}
	}
	return out
}

func (s *Set) clone(extra int) *Set {
	next := &Set{records: make(map[string]record, len(s.records)+extra), maxSeq: s.maxSeq}
	for id, r := range s.records {
		next.records[id] = r
	}
	return next
}

func (s *Set) put(e domain.IndexEntry, seq uint64) {
	s.records[e.ChunkID] = record{entry: e, norm: Norm(e.Vector), seq: seq}
	if seq > s.maxSeq {
		s.maxSeq = seq
	}
}

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of a and b, or 0 if either is zero
// or their lengths differ.
func Cosine(a, b []float32) float64 {
	return cosine(a, Norm(a), b, Norm(b))
}

func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if len(a) != len(b) || anorm == 0 || bnorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (anorm * bnorm)
}
