package domain

// IndexEntry is the persisted unit of the vector index.
// At most one live entry exists per ChunkID.
type IndexEntry struct {
	// ChunkID is the deterministic chunk identifier and the entry key.
	ChunkID string

	// Vector is the embedding of Text.
	Vector []float32

	// Text is the chunk content returned as retrieval context.
	Text string

	// Seq is the chunk's position within its source document.
	Seq int

	// Source describes the file the chunk came from.
	Source SourceMetadata
}

// RetrievedEntry is an index entry paired with its similarity to a query.
type RetrievedEntry struct {
	IndexEntry

	// Similarity is the cosine similarity to the query vector (-1 to 1).
	Similarity float64
}

// IndexIdentity records which embedding model produced an index.
// Vectors from different models or dimensions are not comparable.
type IndexIdentity struct {
	// Model is the embedding model name.
	Model string

	// Dimensions is the vector length.
	Dimensions int
}

// IsZero returns true if no identity has been recorded.
func (i IndexIdentity) IsZero() bool {
	return i.Model == "" && i.Dimensions == 0
}

// Check returns a ConfigError if other is incompatible with i.
func (i IndexIdentity) Check(other IndexIdentity) error {
	if i.Dimensions != other.Dimensions {
		return &ConfigError{Field: "dimensions", Stored: itoa(i.Dimensions), Current: itoa(other.Dimensions)}
	}
	if i.Model != other.Model {
		return &ConfigError{Field: "model", Stored: i.Model, Current: other.Model}
	}
	return nil
}

// EntriesFromChunks pairs chunks with their vectors. Both slices must be
// the same length; the caller guarantees alignment.
func EntriesFromChunks(chunks []Chunk, vectors [][]float32) []IndexEntry {
	entries := make([]IndexEntry, len(chunks))
	for i := range chunks {
		entries[i] = IndexEntry{
			ChunkID: chunks[i].ID,
			Vector:  vectors[i],
			Text:    chunks[i].Text,
			Seq:     chunks[i].Seq,
			Source:  chunks[i].Source,
		}
	}
	return entries
}
