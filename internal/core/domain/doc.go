// Package domain defines the core business entities for sercha-rag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Text produced by a loader for one source file
//   - Chunk: A bounded, overlapping segment of a document
//   - IndexEntry: The persisted unit owned by the vector index
//   - ConversationTurn: One side of a question/answer exchange
//   - RunSummary: The outcome of an ingestion run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
