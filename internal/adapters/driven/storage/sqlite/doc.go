// Package sqlite provides a SQLite-backed implementation of driven.VectorIndex.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. The database file is the single source
// of truth for index entries; an in-memory snapshot is rebuilt from it on open
// and replaced after every committed write.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// The index_meta table records the embedding model and dimensions the index was
// built with; opening with a different configuration fails with a ConfigError.
//
// # Data Location
//
// The database is stored at <index path>/index.db, by default ./vector_store/index.db.
//
// # Thread Safety
//
// All operations are thread-safe. Writers are serialised; readers rank against an
// immutable snapshot and never observe a partially applied upsert.
package sqlite
