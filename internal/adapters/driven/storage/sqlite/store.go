package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/vectorset"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorIndex = (*Store)(nil)

// DBFileName is the database file created inside the index directory.
const DBFileName = "index.db"

const (
	metaModel      = "embedding_model"
	metaDimensions = "embedding_dimensions"
)

// Store is a persistent vector index backed by SQLite.
type Store struct {
	db       *sql.DB
	path     string
	identity domain.IndexIdentity

	// writeMu serialises writers; snap is swapped only while it is held.
	writeMu sync.Mutex
	snap    atomic.Pointer[vectorset.Set]
	closed  atomic.Bool
}

// NewStore opens or creates the index in dataDir for the given embedding identity.
// An existing index built with a different identity returns *domain.ConfigError.
func NewStore(dataDir string, identity domain.IndexIdentity) (*Store, error) {
	if dataDir == "" {
		dataDir = "vector_store"
	}
	if identity.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: embedding dimensions must be positive", domain.ErrInvalidInput)
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFileName)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:       db,
		path:     dbPath,
		identity: identity,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if err := s.checkIdentity(); err != nil {
		db.Close()
		return nil, err
	}

	set, err := s.loadSnapshot(context.Background())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("loading entries: %w", err)
	}
	s.snap.Store(set)

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Identity returns the embedding identity the index was built with.
func (s *Store) Identity() domain.IndexIdentity {
	return s.identity
}

// Upsert inserts or replaces entries in a single transaction.
// The entries become visible to Retrieve only after the commit succeeds.
func (s *Store) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := s.checkOpen(); err != nil {
		return err
	}
	for _, e := range entries {
		if err := s.checkDimensions(len(e.Vector)); err != nil {
			return err
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.snap.Load()
	firstSeq := current.MaxSeq() + 1

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (chunk_id, source_path, seq, text, vector, extension, loader, mod_time, upsert_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			source_path = excluded.source_path,
			seq = excluded.seq,
			text = excluded.text,
			vector = excluded.vector,
			extension = excluded.extension,
			loader = excluded.loader,
			mod_time = excluded.mod_time,
			upsert_seq = excluded.upsert_seq
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		_, err := stmt.ExecContext(ctx,
			e.ChunkID, e.Source.Path, e.Seq, e.Text, float32SliceToBytes(e.Vector),
			e.Source.Extension, string(e.Source.Loader), unixNano(e.Source.ModTime),
			int64(firstSeq)+int64(i))
		if err != nil {
			return fmt.Errorf("upserting entry %s: %w", e.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}

	s.snap.Store(current.Upsert(copyEntries(entries), firstSeq))
	return nil
}

// Retrieve returns up to k entries by descending cosine similarity.
func (s *Store) Retrieve(_ context.Context, query []float32, k int) ([]domain.RetrievedEntry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", domain.ErrInvalidInput)
	}
	if err := s.checkDimensions(len(query)); err != nil {
		return nil, err
	}
	return s.snap.Load().Rank(query, k), nil
}

// Persist checkpoints the write-ahead log into the main database file.
func (s *Store) Persist(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("checkpointing: %w", err)
	}
	return nil
}

// DeleteSource removes every entry derived from path.
func (s *Store) DeleteSource(ctx context.Context, path string) (int, error) {
	return s.delete(ctx, "DELETE FROM entries WHERE source_path = ?",
		func(e domain.IndexEntry) bool { return e.Source.Path == path }, path)
}

// PruneSource removes entries for path at sequence index keep or beyond.
func (s *Store) PruneSource(ctx context.Context, path string, keep int) (int, error) {
	return s.delete(ctx, "DELETE FROM entries WHERE source_path = ? AND seq >= ?",
		func(e domain.IndexEntry) bool { return e.Source.Path == path && e.Seq >= keep }, path, keep)
}

func (s *Store) delete(ctx context.Context, query string, match func(domain.IndexEntry) bool, args ...any) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting entries: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted entries: %w", err)
	}

	next, _ := s.snap.Load().Delete(match)
	s.snap.Store(next)
	return int(affected), nil
}

// Count returns the number of live entries.
func (s *Store) Count(_ context.Context) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	return s.snap.Load().Len(), nil
}

// Close checkpoints and closes the database connection.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

func (s *Store) checkOpen() error {
	if s.closed.Load() {
		return errors.New("vector index is closed")
	}
	return nil
}

func (s *Store) checkDimensions(n int) error {
	if n != s.identity.Dimensions {
		return &domain.ConfigError{
			Field:   "dimensions",
			Stored:  strconv.Itoa(s.identity.Dimensions),
			Current: strconv.Itoa(n),
		}
	}
	return nil
}

// checkIdentity compares the stored identity with the configured one,
// recording it if the index is new.
func (s *Store) checkIdentity() error {
	stored, err := s.readIdentity()
	if err != nil {
		return err
	}
	if stored.IsZero() {
		return s.writeIdentity()
	}
	return stored.Check(s.identity)
}

func (s *Store) readIdentity() (domain.IndexIdentity, error) {
	var id domain.IndexIdentity
	rows, err := s.db.Query("SELECT key, value FROM index_meta WHERE key IN (?, ?)", metaModel, metaDimensions)
	if err != nil {
		return id, fmt.Errorf("reading index metadata: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return id, fmt.Errorf("scanning index metadata: %w", err)
		}
		switch key {
		case metaModel:
			id.Model = value
		case metaDimensions:
			id.Dimensions, err = strconv.Atoi(value)
			if err != nil {
				return id, fmt.Errorf("parsing stored dimensions %q: %w", value, err)
			}
		}
	}
	return id, rows.Err()
}

func (s *Store) writeIdentity() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	upsert := "INSERT INTO index_meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value"
	if _, err := tx.Exec(upsert, metaModel, s.identity.Model); err != nil {
		return fmt.Errorf("writing index metadata: %w", err)
	}
	if _, err := tx.Exec(upsert, metaDimensions, strconv.Itoa(s.identity.Dimensions)); err != nil {
		return fmt.Errorf("writing index metadata: %w", err)
	}
	return tx.Commit()
}

// loadSnapshot reads every entry into an in-memory set.
func (s *Store) loadSnapshot(ctx context.Context) (*vectorset.Set, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, source_path, seq, text, vector, extension, loader, mod_time, upsert_seq
		FROM entries
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	b := vectorset.NewBuilder()
	for rows.Next() {
		var (
			e         domain.IndexEntry
			blob      []byte
			loader    string
			modTime   int64
			upsertSeq int64
		)
		if err := rows.Scan(&e.ChunkID, &e.Source.Path, &e.Seq, &e.Text, &blob,
			&e.Source.Extension, &loader, &modTime, &upsertSeq); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Vector = bytesToFloat32Slice(blob)
		if len(e.Vector) != s.identity.Dimensions {
			return nil, fmt.Errorf("entry %s has %d dimensions, index has %d", e.ChunkID, len(e.Vector), s.identity.Dimensions)
		}
		e.Source.Loader = domain.LoaderKind(loader)
		if modTime != 0 {
			e.Source.ModTime = time.Unix(0, modTime)
		}
		b.Add(e, uint64(upsertSeq))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return b.Set(), nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_vector_index.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Encoding ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

// copyEntries detaches stored entries from caller-owned vector slices.
func copyEntries(entries []domain.IndexEntry) []domain.IndexEntry {
	out := make([]domain.IndexEntry, len(entries))
	for i, e := range entries {
		e.Vector = append([]float32(nil), e.Vector...)
		out[i] = e
	}
	return out
}
