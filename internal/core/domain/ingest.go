package domain

import (
	"strconv"
	"time"
)

// FileOp is the kind of filesystem change observed by the watcher.
type FileOp string

// File operations.
const (
	FileCreated  FileOp = "created"
	FileModified FileOp = "modified"
	FileRemoved  FileOp = "removed"
)

// FileEvent is a change to a single path.
type FileEvent struct {
	Path string
	Op   FileOp
	At   time.Time
}

// FileFailure records a file that could not be ingested.
type FileFailure struct {
	Path string
	Err  error
}

// RunSummary is the outcome of an ingestion run.
// It is always produced, even when the run fails or is cancelled.
type RunSummary struct {
	// Documents is the number of files loaded and chunked.
	Documents int

	// Chunks is the number of chunks embedded and upserted.
	Chunks int

	// Skipped counts files with unsupported extensions.
	Skipped int

	// Failures lists per-file load or chunking errors.
	Failures []FileFailure

	// FailedBatches counts embedding batches abandoned after retries.
	FailedBatches int

	// FailedChunks counts chunks in abandoned batches.
	FailedChunks int

	// Pruned counts stale entries removed after re-ingestion.
	Pruned int

	// Cancelled is true if the run stopped early on request.
	Cancelled bool

	// Duration is the wall-clock run time.
	Duration time.Duration
}

// FailureCount returns the total number of failures of any kind.
func (s *RunSummary) FailureCount() int {
	return len(s.Failures) + s.FailedBatches
}

// Merge adds other's counters into s.
func (s *RunSummary) Merge(other *RunSummary) {
	if other == nil {
		return
	}
	s.Documents += other.Documents
	s.Chunks += other.Chunks
	s.Skipped += other.Skipped
	s.Failures = append(s.Failures, other.Failures...)
	s.FailedBatches += other.FailedBatches
	s.FailedChunks += other.FailedChunks
	s.Pruned += other.Pruned
	s.Cancelled = s.Cancelled || other.Cancelled
}

// IngestStatus is a point-in-time view of a running ingestion.
type IngestStatus struct {
	Running   bool
	Documents int
	Chunks    int
	Failures  int
	StartedAt time.Time
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
