package driven

import "time"

// Metrics records operational measurements.
type Metrics interface {
	// DocumentIngested records a loaded document and its chunk count.
	DocumentIngested(chunks int)

	// IngestFailure records a failure by kind ("load", "embed", "index").
	IngestFailure(kind string)

	// EmbedBatch records one embedding batch call.
	EmbedBatch(size int, attempts int, d time.Duration, err error)

	// Query records one answered question.
	Query(d time.Duration, outcome string)

	// Sessions records the number of live conversation sessions.
	Sessions(n int)
}
