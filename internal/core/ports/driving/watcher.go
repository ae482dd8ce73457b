package driving

import "context"

// WatcherState is the lifecycle state of a ChangeWatcher.
type WatcherState string

// Watcher states.
const (
	WatcherIdle        WatcherState = "idle"
	WatcherWatching    WatcherState = "watching"
	WatcherDispatching WatcherState = "dispatching"
	WatcherStopped     WatcherState = "stopped"
)

// ChangeWatcher keeps the index current as files change.
type ChangeWatcher interface {
	// Run watches roots and dispatches changes until ctx is cancelled or Stop is called.
	Run(ctx context.Context, roots []string) error

	// Stop ends a running watch. Safe to call more than once.
	Stop()

	// State returns the current lifecycle state.
	State() WatcherState
}
