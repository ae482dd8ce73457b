package services

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure ChangeWatcher implements the interface.
var _ driving.ChangeWatcher = (*ChangeWatcher)(nil)

// ErrWatcherRunning is returned when Run is called on an active watcher.
var ErrWatcherRunning = errors.New("watcher already running")

// ChangeWatcher dispatches filesystem changes to the ingestion coordinator.
type ChangeWatcher struct {
	watcher  driven.FileWatcher
	ingestor driving.IngestionCoordinator
	loaders  driven.LoaderRegistry
	rules    domain.SkipRules
	settings domain.WatchSettings

	mu     sync.Mutex
	state  driving.WatcherState
	cancel context.CancelFunc
}

// NewChangeWatcher creates an idle watcher.
func NewChangeWatcher(
	watcher driven.FileWatcher,
	ingestor driving.IngestionCoordinator,
	loaders driven.LoaderRegistry,
	rules domain.SkipRules,
	settings domain.WatchSettings,
) *ChangeWatcher {
	return &ChangeWatcher{
		watcher:  watcher,
		ingestor: ingestor,
		loaders:  loaders,
		rules:    rules,
		settings: settings,
		state:    driving.WatcherIdle,
	}
}

// Run watches roots and dispatches changes until ctx is cancelled or Stop
// is called. Dispatch failures are logged and do not end the watch.
func (w *ChangeWatcher) Run(ctx context.Context, roots []string) error {
	w.mu.Lock()
	switch w.state {
	case driving.WatcherStopped:
		w.mu.Unlock()
		return domain.ErrWatcherStopped
	case driving.WatcherIdle:
	default:
		w.mu.Unlock()
		return ErrWatcherRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.state = driving.WatcherWatching
	w.mu.Unlock()
	defer cancel()

	events, err := w.watcher.Watch(runCtx, roots, w.rules)
	if err != nil {
		w.setState(driving.WatcherIdle)
		return err
	}
	defer w.setState(driving.WatcherStopped)

	logger.Notice("Watching %d director(ies) for changes", len(roots))

	pending := make(map[string]domain.FileEvent)
	var flush <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-runCtx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if w.settings.Debounce <= 0 {
				w.dispatch(runCtx, ev)
				continue
			}
			pending[ev.Path] = ev
			if timer == nil {
				timer = time.NewTimer(w.settings.Debounce)
			} else {
				timer.Reset(w.settings.Debounce)
			}
			flush = timer.C

		case <-flush:
			flush = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			for _, p := range paths {
				w.dispatch(runCtx, pending[p])
				delete(pending, p)
			}
		}
	}
}

// Stop ends a running watch and moves the watcher to its terminal state.
func (w *ChangeWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == driving.WatcherStopped {
		return
	}
	w.state = driving.WatcherStopped
	if w.cancel != nil {
		w.cancel()
	}
	if err := w.watcher.Close(); err != nil {
		logger.Warn("Closing file watcher: %v", err)
	}
}

// State returns the current lifecycle state.
func (w *ChangeWatcher) State() driving.WatcherState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *ChangeWatcher) setState(s driving.WatcherState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == driving.WatcherStopped {
		return
	}
	w.state = s
}

// dispatch routes one event to the ingestion coordinator.
func (w *ChangeWatcher) dispatch(ctx context.Context, ev domain.FileEvent) {
	if ctx.Err() != nil {
		return
	}
	w.setState(driving.WatcherDispatching)
	defer w.setState(driving.WatcherWatching)

	switch ev.Op {
	case domain.FileRemoved:
		if !w.settings.PruneDeleted {
			logger.Debug("Ignoring removal of %s", ev.Path)
			return
		}
		if _, err := w.ingestor.Remove(ctx, ev.Path); err != nil {
			logger.Error("Failed to remove %s: %v", ev.Path, err)
		}

	case domain.FileCreated, domain.FileModified:
		if !w.loaders.Supports(ev.Path) {
			return
		}
		info, err := os.Stat(ev.Path)
		if err != nil || !info.Mode().IsRegular() {
			return
		}
		logger.Info("Detected %s: %s", ev.Op, ev.Path)
		if _, err := w.ingestor.IndexOne(ctx, ev.Path); err != nil {
			logger.Error("Failed to index %s: %v", ev.Path, err)
		}
	}
}
