// Package filesystem enumerates and watches document trees on local disk.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Connector implements the interfaces.
var (
	_ driven.FileWalker  = (*Connector)(nil)
	_ driven.FileWatcher = (*Connector)(nil)
)

// ErrConnectorClosed is returned when watching a closed connector.
var ErrConnectorClosed = errors.New("filesystem: connector closed")

// eventBuffer is the capacity of the change channel.
const eventBuffer = 100

// Connector walks and watches directory trees.
type Connector struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool

	// roots and rules are fixed once Watch starts.
	roots []string
	rules domain.SkipRules
}

// New creates a filesystem connector.
func New() *Connector {
	return &Connector{}
}

// Walk returns absolute paths of regular files under root that pass rules,
// in lexical order.
func (c *Connector) Walk(ctx context.Context, root string, rules domain.SkipRules) ([]string, error) {
	root, err := checkRoot(root)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			// Unreadable entries are skipped, the rest of the tree still counts
			logger.Debug("walk %s: %v", path, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if skipped(rel, rules) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Watch starts watching roots recursively and streams changes to regular
// files that pass rules. Directories created later are watched as they appear.
func (c *Connector) Watch(ctx context.Context, roots []string, rules domain.SkipRules) (<-chan domain.FileEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrConnectorClosed
	}
	if c.watcher != nil {
		return nil, errors.New("filesystem: already watching")
	}

	cleaned := make([]string, 0, len(roots))
	for _, root := range roots {
		abs, err := checkRoot(root)
		if err != nil {
			return nil, err
		}
		cleaned = append(cleaned, abs)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	c.watcher = w
	c.roots = cleaned
	c.rules = rules

	for _, root := range cleaned {
		if err := c.addTree(root); err != nil {
			_ = w.Close()
			c.watcher = nil
			return nil, err
		}
	}

	changes := make(chan domain.FileEvent, eventBuffer)
	go c.run(ctx, w, changes)
	return changes, nil
}

// Close stops watching. It is safe to call multiple times.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

func (c *Connector) run(ctx context.Context, w *fsnotify.Watcher, changes chan<- domain.FileEvent) {
	defer close(changes)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			change := c.handleFsEvent(event)
			if change == nil {
				continue
			}
			select {
			case changes <- *change:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// handleFsEvent converts an fsnotify event to a file event.
// It returns nil for events that should not be reported.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.FileEvent {
	rel, ok := c.relative(event.Name)
	if !ok || skipped(rel, c.rules) {
		return nil
	}

	change := &domain.FileEvent{Path: event.Name, At: time.Now()}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		change.Op = domain.FileRemoved
		return change
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if err := c.addTree(event.Name); err != nil {
				logger.Warn("watch %s: %v", event.Name, err)
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		change.Op = domain.FileCreated
		return change
	case event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		change.Op = domain.FileModified
		return change
	default:
		return nil
	}
}

// addTree watches dir and every non-skipped directory beneath it.
func (c *Connector) addTree(dir string) error {
	if c.watcher == nil {
		return ErrConnectorClosed
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := c.relative(path); ok && rel != "." && skipped(rel, c.rules) {
			return filepath.SkipDir
		}
		if err := c.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// relative returns path relative to the watched root containing it.
func (c *Connector) relative(path string) (string, bool) {
	for _, root := range c.roots {
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return rel, true
		}
	}
	return "", false
}

// checkRoot resolves root to an absolute directory path.
func checkRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("root path error: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("root path error: %s does not exist", abs)
		}
		return "", fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root path error: %s is not a directory", abs)
	}
	return abs, nil
}

// skipped reports whether a root-relative path is excluded. Hidden entries,
// configured directory names and secret-looking components are skipped
// wherever they occur; patterns are matched against the slash path.
func skipped(rel string, rules domain.SkipRules) bool {
	if rel == "." || rel == "" {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(part, ".") || rules.SkipsComponent(part) {
			return true
		}
	}
	slashed := filepath.ToSlash(rel)
	for _, pattern := range rules.Patterns {
		if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
			return true
		}
	}
	return false
}
