package loaders

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.LoaderRegistry = (*Registry)(nil)

// Registry maps file extensions to loaders through an extension table.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	table   map[string]domain.LoaderKind
	loaders map[domain.LoaderKind]driven.Loader
}

// NewRegistry creates a registry for the given extension table.
// Extensions are matched case-insensitively.
func NewRegistry(table map[string]domain.LoaderKind) *Registry {
	normalised := make(map[string]domain.LoaderKind, len(table))
	for ext, kind := range table {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalised[ext] = kind
	}
	return &Registry{
		table:   normalised,
		loaders: make(map[domain.LoaderKind]driven.Loader),
	}
}

// Register adds a loader for its kind, replacing any existing one.
func (r *Registry) Register(loader driven.Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[loader.Kind()] = loader
}

// ForPath returns the loader configured for the path's extension.
func (r *Registry) ForPath(path string) (driven.Loader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kind, ok := r.table[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, false
	}
	loader, ok := r.loaders[kind]
	return loader, ok
}

// Supports reports whether the path's extension has a loader.
func (r *Registry) Supports(path string) bool {
	_, ok := r.ForPath(path)
	return ok
}

// Extensions returns the extensions that resolve to a registered loader.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.table))
	for ext, kind := range r.table {
		if _, ok := r.loaders[kind]; ok {
			exts = append(exts, ext)
		}
	}
	slices.Sort(exts)
	return exts
}
