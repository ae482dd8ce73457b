package postprocessors

import (
	"fmt"
	"slices"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// BuilderFunc creates a processor from the chunking settings.
type BuilderFunc func(cfg domain.ChunkerSettings) (driven.PostProcessor, error)

// Registry maps processor names to builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register adds a builder. Names must be unique.
func (r *Registry) Register(name string, builder BuilderFunc) error {
	if _, ok := r.builders[name]; ok {
		return fmt.Errorf("processor %q already registered", name)
	}
	r.builders[name] = builder
	return nil
}

// Pipeline builds the named processors, in order, into a pipeline.
func (r *Registry) Pipeline(cfg domain.ChunkerSettings, names ...string) (*Pipeline, error) {
	procs := make([]driven.PostProcessor, 0, len(names))
	for _, name := range names {
		builder, ok := r.builders[name]
		if !ok {
			return nil, fmt.Errorf("unknown processor: %s", name)
		}
		proc, err := builder(cfg)
		if err != nil {
			return nil, fmt.Errorf("build processor %s: %w", name, err)
		}
		procs = append(procs, proc)
	}
	return NewPipeline(procs...), nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
