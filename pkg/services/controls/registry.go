package controls

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a ready to use Source.
type Factory func() (Source, error)

// Registry manages control source factories by source id.
type Registry interface {
	Register(id string, factory Factory) error
	Create(id string) (Source, error)
	// Build creates the sources in the given order. Unknown or repeated ids are errors.
	Build(ids []string) ([]Source, error)
	IDs() []string
}

type registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() Registry {
	return &registry{
		factories: make(map[string]Factory),
	}
}

func (r *registry) Register(id string, factory Factory) error {
	if id == "" {
		return fmt.Errorf("source id cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("source %q is already registered", id)
	}

	r.factories[id] = factory
	return nil
}

func (r *registry) Create(id string) (Source, error) {
	r.mu.RLock()
	factory, exists := r.factories[id]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("source %q is not registered", id)
	}

	src, err := factory()
	if err != nil {
		return nil, fmt.Errorf("failed to create source %q: %w", id, err)
	}
	return src, nil
}

func (r *registry) Build(ids []string) ([]Source, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no control sources configured")
	}
	seen := make(map[string]struct{}, len(ids))
	sources := make([]Source, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("source %q is configured more than once", id)
		}
		seen[id] = struct{}{}

		src, err := r.Create(id)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func (r *registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
