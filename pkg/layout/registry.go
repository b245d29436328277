package layout

import (
	"slices"
	"sync"

	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

const (
	KindGeneric = "generic"
	KindFile    = "file"
)

// Factory finishes a descriptor for a kind of step.
type Factory func(desc *model.StepDescriptor) error

// Registry maps step kinds to factories. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry knows the generic kind, fed on standard input, and the file kind, which also receives the path
// of a copy of the document.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(KindGeneric, func(desc *model.StepDescriptor) error {
		desc.Input = model.InputStdin

		return nil
	})
	reg.Register(KindFile, func(desc *model.StepDescriptor) error {
		desc.Input = model.InputFile

		return nil
	})

	return reg
}

// Register adds a factory. It overwrites any existing registration.
func (r *Registry) Register(kind string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

func (r *Registry) Get(kind string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[kind]

	return factory, ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)

	return kinds
}
