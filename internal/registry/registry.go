package registry

import (
	"fmt"
	"log/slog"
	"sort"
)

// Module is the interface component packages implement to contribute their
// factories to a registry.
type Module interface {
	Register(r *Registry)
}

// Factory holds the Go parts of one constructible component.
type Factory struct {
	// NewInput returns a pointer to a fresh argument struct for the factory,
	// or nil when the factory takes no arguments. The materializer decodes
	// the resolved argument mapping into it.
	NewInput func() any

	// Fn is the constructor. Its signature must be
	// func(ctx context.Context, input *T) (R, error); input is omitted when
	// NewInput is nil.
	Fn any
}

// Registry holds all registered component factories for a single application
// instance.
type Registry struct {
	factories map[string]*Factory
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{factories: make(map[string]*Factory)}
}

// Register adds a factory under its fully-qualified component name.
// Registering the same name twice is a programmer error and panics.
func (r *Registry) Register(name string, f *Factory) {
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("component factory %q already registered", name))
	}
	slog.Debug("Registering component factory.", "name", name)
	r.factories[name] = f
}

// Lookup returns the factory for a component name.
func (r *Registry) Lookup(name string) (*Factory, bool) {
	f, ok := r.factories[name]
	return f, ok
}

// Names returns all registered component names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered factories.
func (r *Registry) Len() int { return len(r.factories) }
