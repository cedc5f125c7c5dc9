package dialect

import (
	"fmt"
	"sync"
)

// Adapter bundles the per-dialect knowledge the rest of the core
// consults: its feature matrix, type map, blocked-feature sets, and
// diagnostic catalog (spec.md §4.1).
type Adapter struct {
	Name            string
	Features        Features
	TypeMap         TypeMap
	BlockedFeatures BlockedFeatures
	Diagnostics     DiagnosticCatalog
}

// SupportsIndexMethod reports whether method is usable on this dialect.
func (a *Adapter) SupportsIndexMethod(method string) bool {
	return !a.BlockedFeatures.blocksIndexMethod(method)
}

// SupportsConstraintKind reports whether kind is usable on this dialect.
func (a *Adapter) SupportsConstraintKind(kind string) bool {
	return !a.BlockedFeatures.blocksConstraintKind(kind)
}

// SupportsTableFeature reports whether feature is usable on this dialect.
func (a *Adapter) SupportsTableFeature(feature string) bool {
	return !a.BlockedFeatures.blocksTableFeature(feature)
}

// Factory lazily builds an Adapter. Factories run at most once per
// dialect name; the result is cached.
type Factory func() (*Adapter, error)

// Registry is a lazy, cached, per-dialect-name adapter registry.
// RegisterLazy/Unregister/ClearCache exist for test isolation.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	cache     map[string]*Adapter
}

// NewRegistry returns an empty registry. Use RegisterLazy to populate it.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		cache:     make(map[string]*Adapter),
	}
}

// RegisterLazy registers a factory for name. It does not invoke factory;
// the first Get call does, caching the result for subsequent calls.
func (r *Registry) RegisterLazy(name string, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("dialect %q: factory must not be nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	delete(r.cache, name)
	return nil
}

// Unregister removes name's factory and any cached adapter.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, name)
	delete(r.cache, name)
}

// ClearCache drops every cached adapter without removing factories, so
// the next Get call re-runs them. Used between test cases that mutate
// adapter state.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*Adapter)
}

// Get returns the cached adapter for name, invoking and caching its
// factory on first use.
func (r *Registry) Get(name string) (*Adapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if adapter, ok := r.cache[name]; ok {
		return adapter, nil
	}
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("dialect %q is not registered", name)
	}
	adapter, err := factory()
	if err != nil {
		return nil, fmt.Errorf("dialect %q: factory failed: %w", name, err)
	}
	r.cache[name] = adapter
	return adapter, nil
}

// Names returns the registered dialect names, in no particular order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

var defaultRegistry = NewRegistry()

func init() {
	for name, loader := range builtinLoaders {
		name, loader := name, loader
		_ = defaultRegistry.RegisterLazy(name, func() (*Adapter, error) {
			return loader()
		})
	}
}

// Default returns the package-level registry, pre-populated with every
// built-in dialect adapter.
func Default() *Registry { return defaultRegistry }

// Get is a convenience wrapper around Default().Get.
func Get(name string) (*Adapter, error) { return defaultRegistry.Get(name) }
