// Package registry maps module type names to their factories. The same
// table serves interactive module creation and preset loading, so every
// type that can be saved can also be created and vice versa.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cwbudde/algo-modular/engine/module"
)

// Factory builds one module instance.
type Factory func() (module.Module, error)

// ErrDuplicateType is returned when a type name is registered twice.
var ErrDuplicateType = errors.New("registry: duplicate module type")

// Registry maps lowercase type names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// Default is the process-wide registry used when a graph is not given one.
var Default = New()

// New creates an empty registry.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the lowercased typeName.
func (r *Registry) Register(typeName string, factory Factory) error {
	key := strings.ToLower(strings.TrimSpace(typeName))
	if key == "" {
		return errors.New("registry: empty module type")
	}

	if factory == nil {
		return errors.New("registry: nil factory")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, key)
	}

	r.factories[key] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(typeName string, factory Factory) {
	if err := r.Register(typeName, factory); err != nil {
		panic(err.Error())
	}
}

// Lookup finds the factory for typeName. It tries a case-insensitive exact
// match first, then a loose match that also ignores spaces, '-' and '_'.
// The returned name is the registered key.
func (r *Registry) Lookup(typeName string) (string, Factory, bool) {
	key := strings.ToLower(strings.TrimSpace(typeName))
	if key == "" {
		return "", nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.factories[key]; ok {
		return key, f, true
	}

	want := loose(key)

	for _, name := range r.sortedLocked() {
		if loose(name) == want {
			return name, r.factories[name], true
		}
	}

	return "", nil, false
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedLocked()
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.factories)
}

func (r *Registry) sortedLocked() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func loose(s string) string {
	return strings.Map(func(c rune) rune {
		switch c {
		case ' ', '-', '_':
			return -1
		default:
			return c
		}
	}, s)
}
