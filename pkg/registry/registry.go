// Package registry manages named storage targets: one IOHandler (and
// its backend) per configured target name.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/marmos91/strata/internal/logger"
	"github.com/marmos91/strata/pkg/dataset"
)

// Registry provides thread-safe registration and lookup of named
// handlers.
//
// Example usage:
//
//	reg := registry.NewRegistry()
//	reg.Register("archive", handler)
//
//	h, _ := reg.Get("archive")
//	defer reg.CloseAll(ctx)
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]*dataset.IOHandler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]*dataset.IOHandler),
	}
}

// Register adds a named handler to the registry.
// Returns an error if a handler with the same name already exists.
func (r *Registry) Register(name string, h *dataset.IOHandler) error {
	if h == nil {
		return fmt.Errorf("cannot register nil handler")
	}
	if name == "" {
		return fmt.Errorf("cannot register handler with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("target %q already registered", name)
	}

	r.handlers[name] = h
	return nil
}

// Get returns the handler registered under name.
func (r *Registry) Get(name string) (*dataset.IOHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, exists := r.handlers[name]
	if !exists {
		return nil, fmt.Errorf("target %q not found", name)
	}
	return h, nil
}

// List returns the sorted names of all registered targets.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered targets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Exists reports whether a target is registered under name.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.handlers[name]
	return exists
}

// CloseAll flushes and closes every registered handler, emptying the
// registry. The first error is returned but every handler is still
// closed.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, h := range r.handlers {
		if err := h.Close(ctx); err != nil {
			logger.Error("closing target %q: %v", name, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("closing target %q: %w", name, err)
			}
		}
		delete(r.handlers, name)
	}
	return firstErr
}
