package editor

import (
	"fmt"
	"sync"
	"time"

	"github.com/matthewbaird/inplace/internal/types"
)

// Factory builds an unmounted editor for a descriptor.
type Factory func(d *types.FieldDescriptor) Editor

// Registry maps field types to editor factories. It holds no per-field state.
type Registry struct {
	mu        sync.RWMutex
	factories map[types.FieldType]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[types.FieldType]Factory)}
}

// DefaultRegistry registers the five built-in variants. now feeds the date
// picker's notion of today; nil means time.Now.
func DefaultRegistry(now func() time.Time) *Registry {
	r := NewRegistry()
	r.Register(types.FieldText, NewText)
	r.Register(types.FieldTextarea, NewTextarea)
	r.Register(types.FieldSelect, NewSelect)
	r.Register(types.FieldBoolean, NewBoolean)
	r.Register(types.FieldDate, NewDate(now))
	return r
}

// Register adds or replaces the factory for t.
func (r *Registry) Register(t types.FieldType, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[t] = f
}

// Has reports whether t has a factory.
func (r *Registry) Has(t types.FieldType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[t]
	return ok
}

// New builds the editor for d.
func (r *Registry) New(d *types.FieldDescriptor) (Editor, error) {
	r.mu.RLock()
	f, ok := r.factories[d.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, &types.ConfigError{FieldID: d.ID, Reason: fmt.Sprintf("no editor for field type %q", d.Type)}
	}
	return f(d), nil
}
