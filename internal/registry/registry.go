// Package registry tracks the live field controllers by element id.
package registry

import (
	"sort"
	"sync"

	"github.com/matthewbaird/inplace/internal/field"
)

// Registry is a mutex-guarded id → controller map.
type Registry struct {
	mu     sync.RWMutex
	fields map[string]*field.Controller
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{fields: make(map[string]*field.Controller)}
}

// Put stores c under its id and returns the controller it replaced, if any.
// The caller destroys the replaced controller.
func (r *Registry) Put(c *field.Controller) *field.Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.fields[c.ID()]
	r.fields[c.ID()] = c
	return old
}

// Get looks up a controller by id.
func (r *Registry) Get(id string) (*field.Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.fields[id]
	return c, ok
}

// Remove drops id and returns the controller that was stored there.
func (r *Registry) Remove(id string) (*field.Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.fields[id]
	delete(r.fields, id)
	return c, ok
}

// Len returns the number of registered controllers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fields)
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.fields))
	for id := range r.fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Bound returns every controller bound to the attribute of one object,
// sorted by id. Several elements may edit the same attribute.
func (r *Registry) Bound(object, objectID, attribute string) []*field.Controller {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*field.Controller
	for _, c := range r.fields {
		d := c.Descriptor()
		if d.BoundTo(object, objectID, attribute) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
