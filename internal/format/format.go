// Package format holds the display formatter pipeline: a render hook applied
// to raw values outside edit mode and a parse hook applied to candidates
// before submission. Both hooks are pure.
package format

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/matthewbaird/inplace/internal/types"
)

// RenderFunc turns a raw value into display text. It must not keep state
// between calls.
type RenderFunc func(raw string, opts types.FormatOptions) string

// ParseFunc normalizes a candidate before submission.
type ParseFunc func(candidate string, opts types.FormatOptions) string

// Registry maps formatter and parser names to hooks.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]RenderFunc
	parsers   map[string]ParseFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[string]RenderFunc),
		parsers:   make(map[string]ParseFunc),
	}
}

// DefaultRegistry returns a registry holding the built-in hooks.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterRenderer("currency", Currency)
	r.RegisterRenderer("template", Template)
	r.RegisterRenderer("date", Date)
	r.RegisterRenderer("upcase", func(raw string, _ types.FormatOptions) string { return strings.ToUpper(raw) })
	r.RegisterParser("trim", func(c string, _ types.FormatOptions) string { return strings.TrimSpace(c) })
	r.RegisterParser("number", Number)
	return r
}

// RegisterRenderer adds or replaces a named renderer.
func (r *Registry) RegisterRenderer(name string, fn RenderFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[name] = fn
}

// RegisterParser adds or replaces a named parser.
func (r *Registry) RegisterParser(name string, fn ParseFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[name] = fn
}

// Names returns the registered renderer names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.renderers))
	for n := range r.renderers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Pipeline resolves the hooks for a descriptor. Select and boolean fields
// without a named formatter render their collection label.
func (r *Registry) Pipeline(d *types.FieldDescriptor) (Pipeline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p := Pipeline{opts: d.Format}
	if name := d.Format.Formatter; name != "" {
		fn, ok := r.renderers[name]
		if !ok {
			return Pipeline{}, &types.ConfigError{FieldID: d.ID, Reason: fmt.Sprintf("unknown formatter %q", name)}
		}
		p.render = fn
	} else if d.Type == types.FieldSelect || d.Type == types.FieldBoolean {
		p.render = labelRenderer(d.Collection)
	}
	if name := d.Format.Parser; name != "" {
		fn, ok := r.parsers[name]
		if !ok {
			return Pipeline{}, &types.ConfigError{FieldID: d.ID, Reason: fmt.Sprintf("unknown parser %q", name)}
		}
		p.parse = fn
	}
	return p, nil
}

// Pipeline is the resolved pair of hooks for one field.
type Pipeline struct {
	render RenderFunc
	parse  ParseFunc
	opts   types.FormatOptions
}

// HasRenderer reports whether a display formatter is configured.
func (p Pipeline) HasRenderer() bool { return p.render != nil }

// RenderDisplay formats raw for display; identity without a renderer.
func (p Pipeline) RenderDisplay(raw string) string {
	if p.render == nil {
		return raw
	}
	return p.render(raw, p.opts)
}

// ParseForSubmit normalizes a candidate; identity without a parser.
func (p Pipeline) ParseForSubmit(candidate string) string {
	if p.parse == nil {
		return candidate
	}
	return p.parse(candidate, p.opts)
}

func labelRenderer(c types.Options) RenderFunc {
	return func(raw string, _ types.FormatOptions) string {
		if label, ok := c.Label(raw); ok {
			return label
		}
		if b, ok := types.ParseBool(raw); ok {
			key := "false"
			if b {
				key = "true"
			}
			if label, ok := c.Label(key); ok {
				return label
			}
		}
		return raw
	}
}
