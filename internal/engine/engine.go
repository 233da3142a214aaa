// Package engine activates editable elements on a page and exposes the
// programmatic API host code drives fields with.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/matthewbaird/inplace/internal/activity"
	"github.com/matthewbaird/inplace/internal/editor"
	"github.com/matthewbaird/inplace/internal/event"
	"github.com/matthewbaird/inplace/internal/eventbus"
	"github.com/matthewbaird/inplace/internal/field"
	"github.com/matthewbaird/inplace/internal/format"
	"github.com/matthewbaird/inplace/internal/page"
	"github.com/matthewbaird/inplace/internal/registry"
	"github.com/matthewbaird/inplace/internal/types"
)

// ErrUnknownField is returned for ids no controller is registered under.
var ErrUnknownField = fmt.Errorf("%w: unknown field", field.ErrUsage)

// Options configures an Engine. Editors and Formats default to the
// built-in registries, Store to a MemoryStore.
type Options struct {
	Editors *editor.Registry
	Formats *format.Registry
	Client  field.Submitter
	Store   activity.Store
	Log     zerolog.Logger
}

type listener struct {
	name    event.Name
	label   string
	handler eventbus.Handler
}

// Engine owns every live controller.
type Engine struct {
	editors  *editor.Registry
	formats  *format.Registry
	client   field.Submitter
	fields   *registry.Registry
	recorder *activity.Recorder
	logs     *eventbus.LogConsumer
	log      zerolog.Logger

	mu        sync.RWMutex
	listeners []listener
}

// New creates an engine.
func New(opts Options) (*Engine, error) {
	if opts.Client == nil {
		return nil, errors.New("engine: a client is required")
	}
	if opts.Editors == nil {
		opts.Editors = editor.DefaultRegistry(nil)
	}
	if opts.Formats == nil {
		opts.Formats = format.DefaultRegistry()
	}
	if opts.Store == nil {
		opts.Store = activity.NewMemoryStore()
	}
	return &Engine{
		editors:  opts.Editors,
		formats:  opts.Formats,
		client:   opts.Client,
		fields:   registry.New(),
		recorder: activity.NewRecorder(opts.Store, opts.Log),
		logs:     eventbus.NewLogConsumer(opts.Log),
		log:      opts.Log,
	}, nil
}

// On attaches h to every current and future controller.
func (e *Engine) On(name event.Name, label string, h eventbus.Handler) {
	e.mu.Lock()
	e.listeners = append(e.listeners, listener{name: name, label: label, handler: h})
	e.mu.Unlock()

	for _, id := range e.fields.IDs() {
		if c, ok := e.fields.Get(id); ok {
			c.On(name, label, h)
		}
	}
}

// Activate creates a controller for every editable element inside
// container. A field with a configuration error is skipped and its error
// joined into the returned error; the others are still activated.
func (e *Engine) Activate(ctx context.Context, container *page.Element) ([]*field.Controller, error) {
	var (
		out  []*field.Controller
		errs []error
	)
	for _, el := range container.Fields() {
		cfg, err := el.Config()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		c, err := e.ActivateOne(ctx, cfg, el)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, c)
	}
	e.log.Debug().Int("fields", len(out)).Int("failed", len(errs)).Msg("engine: activated")
	return out, errors.Join(errs...)
}

// ActivateOne validates cfg and creates a controller reconciling view.
// A controller already registered under the same id is destroyed first.
func (e *Engine) ActivateOne(ctx context.Context, cfg types.Config, view field.View) (*field.Controller, error) {
	d, err := types.NewDescriptor(cfg)
	if err != nil {
		return nil, err
	}
	if !e.editors.Has(d.Type) {
		return nil, &types.ConfigError{FieldID: d.ID, Reason: fmt.Sprintf("no editor for field type %q", d.Type)}
	}
	pipeline, err := e.formats.Pipeline(d)
	if err != nil {
		return nil, err
	}

	if old, ok := e.fields.Remove(d.ID); ok {
		e.log.Debug().Str("field", d.ID).Msg("engine: replacing controller")
		old.Destroy(ctx)
	}

	c, err := field.New(d, field.Deps{
		Editors:  e.editors,
		Pipeline: pipeline,
		Client:   e.client,
		View:     view,
		Log:      e.log,
	})
	if err != nil {
		return nil, err
	}

	c.On(eventbus.All, "log", e.logs)
	c.On(eventbus.All, "activity", e.recorder)
	c.On(event.Update, "siblings", eventbus.HandlerFunc(e.refreshSiblings))
	e.mu.RLock()
	for _, l := range e.listeners {
		c.On(l.name, l.label, l.handler)
	}
	e.mu.RUnlock()

	if replaced := e.fields.Put(c); replaced != nil && replaced != c {
		replaced.Destroy(ctx)
	}
	return c, nil
}

// Controller looks up a controller by field id.
func (e *Engine) Controller(id string) (*field.Controller, bool) {
	return e.fields.Get(id)
}

// Fields returns the ids of every live controller, sorted.
func (e *Engine) Fields() []string { return e.fields.IDs() }

// Update applies raw to a field as if the user typed it and confirmed.
func (e *Engine) Update(ctx context.Context, id, raw string) error {
	c, ok := e.fields.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, id)
	}
	return c.Update(ctx, raw)
}

// Destroy tears down one field.
func (e *Engine) Destroy(ctx context.Context, id string) error {
	c, ok := e.fields.Remove(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, id)
	}
	c.Destroy(ctx)
	return nil
}

// Close destroys every field.
func (e *Engine) Close(ctx context.Context) {
	for _, id := range e.fields.IDs() {
		if c, ok := e.fields.Remove(id); ok {
			c.Destroy(ctx)
		}
	}
}

// Refresh applies a value confirmed outside the page to every field bound
// to the attribute and returns how many were refreshed. Fields being edited
// are left alone.
func (e *Engine) Refresh(object, objectID, attribute string, raw types.Value, display *string) int {
	n := 0
	for _, c := range e.fields.Bound(object, objectID, attribute) {
		if c.Refresh(raw, display) {
			n++
		}
	}
	return n
}

// History returns the latest events of a field, newest first.
func (e *Engine) History(ctx context.Context, id string, limit int) ([]event.Event, error) {
	return e.recorder.History(ctx, id, limit)
}

// Search finds recorded events whose summary contains q.
func (e *Engine) Search(ctx context.Context, q, fieldPrefix string, limit int) ([]event.Event, int, error) {
	return e.recorder.Search(ctx, q, fieldPrefix, limit)
}

// Summary aggregates the recent history of a field.
func (e *Engine) Summary(ctx context.Context, id string) (activity.Summary, error) {
	return e.recorder.Summary(ctx, id)
}

// refreshSiblings propagates a confirmed update to the other elements bound
// to the same attribute. Each sibling renders with its own formatter.
func (e *Engine) refreshSiblings(_ context.Context, evt event.Event) error {
	src, ok := e.fields.Get(evt.FieldID)
	if !ok {
		return nil
	}
	d := src.Descriptor()
	for _, c := range e.fields.Bound(d.Object, d.ObjectID, d.Attribute) {
		if c == src {
			continue
		}
		if c.Refresh(evt.NewValue, nil) {
			e.log.Debug().Str("field", c.ID()).Str("source", src.ID()).Msg("engine: sibling refreshed")
		}
	}
	return nil
}
