// Package field implements the per-field controller: the state machine that
// mounts editors, submits candidates, applies confirmed values and emits
// lifecycle events.
//
// A controller is driven from one logical thread at a time. The only
// blocking point is the update request inside Confirm; while it is in
// flight the controller is Submitting and rejects further submits, so at
// most one request per field is ever outstanding and responses are applied
// in submission order.
package field

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/matthewbaird/inplace/internal/editor"
	"github.com/matthewbaird/inplace/internal/event"
	"github.com/matthewbaird/inplace/internal/eventbus"
	"github.com/matthewbaird/inplace/internal/format"
	"github.com/matthewbaird/inplace/internal/syncclient"
	"github.com/matthewbaird/inplace/internal/types"
)

var (
	// ErrUsage is wrapped by every caller mistake. Usage errors never change
	// controller state.
	ErrUsage          = errors.New("inplace: usage error")
	ErrSubmitInFlight = fmt.Errorf("%w: an update for this field is already in flight", ErrUsage)
	ErrNotEditing     = fmt.Errorf("%w: field is not being edited", ErrUsage)
	ErrDestroyed      = fmt.Errorf("%w: field was destroyed", ErrUsage)
)

// Submitter sends a candidate to the server.
type Submitter interface {
	Submit(ctx context.Context, d *types.FieldDescriptor, value string) syncclient.Result
}

// Deps are the collaborators of a controller.
type Deps struct {
	Editors  *editor.Registry
	Pipeline format.Pipeline
	Client   Submitter
	View     View
	Log      zerolog.Logger
}

// Controller owns one editable field.
type Controller struct {
	mu        sync.Mutex
	desc      types.FieldDescriptor
	state     types.State
	editor    editor.Editor
	errors    []string
	markup    bool
	destroyed bool
	// pending is a value confirmed elsewhere while this field was being
	// edited; a cancel shows it.
	pending *refresh

	editors  *editor.Registry
	pipeline format.Pipeline
	client   Submitter
	view     View
	bus      *eventbus.Bus
	log      zerolog.Logger
}

type refresh struct {
	raw     types.Value
	display *string
}

// New builds a controller in Display and paints the initial display value.
func New(d *types.FieldDescriptor, deps Deps) (*Controller, error) {
	if deps.Editors == nil || deps.Client == nil {
		return nil, errors.New("field: editors and client are required")
	}
	if !deps.Editors.Has(d.Type) {
		return nil, &types.ConfigError{FieldID: d.ID, Reason: fmt.Sprintf("no editor for field type %q", d.Type)}
	}
	view := deps.View
	if view == nil {
		view = nopView{}
	}
	c := &Controller{
		desc:     *d,
		state:    types.StateDisplay,
		editors:  deps.Editors,
		pipeline: deps.Pipeline,
		client:   deps.Client,
		view:     view,
		log:      deps.Log.With().Str("field", d.ID).Logger(),
	}
	c.bus = eventbus.New(c.log)
	c.desc.Display = c.render(c.desc.Raw)
	c.view.ShowDisplay(c.desc.Display, false)
	c.recordRaw()
	return c, nil
}

// ID returns the field id.
func (c *Controller) ID() string { return c.desc.ID }

// Descriptor returns a snapshot of the descriptor.
func (c *Controller) Descriptor() types.FieldDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.desc
	return d
}

// State returns the current state.
func (c *Controller) State() types.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Raw returns the last confirmed raw value.
func (c *Controller) Raw() types.Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.desc.Raw
}

// Display returns the content shown outside edit mode.
func (c *Controller) Display() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.desc.Display
}

// Errors returns the messages of the last failed submit while in
// ErrorDisplay, nil otherwise.
func (c *Controller) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.errors == nil {
		return nil
	}
	return append([]string(nil), c.errors...)
}

// Editor returns the mounted editor, nil outside edit mode.
func (c *Controller) Editor() editor.Editor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editor
}

// On attaches a listener for one event name (or eventbus.All).
func (c *Controller) On(name event.Name, label string, h eventbus.Handler) *eventbus.Subscription {
	return c.bus.Subscribe(name, label, h)
}

// Activate mounts an editor seeded with the raw value. Activating a field
// that is already being edited is a no-op.
func (c *Controller) Activate(ctx context.Context) error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return ErrDestroyed
	}
	if c.state != types.StateDisplay {
		c.mu.Unlock()
		return nil
	}
	ed, err := c.editors.New(&c.desc)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	ed.Mount(c.desc.Raw)
	ed.OnCommit(func(ctx context.Context) {
		if err := c.Confirm(ctx); err != nil {
			c.log.Warn().Err(err).Msg("field: commit rejected")
		}
	})
	ed.OnCancel(func() {
		if err := c.Cancel(context.Background()); err != nil {
			c.log.Warn().Err(err).Msg("field: cancel rejected")
		}
	})
	c.editor = ed
	c.transition(types.StateEditing)
	c.view.ShowEditor(ed)
	evt := event.NewActivate(c.desc.ID, c.desc.Raw)
	c.mu.Unlock()

	c.bus.Publish(ctx, evt)
	return nil
}

// Confirm submits the editor's candidate. Validation and transport failures
// are not returned: they move the field to ErrorDisplay and emit an error
// event. Only usage errors are returned.
func (c *Controller) Confirm(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.destroyed:
		c.mu.Unlock()
		return ErrDestroyed
	case c.state == types.StateSubmitting:
		c.mu.Unlock()
		return ErrSubmitInFlight
	case c.state == types.StateDisplay:
		c.mu.Unlock()
		return ErrNotEditing
	}
	candidate, ok := c.editor.Candidate()
	if !ok {
		c.mu.Unlock()
		return ErrNotEditing
	}
	submission := c.pipeline.ParseForSubmit(candidate)
	c.transition(types.StateSubmitting)
	desc := c.desc
	c.mu.Unlock()

	res := c.client.Submit(ctx, &desc, submission)

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		c.log.Debug().Stringer("kind", res.Kind).Msg("field: response after destroy dropped")
		return nil
	}
	var evt event.Event
	if res.Kind == syncclient.Success {
		previous := c.desc.Raw
		c.desc.Raw = res.Value
		if res.Display != nil {
			c.desc.Display, c.markup = *res.Display, true
		} else {
			c.desc.Display, c.markup = c.render(res.Value), false
		}
		c.errors = nil
		c.pending = nil
		c.unmountEditor()
		c.transition(types.StateDisplay)
		c.view.ShowDisplay(c.desc.Display, c.markup)
		c.recordRaw()
		evt = event.NewUpdate(c.desc.ID, previous, c.desc.Raw)
	} else {
		c.errors = append([]string(nil), res.Errors...)
		c.transition(types.StateErrorDisplay)
		c.view.ShowEditor(c.editor)
		c.view.ShowErrors(c.errors)
		if res.Err != nil {
			c.log.Info().Err(res.Err).Stringer("kind", res.Kind).Msg("field: update failed")
		}
		evt = event.NewError(c.desc.ID, c.desc.Raw, candidate, c.errors)
	}
	c.mu.Unlock()

	c.bus.Publish(ctx, evt)
	return nil
}

// Cancel leaves edit mode without a request, showing the last confirmed
// value, including one that arrived through Refresh while editing.
// Cancelling in Display is a no-op; cancelling while Submitting is rejected.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.destroyed:
		c.mu.Unlock()
		return ErrDestroyed
	case c.state == types.StateDisplay:
		c.mu.Unlock()
		return nil
	case c.state == types.StateSubmitting:
		c.mu.Unlock()
		return ErrSubmitInFlight
	}
	c.errors = nil
	c.unmountEditor()
	c.transition(types.StateDisplay)
	if c.pending != nil {
		c.apply(c.pending.raw, c.pending.display)
		c.pending = nil
	} else {
		c.view.ShowDisplay(c.desc.Display, c.markup)
	}
	evt := event.NewDeactivate(c.desc.ID, c.desc.Raw)
	c.mu.Unlock()

	c.bus.Publish(ctx, evt)
	return nil
}

// Update applies raw as if the user typed it: activate, fill, confirm.
// A value the editor cannot take is rejected before anything changes.
func (c *Controller) Update(ctx context.Context, raw string) error {
	if c.State() == types.StateSubmitting {
		return ErrSubmitInFlight
	}
	if err := c.checkFill(raw); err != nil {
		return err
	}
	if err := c.Activate(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	ed := c.editor
	c.mu.Unlock()
	if ed == nil {
		return ErrNotEditing
	}
	if err := editor.Fill(ed, raw); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return c.Confirm(ctx)
}

// Refresh applies a value confirmed elsewhere, such as a sibling element
// bound to the same attribute, and reports whether it was shown. A field
// being edited keeps the value and shows it if the edit is cancelled; a
// successful submit of its own supersedes it.
func (c *Controller) Refresh(raw types.Value, display *string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return false
	}
	if c.state != types.StateDisplay {
		c.pending = &refresh{raw: raw, display: display}
		return false
	}
	c.apply(raw, display)
	return true
}

// apply sets and paints a confirmed value; callers hold mu.
func (c *Controller) apply(raw types.Value, display *string) {
	c.desc.Raw = raw
	if display != nil {
		c.desc.Display, c.markup = *display, true
	} else {
		c.desc.Display, c.markup = c.render(raw), false
	}
	c.view.ShowDisplay(c.desc.Display, c.markup)
	c.recordRaw()
}

// checkFill enters raw into a scratch editor so a value the field's editor
// rejects never mounts the real one.
func (c *Controller) checkFill(raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	ed, err := c.editors.New(&c.desc)
	if err != nil {
		return err
	}
	ed.Mount(c.desc.Raw)
	defer ed.Unmount()
	if err := editor.Fill(ed, raw); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// Destroy unmounts any editor, emits destroy and detaches every listener.
// A submit in flight settles into nothing.
func (c *Controller) Destroy(ctx context.Context) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	c.errors = nil
	c.pending = nil
	c.unmountEditor()
	c.state = types.StateDisplay
	c.view.Detach()
	evt := event.NewDestroy(c.desc.ID, c.desc.Raw)
	c.mu.Unlock()

	c.bus.Publish(ctx, evt)
	c.bus.Close()
}

// Destroyed reports whether Destroy ran.
func (c *Controller) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

// render applies the placeholder rules, then the display formatter.
func (c *Controller) render(raw types.Value) string {
	switch {
	case raw.IsNil():
		return c.desc.PlaceholderNil
	case raw.IsEmpty():
		return c.desc.PlaceholderEmpty
	}
	return c.pipeline.RenderDisplay(raw.Text)
}

func (c *Controller) recordRaw() {
	if rr, ok := c.view.(RawRecorder); ok {
		rr.RecordRaw(c.desc.Raw)
	}
}

func (c *Controller) unmountEditor() {
	if c.editor != nil {
		c.editor.Unmount()
		c.editor = nil
	}
}

// transition moves to target; callers have already checked the state.
func (c *Controller) transition(target types.State) {
	if err := ValidateTransition(c.state, target); err != nil {
		c.log.Error().Err(err).Msg("field: invalid transition")
		return
	}
	c.log.Debug().Str("from", string(c.state)).Str("to", string(target)).Msg("field: transition")
	c.state = target
}
