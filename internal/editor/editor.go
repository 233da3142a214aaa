// Package editor implements the input controls mounted while a field is
// being edited. Each field type has exactly one variant; the Registry maps
// the type tag to its factory once, at editor construction time.
package editor

import (
	"context"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matthewbaird/inplace/internal/types"
)

// Editor is an input control seeded with a raw value. User actions reach
// the owner through the OnCommit and OnCancel callbacks.
type Editor interface {
	Type() types.FieldType
	// Mount seeds the control. Mounting an already mounted editor reseeds it.
	Mount(seed types.Value)
	// Candidate returns the pending value; false when not mounted.
	Candidate() (string, bool)
	OnCommit(fn func(ctx context.Context))
	OnCancel(fn func())
	// Commit is the explicit confirm action.
	Commit(ctx context.Context)
	// Cancel is the explicit cancel action.
	Cancel()
	// Unmount releases callbacks and any picker handle. Later actions are no-ops.
	Unmount()
	Mounted() bool
	// Node renders the control for the current candidate.
	Node() *html.Node
}

// control carries the state shared by every variant.
type control struct {
	desc      *types.FieldDescriptor
	seed      types.Value
	candidate string
	mounted   bool
	onCommit  func(ctx context.Context)
	onCancel  func()
}

func (c *control) mount(seed types.Value) {
	c.seed = seed
	c.candidate = seed.Text
	c.mounted = true
}

func (c *control) Candidate() (string, bool) {
	if !c.mounted {
		return "", false
	}
	return c.candidate, true
}

func (c *control) OnCommit(fn func(ctx context.Context)) { c.onCommit = fn }
func (c *control) OnCancel(fn func())                    { c.onCancel = fn }
func (c *control) Mounted() bool                         { return c.mounted }

func (c *control) Commit(ctx context.Context) {
	if !c.mounted || c.onCommit == nil {
		return
	}
	c.onCommit(ctx)
}

func (c *control) Cancel() {
	if !c.mounted || c.onCancel == nil {
		return
	}
	c.onCancel()
}

func (c *control) unmount() {
	c.mounted = false
	c.onCommit = nil
	c.onCancel = nil
}

func (c *control) Unmount() { c.unmount() }

// changed reports whether the candidate differs from the seed.
func (c *control) changed() bool {
	if c.seed.IsNil() {
		return c.candidate != ""
	}
	return c.candidate != c.seed.Text
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// form wraps a control the way every variant is mounted into the element.
func form(d *types.FieldDescriptor, children ...*html.Node) *html.Node {
	f := element(atom.Form, "class", "form_in_place", "action", "javascript:void(0)", "data-field-type", string(d.Type))
	for _, ch := range children {
		f.AppendChild(ch)
	}
	return f
}
