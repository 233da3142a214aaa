package editor

import (
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matthewbaird/inplace/internal/types"
)

// Select offers the descriptor collection; its candidate is always an
// option value, never a label.
type Select struct {
	control
}

// NewSelect returns a select editor.
func NewSelect(d *types.FieldDescriptor) Editor { return &Select{control: control{desc: d}} }

func (e *Select) Type() types.FieldType { return types.FieldSelect }

// Mount preselects the seed; a seed outside the collection selects the
// first option.
func (e *Select) Mount(seed types.Value) {
	e.mount(seed)
	if _, ok := e.desc.Collection.Label(seed.Text); !ok && len(e.desc.Collection) > 0 {
		e.candidate = e.desc.Collection[0].Value
	}
}

// Options returns the collection in display order.
func (e *Select) Options() types.Options { return e.desc.Collection }

// Choose selects an option by value.
func (e *Select) Choose(value string) error {
	if !e.mounted {
		return fmt.Errorf("select %s: not mounted", e.desc.ID)
	}
	if _, ok := e.desc.Collection.Label(value); !ok {
		return fmt.Errorf("select %s: no option with value %q", e.desc.ID, value)
	}
	e.candidate = value
	return nil
}

// ChooseLabel selects an option by its visible label.
func (e *Select) ChooseLabel(label string) error {
	value, ok := e.desc.Collection.ValueOf(label)
	if !ok {
		return fmt.Errorf("select %s: no option labelled %q", e.desc.ID, label)
	}
	return e.Choose(value)
}

func (e *Select) Node() *html.Node {
	sel := element(atom.Select, "name", e.desc.ParamKey(), "class", "inplace-input")
	for _, opt := range e.desc.Collection {
		o := element(atom.Option, "value", opt.Value)
		if opt.Value == e.candidate {
			o.Attr = append(o.Attr, html.Attribute{Key: "selected", Val: "selected"})
		}
		o.AppendChild(text(opt.Label))
		sel.AppendChild(o)
	}
	return form(e.desc, sel)
}

// Boolean is a two-state toggle submitting "true" or "false".
type Boolean struct {
	control
}

// NewBoolean returns a boolean editor.
func NewBoolean(d *types.FieldDescriptor) Editor { return &Boolean{control: control{desc: d}} }

func (e *Boolean) Type() types.FieldType { return types.FieldBoolean }

func (e *Boolean) Mount(seed types.Value) {
	e.mount(seed)
	b, _ := types.ParseBool(seed.Text)
	e.candidate = formatBool(b)
}

// Checked reports the current toggle state.
func (e *Boolean) Checked() bool { return e.candidate == "true" }

// Toggle flips the state.
func (e *Boolean) Toggle() {
	if e.mounted {
		e.candidate = formatBool(!e.Checked())
	}
}

// Set forces the state.
func (e *Boolean) Set(b bool) {
	if e.mounted {
		e.candidate = formatBool(b)
	}
}

func (e *Boolean) Node() *html.Node {
	in := element(atom.Input, "type", "checkbox", "name", e.desc.ParamKey(), "class", "inplace-input", "value", "true")
	if e.Checked() {
		in.Attr = append(in.Attr, html.Attribute{Key: "checked", Val: "checked"})
	}
	return form(e.desc, in)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
