package editor

import (
	"context"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matthewbaird/inplace/internal/types"
)

// Text is the single-line and multi-line text editor.
type Text struct {
	control
	multiline bool
}

// NewText returns a single-line editor.
func NewText(d *types.FieldDescriptor) Editor { return &Text{control: control{desc: d}} }

// NewTextarea returns a multi-line editor.
func NewTextarea(d *types.FieldDescriptor) Editor {
	return &Text{control: control{desc: d}, multiline: true}
}

func (e *Text) Type() types.FieldType {
	if e.multiline {
		return types.FieldTextarea
	}
	return types.FieldText
}

func (e *Text) Mount(seed types.Value) { e.mount(seed) }

// SetText replaces the typed content.
func (e *Text) SetText(s string) {
	if e.mounted {
		e.candidate = s
	}
}

// Blur commits a changed value and cancels an unchanged one.
func (e *Text) Blur(ctx context.Context) {
	if !e.mounted {
		return
	}
	if e.changed() {
		e.Commit(ctx)
		return
	}
	e.Cancel()
}

func (e *Text) Node() *html.Node {
	name := e.desc.ParamKey()
	if e.multiline {
		ta := element(atom.Textarea, "name", name, "class", "inplace-input")
		ta.AppendChild(text(e.candidate))
		return form(e.desc, ta)
	}
	return form(e.desc, element(atom.Input, "type", "text", "name", name, "class", "inplace-input", "value", e.candidate))
}
