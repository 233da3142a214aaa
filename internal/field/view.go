package field

import (
	"github.com/matthewbaird/inplace/internal/editor"
	"github.com/matthewbaird/inplace/internal/types"
)

// View is the element a controller reconciles on every transition.
type View interface {
	// ShowDisplay replaces the element content. markup is true when content
	// is server-rendered HTML rather than text.
	ShowDisplay(content string, markup bool)
	// ShowEditor mounts the editor control in place of the display content.
	ShowEditor(e editor.Editor)
	// ShowErrors renders inline messages next to the mounted editor; nil
	// clears them.
	ShowErrors(messages []string)
	// Detach releases the element; the controller will not touch it again.
	Detach()
}

// RawRecorder is implemented by views that keep the confirmed raw value on
// the element, so a later activation reads the current value.
type RawRecorder interface {
	RecordRaw(raw types.Value)
}

type nopView struct{}

func (nopView) ShowDisplay(string, bool)  {}
func (nopView) ShowEditor(editor.Editor) {}
func (nopView) ShowErrors([]string)      {}
func (nopView) Detach()                  {}
