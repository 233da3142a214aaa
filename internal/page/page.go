// Package page holds the HTML document the engine works on. Editable
// elements are found by their data-inplace-* attributes and reconciled in
// place as their controllers change state.
package page

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matthewbaird/inplace/internal/editor"
	"github.com/matthewbaird/inplace/internal/types"
)

// DOM contract.
const (
	AttrObject      = "data-inplace-object"
	AttrObjectID    = "data-inplace-object-id"
	AttrAttribute   = "data-inplace-attribute"
	AttrType        = "data-inplace-type"
	AttrURL         = "data-inplace-url"
	AttrValue       = "data-inplace-value"
	AttrNil         = "data-inplace-nil"
	AttrPlaceholder = "data-inplace-placeholder"
	AttrEmpty       = "data-inplace-empty"
	AttrCollection  = "data-inplace-collection"
	AttrFormat      = "data-inplace-format"
	AttrPicker      = "data-inplace-picker"
	AttrState       = "data-inplace-state"

	errorsClass = "inplace-errors"
)

// Document is a parsed page.
type Document struct {
	root *html.Node
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return &Document{root: root}, nil
}

// Root returns the document as an element, usable as a container.
func (d *Document) Root() *Element { return &Element{n: d.root} }

// Find returns the element with the given id.
func (d *Document) Find(id string) (*Element, bool) {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil, false
	}
	return &Element{n: found}, true
}

// Fields returns the editable elements inside container (the whole document
// when nil), in document order.
func (d *Document) Fields(container *Element) []*Element {
	if container == nil {
		container = d.Root()
	}
	return container.Fields()
}

// Fields returns the editable elements inside e, e included, in document
// order.
func (e *Element) Fields() []*Element {
	var out []*Element
	walk(e.n, func(n *html.Node) bool {
		if n.Type == html.ElementNode && hasAttr(n, AttrType) {
			out = append(out, &Element{n: n})
			// Editable elements do not nest.
			return false
		}
		return true
	})
	return out
}

// Render writes the document.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// Element is one editable element. It implements field.View.
type Element struct {
	n        *html.Node
	display  string
	markup   bool
	detached bool
}

// ID returns the element id attribute.
func (e *Element) ID() string { return attr(e.n, "id") }

// Attr returns an attribute value, "" when absent.
func (e *Element) Attr(key string) string { return attr(e.n, key) }

// Node returns the underlying node.
func (e *Element) Node() *html.Node { return e.n }

// Text returns the text content, whitespace trimmed.
func (e *Element) Text() string {
	var b strings.Builder
	walk(e.n, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		return true
	})
	return strings.TrimSpace(b.String())
}

// InnerHTML renders the element children. Rendering fails on trees
// html.Render rejects, such as a void element given children.
func (e *Element) InnerHTML() (string, error) {
	var b strings.Builder
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", fmt.Errorf("rendering %s: %w", e.ID(), err)
		}
	}
	return b.String(), nil
}

// OuterHTML renders the element itself.
func (e *Element) OuterHTML() (string, error) {
	var b strings.Builder
	if err := html.Render(&b, e.n); err != nil {
		return "", fmt.Errorf("rendering %s: %w", e.ID(), err)
	}
	return b.String(), nil
}

// Errors returns the inline error messages currently shown.
func (e *Element) Errors() []string {
	list := e.errorList()
	if list == nil {
		return nil
	}
	var out []string
	walk(list, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Li {
			out = append(out, (&Element{n: n}).Text())
			return false
		}
		return true
	})
	return out
}

// Config reads the element's data-inplace-* attributes.
func (e *Element) Config() (types.Config, error) {
	n := e.n
	cfg := types.Config{
		ID:        attr(n, "id"),
		Object:    attr(n, AttrObject),
		ObjectID:  attr(n, AttrObjectID),
		Attribute: attr(n, AttrAttribute),
		Type:      attr(n, AttrType),
		UpdateURL: attr(n, AttrURL),
	}
	fail := func(what string, err error) (types.Config, error) {
		id := cfg.ID
		if id == "" && cfg.Object != "" && cfg.Attribute != "" {
			id = types.BuildID(cfg.Object, cfg.ObjectID, cfg.Attribute)
		}
		return cfg, &types.ConfigError{FieldID: id, Reason: fmt.Sprintf("invalid %s: %v", what, err)}
	}

	switch {
	case hasAttr(n, AttrNil):
		cfg.Raw = types.Nil
	case hasAttr(n, AttrValue):
		cfg.Raw = types.Some(attr(n, AttrValue))
	default:
		cfg.Raw = types.Some(e.Text())
	}
	if hasAttr(n, AttrPlaceholder) {
		s := attr(n, AttrPlaceholder)
		cfg.PlaceholderNil = &s
	}
	if hasAttr(n, AttrEmpty) {
		s := attr(n, AttrEmpty)
		cfg.PlaceholderEmpty = &s
	}
	if v := attr(n, AttrCollection); v != "" {
		if err := json.Unmarshal([]byte(v), &cfg.Collection); err != nil {
			return fail(AttrCollection, err)
		}
	}
	if v := attr(n, AttrFormat); v != "" {
		if err := json.Unmarshal([]byte(v), &cfg.Format); err != nil {
			return fail(AttrFormat, err)
		}
	}
	if v := attr(n, AttrPicker); v != "" {
		if err := json.Unmarshal([]byte(v), &cfg.Picker); err != nil {
			return fail(AttrPicker, err)
		}
	}
	return cfg, nil
}

// ShowDisplay replaces the content with text, or with parsed markup.
func (e *Element) ShowDisplay(content string, markup bool) {
	if e.detached {
		return
	}
	e.display, e.markup = content, markup
	e.paintDisplay()
	setAttr(e.n, AttrState, string(types.StateDisplay))
}

// ShowEditor replaces the content with the editor control.
func (e *Element) ShowEditor(ed editor.Editor) {
	if e.detached || ed == nil {
		return
	}
	removeChildren(e.n)
	e.n.AppendChild(ed.Node())
	setAttr(e.n, AttrState, string(types.StateEditing))
}

// ShowErrors renders messages as a list after the editor; nil removes it.
func (e *Element) ShowErrors(messages []string) {
	if e.detached {
		return
	}
	if list := e.errorList(); list != nil {
		e.n.RemoveChild(list)
	}
	if len(messages) == 0 {
		return
	}
	div := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div",
		Attr: []html.Attribute{{Key: "class", Val: errorsClass}}}
	ul := &html.Node{Type: html.ElementNode, DataAtom: atom.Ul, Data: "ul"}
	for _, m := range messages {
		li := &html.Node{Type: html.ElementNode, DataAtom: atom.Li, Data: "li"}
		li.AppendChild(&html.Node{Type: html.TextNode, Data: m})
		ul.AppendChild(li)
	}
	div.AppendChild(ul)
	e.n.AppendChild(div)
	setAttr(e.n, AttrState, string(types.StateErrorDisplay))
}

// Detach drops any editor or error markup, leaves the last display content
// and ignores later calls.
func (e *Element) Detach() {
	if e.detached {
		return
	}
	e.paintDisplay()
	removeAttr(e.n, AttrState)
	e.detached = true
}

// RecordRaw stores the confirmed raw value in the element attributes.
func (e *Element) RecordRaw(raw types.Value) {
	if e.detached {
		return
	}
	if raw.IsNil() {
		removeAttr(e.n, AttrValue)
		setAttr(e.n, AttrNil, "")
		return
	}
	removeAttr(e.n, AttrNil)
	setAttr(e.n, AttrValue, raw.Text)
}

// Detached reports whether Detach ran.
func (e *Element) Detached() bool { return e.detached }

func (e *Element) paintDisplay() {
	removeChildren(e.n)
	if !e.markup {
		e.n.AppendChild(&html.Node{Type: html.TextNode, Data: e.display})
		return
	}
	nodes, err := html.ParseFragment(strings.NewReader(e.display), e.n)
	if err != nil {
		e.n.AppendChild(&html.Node{Type: html.TextNode, Data: e.display})
		return
	}
	for _, c := range nodes {
		e.n.AppendChild(c)
	}
}

func (e *Element) errorList() *html.Node {
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && attr(c, "class") == errorsClass {
			return c
		}
	}
	return nil
}

// walk visits n and its descendants depth first; fn returns false to skip
// the children of a node.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
}
