// Package types provides the shared vocabulary of the inline editing engine:
// field types, raw values, collection options and the per-element
// FieldDescriptor parsed once at activation.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FieldType selects the editor variant for a field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldBoolean  FieldType = "boolean"
	FieldDate     FieldType = "date"
)

// FieldTypes lists every supported field type in declaration order.
var FieldTypes = []FieldType{FieldText, FieldTextarea, FieldSelect, FieldBoolean, FieldDate}

// ParseFieldType maps a markup tag to a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range FieldTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown field type %q", s)
}

// Value is a raw field value. The zero Value is absent (nil), which is
// observably different from the empty string.
type Value struct {
	Text  string
	Valid bool
}

// Nil is the absent value.
var Nil = Value{}

// Some wraps s as a present value.
func Some(s string) Value { return Value{Text: s, Valid: true} }

// IsNil reports whether the value is absent.
func (v Value) IsNil() bool { return !v.Valid }

// IsEmpty reports whether the value is present and the empty string.
func (v Value) IsEmpty() bool { return v.Valid && v.Text == "" }

// String returns the text, or "<nil>" for the absent value.
func (v Value) String() string {
	if !v.Valid {
		return "<nil>"
	}
	return v.Text
}

// MarshalJSON encodes the absent value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON accepts null, strings, numbers and booleans.
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = Nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = Some(s)
		return nil
	}
	var raw json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) > 0 && (raw[0] == '{' || raw[0] == '[') {
		return fmt.Errorf("value must be a scalar, got %s", raw)
	}
	*v = Some(string(raw))
	return nil
}

// Option is one entry of a select or boolean collection.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Options is an ordered collection.
type Options []Option

// Label returns the label for value.
func (o Options) Label(value string) (string, bool) {
	for _, opt := range o {
		if opt.Value == value {
			return opt.Label, true
		}
	}
	return "", false
}

// ValueOf returns the value carrying label.
func (o Options) ValueOf(label string) (string, bool) {
	for _, opt := range o {
		if opt.Label == label {
			return opt.Value, true
		}
	}
	return "", false
}

// UnmarshalJSON accepts [[value, label], ...], [{"value":..,"label":..}, ...]
// and {"value": "label", ...}; object key order is preserved.
func (o *Options) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*o = nil
		return nil
	}
	switch b[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		out := make(Options, 0, len(items))
		for _, item := range items {
			var pair []Value
			if err := json.Unmarshal(item, &pair); err == nil {
				if len(pair) != 2 {
					return fmt.Errorf("collection pair must have 2 entries, got %d", len(pair))
				}
				out = append(out, Option{Value: pair[0].Text, Label: pair[1].Text})
				continue
			}
			var opt Option
			if err := json.Unmarshal(item, &opt); err != nil {
				return fmt.Errorf("collection entry %s: %w", item, err)
			}
			out = append(out, opt)
		}
		*o = out
		return nil
	case '{':
		dec := json.NewDecoder(bytes.NewReader(b))
		if _, err := dec.Token(); err != nil {
			return err
		}
		var out Options
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ := tok.(string)
			var label Value
			if err := dec.Decode(&label); err != nil {
				return err
			}
			out = append(out, Option{Value: key, Label: label.Text})
		}
		*o = out
		return nil
	}
	return fmt.Errorf("unsupported collection encoding: %s", b)
}

// FormatOptions configures the formatter pipeline. The controller never
// looks inside; only the format package does.
type FormatOptions struct {
	Formatter string            `json:"formatter,omitempty"`
	Parser    string            `json:"parser,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
}

// Param returns Params[key] or def.
func (f FormatOptions) Param(key, def string) string {
	if v, ok := f.Params[key]; ok && v != "" {
		return v
	}
	return def
}

// PickerOptions configures the calendar picker of date fields, independently
// of the display formatter.
type PickerOptions struct {
	DateFormat string `json:"dateFormat,omitempty"` // strftime pattern
}

// DefaultPickerFormat is used when a date field sets no picker format.
const DefaultPickerFormat = "%Y-%m-%d"

// State is the controller state.
type State string

const (
	StateDisplay      State = "display"
	StateEditing      State = "editing"
	StateSubmitting   State = "submitting"
	StateErrorDisplay State = "error_display"
)
