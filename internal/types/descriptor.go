package types

import (
	"fmt"
	"strings"
)

// DefaultPlaceholder is rendered for empty and absent values unless the
// element overrides it.
const DefaultPlaceholder = "-"

// ConfigError reports a field that cannot be activated.
type ConfigError struct {
	FieldID string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.FieldID == "" {
		return "inplace: configuration error: " + e.Reason
	}
	return fmt.Sprintf("inplace: configuration error on %s: %s", e.FieldID, e.Reason)
}

// Config is the unvalidated descriptor input, as read from markup or
// supplied by host code.
type Config struct {
	ID               string
	Object           string
	ObjectID         string
	Attribute        string
	Type             string
	UpdateURL        string
	Raw              Value
	PlaceholderEmpty *string
	PlaceholderNil   *string
	Collection       Options
	Format           FormatOptions
	Picker           PickerOptions
}

// FieldDescriptor is the static configuration of one editable element.
type FieldDescriptor struct {
	ID        string
	Object    string
	ObjectID  string
	Attribute string
	Type      FieldType
	UpdateURL string

	Raw     Value
	Display string

	PlaceholderEmpty string
	PlaceholderNil   string

	Collection Options
	Format     FormatOptions
	Picker     PickerOptions
}

// BuildID derives the stable element id of an attribute.
func BuildID(object, objectID, attribute string) string {
	parts := []string{"inplace", object}
	if objectID != "" {
		parts = append(parts, objectID)
	}
	parts = append(parts, attribute)
	return sanitizeID(strings.Join(parts, "_"))
}

func sanitizeID(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, s)
}

// ParamKey is the form key carrying the submitted value.
func (d *FieldDescriptor) ParamKey() string {
	return d.Object + "[" + d.Attribute + "]"
}

// BoundTo reports whether the descriptor edits the given attribute.
func (d *FieldDescriptor) BoundTo(object, objectID, attribute string) bool {
	return d.Object == object && d.ObjectID == objectID && d.Attribute == attribute
}

// NewDescriptor validates cfg. Editor and formatter availability are checked
// by the engine, which owns those registries.
func NewDescriptor(cfg Config) (*FieldDescriptor, error) {
	id := cfg.ID
	if id == "" && cfg.Object != "" && cfg.Attribute != "" {
		id = BuildID(cfg.Object, cfg.ObjectID, cfg.Attribute)
	}
	fail := func(format string, args ...any) (*FieldDescriptor, error) {
		return nil, &ConfigError{FieldID: id, Reason: fmt.Sprintf(format, args...)}
	}

	if cfg.Object == "" {
		return fail("missing object name")
	}
	if cfg.Attribute == "" {
		return fail("missing attribute name")
	}
	if cfg.Type == "" {
		return fail("missing field type")
	}
	ft, err := ParseFieldType(cfg.Type)
	if err != nil {
		return fail("%v", err)
	}
	if strings.TrimSpace(cfg.UpdateURL) == "" {
		return fail("missing update url")
	}

	switch ft {
	case FieldSelect:
		if len(cfg.Collection) == 0 {
			return fail("select field needs a collection")
		}
	case FieldBoolean:
		if n := len(cfg.Collection); n != 0 && n != 2 {
			return fail("boolean collection needs exactly 2 labels, got %d", n)
		}
	}

	d := &FieldDescriptor{
		ID:               id,
		Object:           cfg.Object,
		ObjectID:         cfg.ObjectID,
		Attribute:        cfg.Attribute,
		Type:             ft,
		UpdateURL:        cfg.UpdateURL,
		Raw:              cfg.Raw,
		PlaceholderEmpty: DefaultPlaceholder,
		PlaceholderNil:   DefaultPlaceholder,
		Collection:       normalizeCollection(ft, cfg.Collection),
		Format:           cfg.Format,
		Picker:           cfg.Picker,
	}
	if cfg.PlaceholderEmpty != nil {
		d.PlaceholderEmpty = *cfg.PlaceholderEmpty
	}
	if cfg.PlaceholderNil != nil {
		d.PlaceholderNil = *cfg.PlaceholderNil
	}
	if ft == FieldDate && d.Picker.DateFormat == "" {
		d.Picker.DateFormat = DefaultPickerFormat
	}
	return d, nil
}

// normalizeCollection keys boolean labels by "false"/"true". Two bare labels
// are read in (false, true) order.
func normalizeCollection(ft FieldType, c Options) Options {
	if ft != FieldBoolean {
		return c
	}
	if len(c) == 0 {
		return Options{{Value: "false", Label: "No"}, {Value: "true", Label: "Yes"}}
	}
	out := make(Options, 2)
	for i, opt := range c {
		b, ok := ParseBool(opt.Value)
		if !ok {
			b = i == 1
		}
		if b {
			out[1] = Option{Value: "true", Label: opt.Label}
		} else {
			out[0] = Option{Value: "false", Label: opt.Label}
		}
	}
	return out
}

// ParseBool reads the boolean spellings accepted from markup and servers.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "yes", "y", "on":
		return true, true
	case "false", "f", "0", "no", "n", "off":
		return false, true
	}
	return false, false
}
