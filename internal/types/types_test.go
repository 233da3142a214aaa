package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestValue_States(t *testing.T) {
	assert.True(t, Nil.IsNil())
	assert.False(t, Nil.IsEmpty())
	assert.True(t, Some("").IsEmpty())
	assert.False(t, Some("").IsNil())
	assert.False(t, Some("x").IsEmpty())
}

func TestValue_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Value
	}{
		{`null`, Nil},
		{`""`, Some("")},
		{`"abc"`, Some("abc")},
		{`240`, Some("240")},
		{`true`, Some("true")},
	}
	for _, tt := range tests {
		var v Value
		require.NoError(t, json.Unmarshal([]byte(tt.in), &v), tt.in)
		assert.Equal(t, tt.want, v, tt.in)
	}

	var v Value
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &v))
}

func TestOptions_UnmarshalJSON(t *testing.T) {
	want := Options{{Value: "1", Label: "Spain"}, {Value: "2", Label: "Italy"}, {Value: "3", Label: "France"}}
	for _, in := range []string{
		`[["1","Spain"],["2","Italy"],["3","France"]]`,
		`[{"value":"1","label":"Spain"},{"value":"2","label":"Italy"},{"value":"3","label":"France"}]`,
		`{"1":"Spain","2":"Italy","3":"France"}`,
		`[[1,"Spain"],[2,"Italy"],[3,"France"]]`,
	} {
		var got Options
		require.NoError(t, json.Unmarshal([]byte(in), &got), in)
		assert.Equal(t, want, got, in)
	}

	var bad Options
	assert.Error(t, json.Unmarshal([]byte(`[["1"]]`), &bad))
}

func TestOptions_Lookup(t *testing.T) {
	o := Options{{Value: "2", Label: "Italy"}, {Value: "3", Label: "France"}}
	label, ok := o.Label("2")
	assert.True(t, ok)
	assert.Equal(t, "Italy", label)
	value, ok := o.ValueOf("France")
	assert.True(t, ok)
	assert.Equal(t, "3", value)
	_, ok = o.Label("9")
	assert.False(t, ok)
}

func TestBuildID(t *testing.T) {
	assert.Equal(t, "inplace_user_1_email", BuildID("user", "1", "email"))
	assert.Equal(t, "inplace_settings_theme", BuildID("settings", "", "theme"))
	assert.Equal(t, "inplace_user_a_b_name", BuildID("user", "a b", "name"))
}

func TestNewDescriptor(t *testing.T) {
	d, err := NewDescriptor(Config{
		Object:    "user",
		ObjectID:  "1",
		Attribute: "email",
		Type:      "text",
		UpdateURL: "/users/1",
		Raw:       Some("lucianapoli@gmail.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "inplace_user_1_email", d.ID)
	assert.Equal(t, FieldText, d.Type)
	assert.Equal(t, "user[email]", d.ParamKey())
	assert.Equal(t, DefaultPlaceholder, d.PlaceholderEmpty)
	assert.Equal(t, DefaultPlaceholder, d.PlaceholderNil)
	assert.True(t, d.BoundTo("user", "1", "email"))
}

func TestNewDescriptor_Overrides(t *testing.T) {
	d, err := NewDescriptor(Config{
		ID:               "custom",
		Object:           "user",
		ObjectID:         "1",
		Attribute:        "birth_date",
		Type:             "DATE",
		UpdateURL:        "/users/1",
		PlaceholderEmpty: strPtr(""),
		PlaceholderNil:   strPtr("Nothing to show"),
	})
	require.NoError(t, err)
	assert.Equal(t, "custom", d.ID)
	assert.Equal(t, FieldDate, d.Type)
	assert.Equal(t, "", d.PlaceholderEmpty)
	assert.Equal(t, "Nothing to show", d.PlaceholderNil)
	assert.Equal(t, DefaultPickerFormat, d.Picker.DateFormat)
}

func TestNewDescriptor_BooleanCollection(t *testing.T) {
	d, err := NewDescriptor(Config{
		Object: "user", ObjectID: "1", Attribute: "receive_email",
		Type: "boolean", UpdateURL: "/users/1",
		Collection: Options{{Value: "0", Label: "No thanks"}, {Value: "1", Label: "Yes of course"}},
	})
	require.NoError(t, err)
	assert.Equal(t, Options{{Value: "false", Label: "No thanks"}, {Value: "true", Label: "Yes of course"}}, d.Collection)

	d, err = NewDescriptor(Config{
		Object: "user", ObjectID: "1", Attribute: "receive_email",
		Type: "boolean", UpdateURL: "/users/1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Yes", d.Collection[1].Label)
}

func TestNewDescriptor_Errors(t *testing.T) {
	base := Config{Object: "user", ObjectID: "1", Attribute: "email", Type: "text", UpdateURL: "/users/1"}
	tests := []struct {
		name   string
		mutate func(*Config)
		reason string
	}{
		{"unknown type", func(c *Config) { c.Type = "color" }, `unknown field type "color"`},
		{"missing type", func(c *Config) { c.Type = "" }, "missing field type"},
		{"missing url", func(c *Config) { c.UpdateURL = " " }, "missing update url"},
		{"missing object", func(c *Config) { c.Object = "" }, "missing object name"},
		{"missing attribute", func(c *Config) { c.Attribute = "" }, "missing attribute name"},
		{"select without collection", func(c *Config) { c.Type = "select" }, "select field needs a collection"},
		{"boolean with three labels", func(c *Config) {
			c.Type = "boolean"
			c.Collection = Options{{Label: "a"}, {Label: "b"}, {Label: "c"}}
		}, "boolean collection needs exactly 2 labels, got 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			_, err := NewDescriptor(cfg)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.reason, cfgErr.Reason)
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "T", "1", "yes"} {
		b, ok := ParseBool(s)
		assert.True(t, ok && b, s)
	}
	for _, s := range []string{"false", "f", "0", "No"} {
		b, ok := ParseBool(s)
		assert.True(t, ok && !b, s)
	}
	_, ok := ParseBool("maybe")
	assert.False(t, ok)
}
