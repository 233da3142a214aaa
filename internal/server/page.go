package server

import (
	"encoding/json"
	"html/template"
	"io"

	"github.com/matthewbaird/inplace/internal/format"
	"github.com/matthewbaird/inplace/internal/types"
)

// pageField is one editable element on the user page.
type pageField struct {
	ID          string
	Label       string
	Attribute   string
	Type        types.FieldType
	Value       types.Value
	Display     string
	Placeholder string
	Collection  string
	Format      string
	Picker      string
}

type pageData struct {
	Model    string
	RecordID string
	URL      string
	Fields   []pageField
}

var userPage = template.Must(template.New("user").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Model}} {{.RecordID}}</title></head>
<body>
<div id="user_account">
{{- range .Fields}}
  <p><b>{{.Label}}:</b>
  <span id="{{.ID}}" data-inplace-object="{{$.Model}}" data-inplace-object-id="{{$.RecordID}}"
        data-inplace-attribute="{{.Attribute}}" data-inplace-type="{{.Type}}" data-inplace-url="{{$.URL}}"
        {{- if .Value.IsNil}} data-inplace-nil{{else}} data-inplace-value="{{.Value.Text}}"{{end}}
        {{- if .Placeholder}} data-inplace-placeholder="{{.Placeholder}}"{{end}}
        {{- if .Collection}} data-inplace-collection="{{.Collection}}"{{end}}
        {{- if .Format}} data-inplace-format="{{.Format}}"{{end}}
        {{- if .Picker}} data-inplace-picker="{{.Picker}}"{{end}}>{{.Display}}</span></p>
{{- end}}
</div>
</body>
</html>
`))

// fieldSpec describes how the page presents one attribute.
type fieldSpec struct {
	id          string
	attribute   string
	typ         types.FieldType
	placeholder string
	collection  types.Options
	format      types.FormatOptions
	picker      types.PickerOptions
}

var userFields = []fieldSpec{
	{attribute: "name", typ: types.FieldText},
	{attribute: "last_name", typ: types.FieldText, placeholder: "Nothing to show"},
	{attribute: "email", typ: types.FieldText},
	{attribute: "address", typ: types.FieldText,
		format: types.FormatOptions{Formatter: "template", Params: map[string]string{"pattern": addressPattern}}},
	{attribute: "zip", typ: types.FieldText},
	{attribute: "country", typ: types.FieldSelect, collection: Countries},
	{attribute: "receive_email", typ: types.FieldBoolean, collection: EmailPreference},
	{attribute: "birth_date", typ: types.FieldDate, picker: types.PickerOptions{DateFormat: "%d-%m-%Y"}},
	{attribute: "description", typ: types.FieldTextarea},
	{attribute: "money", typ: types.FieldText,
		format: types.FormatOptions{Formatter: "currency", Parser: "number"}},
	{id: "alt_money", attribute: "money", typ: types.FieldText,
		format: types.FormatOptions{Formatter: "currency", Parser: "number", Params: map[string]string{"unit": "€"}}},
}

// renderUserPage writes the editable page for one user.
func renderUserPage(w io.Writer, id, url string, attrs map[string]types.Value, formats *format.Registry) error {
	data := pageData{Model: UserModel, RecordID: id, URL: url}
	for _, spec := range userFields {
		f := pageField{
			ID:          spec.id,
			Label:       Humanize(spec.attribute),
			Attribute:   spec.attribute,
			Type:        spec.typ,
			Value:       attrs[spec.attribute],
			Placeholder: spec.placeholder,
		}
		if f.ID == "" {
			f.ID = types.BuildID(UserModel, id, spec.attribute)
		} else {
			f.Label = Humanize(spec.id)
		}
		if len(spec.collection) > 0 {
			f.Collection = mustJSON(spec.collection)
		}
		if spec.format.Formatter != "" || spec.format.Parser != "" {
			f.Format = mustJSON(spec.format)
		}
		if spec.picker.DateFormat != "" {
			f.Picker = mustJSON(spec.picker)
		}
		f.Display = displayFor(spec, f.Value, formats)
		data.Fields = append(data.Fields, f)
	}
	return userPage.Execute(w, data)
}

// displayFor renders the initial display the way the page's fields will.
func displayFor(spec fieldSpec, v types.Value, formats *format.Registry) string {
	if v.IsNil() {
		if spec.placeholder != "" {
			return spec.placeholder
		}
		return types.DefaultPlaceholder
	}
	if v.IsEmpty() {
		return types.DefaultPlaceholder
	}
	d := &types.FieldDescriptor{Type: spec.typ, Collection: spec.collection, Format: spec.format}
	p, err := formats.Pipeline(d)
	if err != nil {
		return v.Text
	}
	return p.RenderDisplay(v.Text)
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
