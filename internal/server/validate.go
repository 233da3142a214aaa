package server

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/matthewbaird/inplace/internal/format"
	"github.com/matthewbaird/inplace/internal/types"
)

//go:embed user.cue
var userSchema string

// Validator checks single-attribute updates against the #User schema and
// normalizes accepted values for storage.
type Validator struct {
	ctx      *cue.Context
	model    cue.Value
	messages map[string]string
	required map[string]bool
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(userSchema, cue.Filename("user.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compiling user schema: %w", err)
	}

	v := &Validator{
		ctx:      ctx,
		model:    root.LookupPath(cue.ParsePath("#User")),
		messages: make(map[string]string),
		required: make(map[string]bool),
	}
	if err := root.LookupPath(cue.ParsePath("#Messages")).Decode(&v.messages); err != nil {
		return nil, fmt.Errorf("decoding #Messages: %w", err)
	}
	var required []string
	if err := root.LookupPath(cue.ParsePath("#Required")).Decode(&required); err != nil {
		return nil, fmt.Errorf("decoding #Required: %w", err)
	}
	for _, r := range required {
		v.required[r] = true
	}
	return v, nil
}

// Attributes lists the editable attributes in schema order.
func (v *Validator) Attributes() []string {
	var out []string
	it, err := v.model.Fields()
	if err != nil {
		return nil
	}
	for it.Next() {
		out = append(out, it.Selector().String())
	}
	return out
}

// Validate checks raw for attribute and returns the normalized value, or
// the full error messages ("Email has wrong email format").
func (v *Validator) Validate(attribute, raw string) (string, []string) {
	f := v.model.LookupPath(cue.MakePath(cue.Str(attribute)))
	if !f.Exists() {
		return "", []string{Humanize(attribute) + " is not editable"}
	}
	fail := func(msg string) (string, []string) {
		return "", []string{Humanize(attribute) + " " + msg}
	}

	raw = strings.TrimSpace(raw)
	if raw == "" && v.required[attribute] {
		return fail("can't be blank")
	}

	var (
		value      any
		normalized string
	)
	kind := f.IncompleteKind()
	switch {
	case kind == cue.BoolKind:
		b, ok := types.ParseBool(raw)
		if !ok {
			return fail("is not a boolean")
		}
		value, normalized = b, strconv.FormatBool(b)
	case kind&cue.NumberKind != 0 && kind&cue.StringKind == 0:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fail("is not a number")
		}
		value, normalized = n, strconv.FormatFloat(n, 'f', -1, 64)
	case attribute == "birth_date":
		t, ok := format.ParseDate(raw, "%d-%m-%Y")
		if !ok {
			return fail(v.message(attribute))
		}
		normalized = t.Format("2006-01-02")
		value = normalized
	default:
		value, normalized = raw, raw
	}

	if err := f.Unify(v.ctx.Encode(value)).Validate(cue.Concrete(true)); err != nil {
		return fail(v.message(attribute))
	}
	return normalized, nil
}

func (v *Validator) message(attribute string) string {
	if m, ok := v.messages[attribute]; ok {
		return m
	}
	return "is invalid"
}

// Humanize turns an attribute name into a label: "last_name" → "Last name".
func Humanize(attribute string) string {
	s := strings.ReplaceAll(attribute, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
