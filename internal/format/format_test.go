package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/inplace/internal/types"
)

func descriptor(ft types.FieldType, f types.FormatOptions, c types.Options) *types.FieldDescriptor {
	return &types.FieldDescriptor{ID: "inplace_user_1_x", Type: ft, Format: f, Collection: c}
}

func TestCurrency(t *testing.T) {
	tests := []struct {
		raw    string
		params map[string]string
		want   string
	}{
		{"100", nil, "$100.00"},
		{"240", nil, "$240.00"},
		{"100.0", nil, "$100.00"},
		{"1234.5", nil, "$1,234.50"},
		{"58", map[string]string{"unit": "€"}, "€58.00"},
		{"-3", nil, "-$3.00"},
		{"7", map[string]string{"precision": "0"}, "$7"},
		{"string", nil, "string"},
		{"1e20", nil, "$100,000,000,000,000,000,000.00"},
		{"-1e20", nil, "-$100,000,000,000,000,000,000.00"},
		{"1e15", map[string]string{"precision": "0"}, "$1,000,000,000,000,000"},
		{"NaN", nil, "NaN"},
		{"+Inf", nil, "+Inf"},
		{"-Inf", nil, "-Inf"},
	}
	for _, tt := range tests {
		got := Currency(tt.raw, types.FormatOptions{Params: tt.params})
		assert.Equal(t, tt.want, got, "Currency(%q)", tt.raw)
	}
}

func TestTemplate(t *testing.T) {
	opts := types.FormatOptions{Params: map[string]string{"pattern": "addr => [%s]"}}
	assert.Equal(t, "addr => [Via Roma 99]", Template("Via Roma 99", opts))
	assert.Equal(t, "plain", Template("plain", types.FormatOptions{}))
}

func TestDate(t *testing.T) {
	opts := types.FormatOptions{Params: map[string]string{"format": "%d-%m-%Y"}}
	assert.Equal(t, "01-10-2026", Date("2026-10-01", opts))
	assert.Equal(t, "2026-10-01", Date("2026-10-01T08:00:00Z", types.FormatOptions{}))
	assert.Equal(t, "not a date", Date("not a date", opts))
}

func TestNumber(t *testing.T) {
	assert.Equal(t, "1240.50", Number("$1,240.50", types.FormatOptions{}))
	assert.Equal(t, "58", Number(" €58 ", types.FormatOptions{Params: map[string]string{"unit": "€"}}))
	assert.Equal(t, "string", Number("string", types.FormatOptions{}))
}

func TestPipeline_RenderIsIdempotent(t *testing.T) {
	reg := DefaultRegistry()
	d := descriptor(types.FieldText, types.FormatOptions{Formatter: "currency"}, nil)
	p, err := reg.Pipeline(d)
	require.NoError(t, err)
	require.True(t, p.HasRenderer())

	first := p.RenderDisplay("100")
	second := p.RenderDisplay("100")
	assert.Equal(t, "$100.00", first)
	assert.Equal(t, first, second)
}

func TestPipeline_DefaultsToIdentity(t *testing.T) {
	p, err := DefaultRegistry().Pipeline(descriptor(types.FieldText, types.FormatOptions{}, nil))
	require.NoError(t, err)
	assert.False(t, p.HasRenderer())
	assert.Equal(t, "raw", p.RenderDisplay("raw"))
	assert.Equal(t, " typed ", p.ParseForSubmit(" typed "))
}

func TestPipeline_Parser(t *testing.T) {
	d := descriptor(types.FieldText, types.FormatOptions{Formatter: "currency", Parser: "number"}, nil)
	p, err := DefaultRegistry().Pipeline(d)
	require.NoError(t, err)
	assert.Equal(t, "240", p.ParseForSubmit("$240"))
	assert.Equal(t, "240", p.ParseForSubmit("$240"))
}

func TestPipeline_LabelsForChoiceFields(t *testing.T) {
	reg := DefaultRegistry()

	sel, err := reg.Pipeline(descriptor(types.FieldSelect, types.FormatOptions{}, types.Options{
		{Value: "1", Label: "Spain"}, {Value: "2", Label: "Italy"}, {Value: "3", Label: "France"},
	}))
	require.NoError(t, err)
	assert.Equal(t, "Italy", sel.RenderDisplay("2"))
	assert.Equal(t, "9", sel.RenderDisplay("9"))

	boolean, err := reg.Pipeline(descriptor(types.FieldBoolean, types.FormatOptions{}, types.Options{
		{Value: "false", Label: "No thanks"}, {Value: "true", Label: "Yes of course"},
	}))
	require.NoError(t, err)
	assert.Equal(t, "No thanks", boolean.RenderDisplay("false"))
	assert.Equal(t, "Yes of course", boolean.RenderDisplay("1"))
}

func TestPipeline_UnknownNames(t *testing.T) {
	reg := DefaultRegistry()

	_, err := reg.Pipeline(descriptor(types.FieldText, types.FormatOptions{Formatter: "nope"}, nil))
	var cfgErr *types.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "inplace_user_1_x", cfgErr.FieldID)

	_, err = reg.Pipeline(descriptor(types.FieldText, types.FormatOptions{Parser: "nope"}, nil))
	require.ErrorAs(t, err, &cfgErr)
}

func TestRegistry_Names(t *testing.T) {
	assert.Equal(t, []string{"currency", "date", "template", "upcase"}, DefaultRegistry().Names())
}
