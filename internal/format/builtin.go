package format

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"

	"github.com/matthewbaird/inplace/internal/types"
)

// exactLimit bounds the magnitudes humanize.FormatFloat renders exactly;
// it truncates through int64.
const exactLimit = 1e15

// Currency renders a number as money: params "unit" (default "$") and
// "precision" (default 2). Non-numeric input, NaN and infinities are
// returned unchanged.
func Currency(raw string, opts types.FormatOptions) string {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return raw
	}
	unit := opts.Param("unit", "$")
	precision, err := strconv.Atoi(opts.Param("precision", "2"))
	if err != nil || precision < 0 {
		precision = 2
	}
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	if n >= exactLimit {
		return sign + unit + groupLarge(n, precision)
	}
	return sign + unit + humanize.FormatFloat("#,###."+strings.Repeat("#", precision), n)
}

// groupLarge formats a non-negative n with thousands separators without
// going through int64.
func groupLarge(n float64, precision int) string {
	s := strconv.FormatFloat(n, 'f', precision, 64)
	whole, frac, _ := strings.Cut(s, ".")
	i, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return s
	}
	out := humanize.BigComma(i)
	if frac != "" {
		out += "." + frac
	}
	return out
}

// Template substitutes raw into params["pattern"] at each "%s".
func Template(raw string, opts types.FormatOptions) string {
	pattern := opts.Param("pattern", "%s")
	return strings.ReplaceAll(pattern, "%s", raw)
}

// dateLayouts are tried in order when reading a raw date.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05 MST", "2006-01-02 15:04:05"}

// ParseDate reads a raw date value. pickerFormat, when set, is tried after
// the ISO layouts.
func ParseDate(raw, pickerFormat string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	if pickerFormat != "" {
		if t, err := strftime.Parse(pickerFormat, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Date renders a date with the strftime pattern in params["format"]
// (default "%Y-%m-%d"). Unparseable input is returned unchanged.
func Date(raw string, opts types.FormatOptions) string {
	t, ok := ParseDate(raw, "")
	if !ok {
		return raw
	}
	return strftime.Format(opts.Param("format", "%Y-%m-%d"), t)
}

// Number strips the currency unit, thousands separators and whitespace so
// "$1,240.50" submits as "1240.50". Anything else passes through.
func Number(candidate string, opts types.FormatOptions) string {
	s := strings.TrimSpace(candidate)
	if unit := opts.Param("unit", "$"); unit != "" {
		s = strings.ReplaceAll(s, unit, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return candidate
	}
	return s
}
