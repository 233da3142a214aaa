package editor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ncruces/go-strftime"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matthewbaird/inplace/internal/format"
	"github.com/matthewbaird/inplace/internal/types"
)

// Date is a text entry editor with a calendar picker. Picking a day commits
// immediately, formatted with the picker's own DateFormat.
type Date struct {
	Text
	now    func() time.Time
	picker *Picker
}

// NewDate returns a date editor reading "today" from now.
func NewDate(now func() time.Time) Factory {
	if now == nil {
		now = time.Now
	}
	return func(d *types.FieldDescriptor) Editor {
		return &Date{Text: Text{control: control{desc: d}}, now: now}
	}
}

func (e *Date) Type() types.FieldType { return types.FieldDate }

// Mount seeds the entry and opens the picker on the seed's month, or on the
// current month when the seed is not a date.
func (e *Date) Mount(seed types.Value) {
	e.mount(seed)
	month, ok := format.ParseDate(seed.Text, e.desc.Picker.DateFormat)
	if !ok {
		month = e.now()
	}
	e.picker = &Picker{owner: e, month: firstOfMonth(month), layout: e.desc.Picker.DateFormat}
}

// Unmount releases the picker handle along with the callbacks.
func (e *Date) Unmount() {
	if e.picker != nil {
		e.picker.owner = nil
		e.picker = nil
	}
	e.unmount()
}

// Picker returns the calendar, or nil when not mounted.
func (e *Date) Picker() *Picker { return e.picker }

func (e *Date) Node() *html.Node {
	f := form(e.desc, element(atom.Input, "type", "text", "name", e.desc.ParamKey(), "class", "inplace-input inplace-date", "value", e.candidate))
	if e.picker != nil {
		f.AppendChild(e.picker.node())
	}
	return f
}

// Picker is the calendar affordance of a mounted date editor.
type Picker struct {
	owner  *Date
	month  time.Time
	layout string
}

// Month returns the first day of the displayed month.
func (p *Picker) Month() time.Time { return p.month }

// Days lists the days of the displayed month; other-month padding is not
// selectable and not included.
func (p *Picker) Days() []time.Time {
	var days []time.Time
	for d := p.month; d.Month() == p.month.Month(); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Next shows the following month.
func (p *Picker) Next() { p.month = p.month.AddDate(0, 1, 0) }

// Prev shows the preceding month.
func (p *Picker) Prev() { p.month = p.month.AddDate(0, -1, 0) }

// Select picks a day of the displayed month and commits.
func (p *Picker) Select(ctx context.Context, day int) error {
	if p.owner == nil || !p.owner.mounted {
		return fmt.Errorf("date picker: released")
	}
	days := p.Days()
	if day < 1 || day > len(days) {
		return fmt.Errorf("date picker: day %d outside %s", day, p.month.Format("2006-01"))
	}
	p.owner.candidate = strftime.Format(p.layout, days[day-1])
	p.owner.Commit(ctx)
	return nil
}

// SelectFirst picks the first day of the displayed month.
func (p *Picker) SelectFirst(ctx context.Context) error { return p.Select(ctx, 1) }

func (p *Picker) node() *html.Node {
	table := element(atom.Table, "class", "inplace-calendar", "data-month", p.month.Format("2006-01"))
	body := element(atom.Tbody)
	table.AppendChild(body)

	var row *html.Node
	// Pad the first week with other-month cells, Sunday first.
	lead := int(p.month.Weekday())
	for i, d := range p.Days() {
		if i == 0 || d.Weekday() == time.Sunday {
			row = element(atom.Tr)
			body.AppendChild(row)
		}
		if i == 0 {
			for j := 0; j < lead; j++ {
				row.AppendChild(element(atom.Td, "class", "other-month"))
			}
		}
		cell := element(atom.Td, "data-day", strconv.Itoa(d.Day()))
		cell.AppendChild(text(strconv.Itoa(d.Day())))
		row.AppendChild(cell)
	}
	return table
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
