package activity

import (
	"context"
	"time"

	"github.com/matthewbaird/inplace/internal/event"
)

// StruggleThreshold is the number of consecutive rejected submits after
// which a field is reported as struggling.
const StruggleThreshold = 3

// Summary aggregates the history of one field.
type Summary struct {
	FieldID string
	Counts  map[event.Name]int
	// ErrorStreak counts the rejected submits since the last confirmed
	// update.
	ErrorStreak int
	LastErrors  []string
	LastUpdate  time.Time
	Struggling  bool
}

// Summarize aggregates events, which may be in any order.
func Summarize(fieldID string, events []event.Event) Summary {
	s := Summary{FieldID: fieldID, Counts: make(map[event.Name]int)}
	var lastErr time.Time
	for _, e := range events {
		s.Counts[e.Name]++
		switch e.Name {
		case event.Update:
			if e.OccurredAt.After(s.LastUpdate) {
				s.LastUpdate = e.OccurredAt
			}
		case event.Error:
			if !e.OccurredAt.Before(lastErr) {
				lastErr = e.OccurredAt
				s.LastErrors = e.Errors
			}
		}
	}
	for _, e := range events {
		if e.Name == event.Error && e.OccurredAt.After(s.LastUpdate) {
			s.ErrorStreak++
		}
	}
	s.Struggling = s.ErrorStreak >= StruggleThreshold
	return s
}

// Summary aggregates the latest events of a field.
// Only the most recent page of history is considered.
func (r *Recorder) Summary(ctx context.Context, fieldID string) (Summary, error) {
	events, _, _, err := r.store.QueryByField(ctx, fieldID, DefaultQueryOptions())
	if err != nil {
		return Summary{}, err
	}
	return Summarize(fieldID, events), nil
}
