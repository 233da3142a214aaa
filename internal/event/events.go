// Package event defines the lifecycle events emitted by field controllers.
package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/inplace/internal/types"
)

// Name is the fixed event vocabulary.
type Name string

const (
	Activate   Name = "activate"
	Deactivate Name = "deactivate"
	Update     Name = "update"
	Error      Name = "error"
	Destroy    Name = "destroy"
)

// Names lists every event name.
var Names = []Name{Activate, Deactivate, Update, Error, Destroy}

// Event carries one externally observable transition of a field.
type Event struct {
	ID            string      `json:"id"`
	Name          Name        `json:"name"`
	FieldID       string      `json:"field_id"`
	OccurredAt    time.Time   `json:"occurred_at"`
	PreviousValue types.Value `json:"previous_value"`
	NewValue      types.Value `json:"new_value"`
	Errors        []string    `json:"errors,omitempty"`
}

// Value is the value the event is about: the new value for updates, the
// current one otherwise.
func (e Event) Value() types.Value { return e.NewValue }

func (e Event) String() string {
	switch e.Name {
	case Update:
		return fmt.Sprintf("%s %s: %s -> %s", e.Name, e.FieldID, e.PreviousValue, e.NewValue)
	case Error:
		return fmt.Sprintf("%s %s: %v", e.Name, e.FieldID, e.Errors)
	}
	return fmt.Sprintf("%s %s: %s", e.Name, e.FieldID, e.NewValue)
}

func newID() string { return uuid.New().String() }

func base(name Name, fieldID string) Event {
	return Event{ID: newID(), Name: name, FieldID: fieldID, OccurredAt: time.Now()}
}

// NewActivate is emitted when an editor is mounted.
func NewActivate(fieldID string, raw types.Value) Event {
	e := base(Activate, fieldID)
	e.PreviousValue, e.NewValue = raw, raw
	return e
}

// NewDeactivate is emitted when editing ends without a submit.
func NewDeactivate(fieldID string, raw types.Value) Event {
	e := base(Deactivate, fieldID)
	e.PreviousValue, e.NewValue = raw, raw
	return e
}

// NewUpdate is emitted after the server confirmed a value.
func NewUpdate(fieldID string, previous, next types.Value) Event {
	e := base(Update, fieldID)
	e.PreviousValue, e.NewValue = previous, next
	return e
}

// NewError is emitted when a submit was rejected or failed. candidate is the
// rejected value; raw stays the last confirmed one.
func NewError(fieldID string, raw types.Value, candidate string, messages []string) Event {
	e := base(Error, fieldID)
	e.PreviousValue, e.NewValue = raw, types.Some(candidate)
	e.Errors = append([]string(nil), messages...)
	return e
}

// NewDestroy is emitted when the controller is torn down.
func NewDestroy(fieldID string, raw types.Value) Event {
	e := base(Destroy, fieldID)
	e.PreviousValue, e.NewValue = raw, raw
	return e
}
