package eventbus

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/matthewbaird/inplace/internal/event"
)

// LogConsumer logs every field event.
type LogConsumer struct {
	log zerolog.Logger
}

func NewLogConsumer(log zerolog.Logger) *LogConsumer { return &LogConsumer{log: log} }

func (c *LogConsumer) HandleEvent(_ context.Context, evt event.Event) error {
	l := c.log.Debug()
	if evt.Name == event.Error {
		l = c.log.Info().Strs("errors", evt.Errors)
	}
	l.Str("event", string(evt.Name)).
		Str("field", evt.FieldID).
		Stringer("previous", evt.PreviousValue).
		Stringer("value", evt.NewValue).
		Msg("field event")
	return nil
}
