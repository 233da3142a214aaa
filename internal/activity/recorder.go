package activity

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/matthewbaird/inplace/internal/event"
)

// Recorder writes every event it receives to a Store. It is an
// eventbus.Handler; subscribe it with eventbus.All on each controller.
type Recorder struct {
	store Store
	log   zerolog.Logger
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store Store, log zerolog.Logger) *Recorder {
	return &Recorder{store: store, log: log}
}

// HandleEvent implements eventbus.Handler.
func (r *Recorder) HandleEvent(ctx context.Context, evt event.Event) error {
	if err := r.store.Write(ctx, evt); err != nil {
		r.log.Error().Err(err).Str("event_id", evt.ID).Str("field", evt.FieldID).Msg("activity: write failed")
		return err
	}
	return nil
}

// Search returns events whose summary contains q, newest first, and the
// number of matches. fieldPrefix narrows the search to matching field ids.
func (r *Recorder) Search(ctx context.Context, q, fieldPrefix string, limit int) ([]event.Event, int, error) {
	opts := DefaultSearchOptions()
	opts.FieldPrefix = fieldPrefix
	if limit > 0 {
		opts.Limit = limit
	}
	return r.store.Search(ctx, q, opts)
}

// History returns the latest limit events of a field, newest first.
func (r *Recorder) History(ctx context.Context, fieldID string, limit int) ([]event.Event, error) {
	opts := DefaultQueryOptions()
	opts.Limit = limit
	events, _, _, err := r.store.QueryByField(ctx, fieldID, opts)
	return events, err
}
