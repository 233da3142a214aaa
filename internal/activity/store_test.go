package activity

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/matthewbaird/inplace/internal/event"
	"github.com/matthewbaird/inplace/internal/eventbus"
	"github.com/matthewbaird/inplace/internal/types"
)

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := NewSQLStore(db)
	require.NoError(t, s.CreateTable(context.Background()))
	return s
}

func TestSQLStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSQLStore(t)

	failed := event.NewError("inplace_user_1_email", types.Some("a@b.c"), "wrong format", []string{"Email has wrong email format"})
	cleared := event.NewUpdate("inplace_user_1_email", types.Some("a@b.c"), types.Nil)
	cleared.OccurredAt = failed.OccurredAt.Add(time.Second)
	require.NoError(t, s.Write(ctx, failed, cleared, failed))

	got, cursor, total, err := s.QueryByField(ctx, "inplace_user_1_email", DefaultQueryOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Empty(t, cursor)
	require.Len(t, got, 2)

	assert.Equal(t, cleared.ID, got[0].ID)
	assert.Equal(t, event.Update, got[0].Name)
	assert.True(t, got[0].NewValue.IsNil())
	assert.Nil(t, got[0].Errors)

	assert.Equal(t, failed.ID, got[1].ID)
	assert.Equal(t, types.Some("wrong format"), got[1].NewValue)
	assert.Equal(t, []string{"Email has wrong email format"}, got[1].Errors)
	assert.True(t, got[1].OccurredAt.Equal(failed.OccurredAt))
}

func TestSQLStore_FiltersAndPages(t *testing.T) {
	ctx := context.Background()
	s := newSQLStore(t)

	for i, v := range []string{"a", "b", "c"} {
		require.NoError(t, s.Write(ctx, testEvent(event.Update, "f", v, 10-i)))
	}
	require.NoError(t, s.Write(ctx, testEvent(event.Error, "f", "bad", 1)))

	opts := DefaultQueryOptions()
	opts.Names = []event.Name{event.Update}
	opts.Limit = 2
	page, cursor, total, err := s.QueryByField(ctx, "f", opts)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].NewValue.Text)
	assert.NotEmpty(t, cursor)

	opts.Cursor = cursor
	page, cursor, _, err = s.QueryByField(ctx, "f", opts)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0].NewValue.Text)
	assert.Empty(t, cursor)
}

func TestSQLStore_Search(t *testing.T) {
	ctx := context.Background()
	s := newSQLStore(t)

	require.NoError(t, s.Write(ctx,
		testEvent(event.Update, "inplace_user_1_email", "new@email.com", 5),
		testEvent(event.Update, "inplace_user_2_email", "other@email.com", 3),
		testEvent(event.Update, "inplace_user_1_name", "Lucia", 1),
	))

	got, total, err := s.Search(ctx, "email.com", DefaultSearchOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, got, 2)

	opts := DefaultSearchOptions()
	opts.FieldPrefix = "inplace_user_1_"
	got, total, err = s.Search(ctx, "email", opts)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "inplace_user_1_email", got[0].FieldID)
}

func TestRecorder_OnBus(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	rec := NewRecorder(store, zerolog.Nop())

	bus := eventbus.New(zerolog.Nop())
	bus.Subscribe(eventbus.All, "activity", rec)

	bus.Publish(ctx, event.NewActivate("f", types.Some("1")))
	bus.Publish(ctx, event.NewUpdate("f", types.Some("1"), types.Some("2")))

	history, err := rec.History(ctx, "f", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, event.Update, history[0].Name)
	assert.Equal(t, event.Activate, history[1].Name)
}
