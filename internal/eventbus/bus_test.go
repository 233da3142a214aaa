package eventbus

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/inplace/internal/event"
	"github.com/matthewbaird/inplace/internal/types"
)

func TestBus_DeliversSynchronouslyInOrder(t *testing.T) {
	ctx := context.Background()
	b := New(zerolog.Nop())

	var got []string
	b.Subscribe(event.Update, "first", HandlerFunc(func(_ context.Context, e event.Event) error {
		got = append(got, "first:"+e.NewValue.Text)
		return nil
	}))
	b.Subscribe(All, "second", HandlerFunc(func(_ context.Context, e event.Event) error {
		got = append(got, "second:"+string(e.Name))
		return nil
	}))

	b.Publish(ctx, event.NewUpdate("f", types.Some("a"), types.Some("b")))
	assert.Equal(t, []string{"first:b", "second:update"}, got)

	b.Publish(ctx, event.NewActivate("f", types.Some("b")))
	assert.Equal(t, []string{"first:b", "second:update", "second:activate"}, got)
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	b := New(zerolog.Nop())
	assert.NotPanics(t, func() {
		b.Publish(context.Background(), event.NewDestroy("f", types.Nil))
	})
}

func TestBus_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	b := New(zerolog.Nop())
	calls := 0
	s := b.Subscribe(All, "counter", HandlerFunc(func(context.Context, event.Event) error {
		calls++
		return nil
	}))
	require.Equal(t, 1, b.Len())

	b.Publish(ctx, event.NewActivate("f", types.Nil))
	s.Unsubscribe()
	s.Unsubscribe()
	b.Publish(ctx, event.NewActivate("f", types.Nil))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, b.Len())
}

func TestBus_CloseDetachesEverything(t *testing.T) {
	ctx := context.Background()
	b := New(zerolog.Nop())
	calls := 0
	h := HandlerFunc(func(context.Context, event.Event) error { calls++; return nil })
	b.Subscribe(All, "a", h)
	b.Subscribe(event.Update, "b", h)

	b.Close()
	b.Publish(ctx, event.NewUpdate("f", types.Nil, types.Some("x")))
	late := b.Subscribe(All, "late", h)
	late.Unsubscribe()

	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, b.Len())
}

func TestBus_HandlerErrorsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	b := New(zerolog.New(&buf))
	reached := false
	b.Subscribe(All, "failing", HandlerFunc(func(context.Context, event.Event) error {
		return errors.New("boom")
	}))
	b.Subscribe(All, "after", HandlerFunc(func(context.Context, event.Event) error {
		reached = true
		return nil
	}))

	b.Publish(context.Background(), event.NewActivate("inplace_user_1_email", types.Nil))
	assert.True(t, reached)
	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), "failing")
}

func TestLogConsumer(t *testing.T) {
	var buf bytes.Buffer
	c := NewLogConsumer(zerolog.New(&buf))
	require.NoError(t, c.HandleEvent(context.Background(),
		event.NewError("inplace_user_1_email", types.Some("a@b.c"), "wrong format", []string{"Email has wrong email format"})))
	assert.Contains(t, buf.String(), "Email has wrong email format")
	assert.Contains(t, buf.String(), `"event":"error"`)
}
