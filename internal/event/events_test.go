package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/matthewbaird/inplace/internal/types"
)

func TestConstructors(t *testing.T) {
	u := NewUpdate("f", types.Nil, types.Some("b"))
	assert.Equal(t, Update, u.Name)
	assert.Equal(t, "update f: <nil> -> b", u.String())
	_, err := uuid.Parse(u.ID)
	assert.NoError(t, err)
	assert.False(t, u.OccurredAt.IsZero())

	msgs := []string{"Email has wrong email format"}
	e := NewError("f", types.Some("a"), "bad", msgs)
	msgs[0] = "changed"
	assert.Equal(t, []string{"Email has wrong email format"}, e.Errors, "messages are copied")
	assert.Equal(t, types.Some("a"), e.PreviousValue)
	assert.Equal(t, types.Some("bad"), e.Value())

	d := NewDestroy("f", types.Some("a"))
	assert.Equal(t, "destroy f: a", d.String())
	assert.NotEqual(t, d.ID, NewDestroy("f", types.Some("a")).ID)
}
