// Package livesync keeps a page current with changes confirmed by other
// clients. The server pushes one JSON message per confirmed attribute over
// a websocket; each is applied to the bound fields with Engine.Refresh.
package livesync

import (
	"context"
	"fmt"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/matthewbaird/inplace/internal/types"
)

// Message is one confirmed attribute change.
type Message struct {
	Object    string      `json:"object"`
	ObjectID  string      `json:"object_id"`
	Attribute string      `json:"attribute"`
	Value     types.Value `json:"value"`
	DisplayAs *string     `json:"display_as,omitempty"`
}

// Refresher applies a confirmed value to the fields bound to an attribute.
type Refresher interface {
	Refresh(object, objectID, attribute string, raw types.Value, display *string) int
}

// Client reads change messages and applies them.
type Client struct {
	url     string
	target  Refresher
	log     zerolog.Logger
	applied func(Message, int)
}

// New creates a client for the websocket at url.
func New(url string, target Refresher, log zerolog.Logger) *Client {
	return &Client{url: url, target: target, log: log}
}

// OnApplied registers fn to run after every message with the number of
// refreshed fields.
func (c *Client) OnApplied(fn func(msg Message, refreshed int)) { c.applied = fn }

// Run dials the server and applies messages until ctx is done or the
// connection closes. A normal closure returns nil.
func (c *Client) Run(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("livesync: dial %s: %w", c.url, err)
	}
	defer conn.CloseNow()
	c.log.Debug().Str("url", c.url).Msg("livesync: connected")

	for {
		var msg Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("livesync: read: %w", err)
		}
		n := c.Apply(msg)
		if c.applied != nil {
			c.applied(msg, n)
		}
	}
}

// Apply refreshes the fields bound to msg's attribute.
func (c *Client) Apply(msg Message) int {
	n := c.target.Refresh(msg.Object, msg.ObjectID, msg.Attribute, msg.Value, msg.DisplayAs)
	c.log.Debug().Str("object", msg.Object).Str("object_id", msg.ObjectID).
		Str("attribute", msg.Attribute).Int("refreshed", n).Msg("livesync: change applied")
	return n
}
