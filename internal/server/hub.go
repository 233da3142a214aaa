package server

import (
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/matthewbaird/inplace/internal/livesync"
)

// hubBuffer is the per-connection backlog; a slower client misses changes.
const hubBuffer = 32

// Hub fans confirmed changes out to every connected websocket.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]chan livesync.Message
	log     zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{clients: make(map[string]chan livesync.Message), log: log}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues msg for every client without blocking.
func (h *Hub) Broadcast(msg livesync.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.clients {
		select {
		case ch <- msg:
		default:
			h.log.Warn().Str("client", id).Str("attribute", msg.Attribute).Msg("hub: client backlog full, change dropped")
		}
	}
}

func (h *Hub) subscribe() (string, chan livesync.Message) {
	id := uuid.New().String()
	ch := make(chan livesync.Message, hubBuffer)
	h.mu.Lock()
	h.clients[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	delete(h.clients, id)
	h.mu.Unlock()
}

// ServeHTTP upgrades to a websocket and streams changes until the client
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("hub: websocket accept")
		return
	}
	defer conn.CloseNow()

	id, ch := h.subscribe()
	defer h.unsubscribe(id)
	h.log.Debug().Str("client", id).Msg("hub: client connected")

	// The client never sends; CloseRead cancels ctx when it disconnects.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			h.log.Debug().Str("client", id).Msg("hub: client disconnected")
			return
		case msg := <-ch:
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				h.log.Warn().Err(err).Str("client", id).Msg("hub: write error")
				return
			}
		}
	}
}
