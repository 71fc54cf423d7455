package chat

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/diligencias582/TRABAJAI/internal/metrics"
)

// Hub owns every live connection: the user -> connection binding and the
// per-room fan-out sets. All state is in-memory and guarded by a single
// mutex, so a join or leave can never interleave with an in-flight
// broadcast. The hub is created at process start and torn down at shutdown.
type Hub struct {
	log zerolog.Logger

	mu    sync.Mutex
	users map[string]*Client
	rooms map[uuid.UUID]map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		log:   logger.With().Str("component", "hub").Logger(),
		users: make(map[string]*Client),
		rooms: make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Register binds a user to a live connection. If the user already has a
// connection bound, the prior binding is replaced (last-connect-wins) and
// the stale connection is closed.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	prior := h.users[c.UserID]
	h.users[c.UserID] = c
	if prior != nil && prior != c {
		h.dropLocked(prior)
	}
	h.mu.Unlock()

	metrics.ConnectionsActive.Inc()
	if prior != nil && prior != c {
		h.log.Debug().Str("user_id", c.UserID).Msg("replaced stale connection")
	}
}

// Unregister removes a connection. Returns true when the connection was the
// user's active binding; a connection already replaced by a newer one
// reports false so callers do not mark the user offline.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()
	active := h.users[c.UserID] == c
	if active {
		delete(h.users, c.UserID)
	}
	h.dropLocked(c)
	h.mu.Unlock()

	metrics.ConnectionsActive.Dec()
	return active
}

// dropLocked removes a client from every room set and closes its send
// channel. Caller holds h.mu.
func (h *Hub) dropLocked(c *Client) {
	for roomID := range c.subs {
		if set := h.rooms[roomID]; set != nil {
			delete(set, c)
			if len(set) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	c.subs = make(map[uuid.UUID]struct{})
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Subscribe adds a connection to a room's fan-out set. Idempotent.
func (h *Hub) Subscribe(c *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.rooms[roomID]
	if set == nil {
		set = make(map[*Client]struct{})
		h.rooms[roomID] = set
	}
	set[c] = struct{}{}
	c.subs[roomID] = struct{}{}
}

// Unsubscribe removes a connection from a room's fan-out set. Idempotent.
func (h *Hub) Unsubscribe(c *Client, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set := h.rooms[roomID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.rooms, roomID)
		}
	}
	delete(c.subs, roomID)
}

// ClientForUser returns the user's active connection, or nil.
func (h *Hub) ClientForUser(userID string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.users[userID]
}

// OnlineUsers returns the number of users with a live connection.
func (h *Hub) OnlineUsers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.users)
}

// Broadcast delivers an event to every connection subscribed to the room,
// best-effort: clients whose send buffer is full are dropped rather than
// allowed to stall the fan-out.
func (h *Hub) Broadcast(roomID uuid.UUID, event string, payload any) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("marshal broadcast payload")
		return
	}

	h.mu.Lock()
	for c := range h.rooms[roomID] {
		select {
		case c.send <- frame:
		default:
			if h.users[c.UserID] == c {
				delete(h.users, c.UserID)
			}
			h.dropLocked(c)
			h.log.Warn().Str("user_id", c.UserID).Msg("dropped slow client")
		}
	}
	h.mu.Unlock()

	metrics.EventsBroadcast.WithLabelValues(event).Inc()
}

// Send delivers an event to a single connection, best-effort. Used for
// error events, which are never broadcast.
func (h *Hub) Send(c *Client, event string, payload any) {
	frame, err := marshalEnvelope(event, payload)
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("marshal payload")
		return
	}

	h.mu.Lock()
	if !c.closed {
		select {
		case c.send <- frame:
		default:
		}
	}
	h.mu.Unlock()
}

func marshalEnvelope(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
