package chat

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func testHub() *Hub {
	return NewHub(zerolog.Nop())
}

// drainFrame reads one frame from a client's send channel, failing if
// nothing was delivered.
func drainFrame(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case frame := <-c.send:
		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			t.Fatalf("malformed frame: %v", err)
		}
		return env
	default:
		t.Fatal("expected a frame, send channel is empty")
	}
	return Envelope{}
}

func TestRegisterLastConnectWins(t *testing.T) {
	hub := testHub()
	first := NewClient(nil, "u1", "Alice")
	second := NewClient(nil, "u1", "Alice")

	hub.Register(first)
	hub.Register(second)

	if hub.ClientForUser("u1") != second {
		t.Fatal("newer connection should replace the prior binding")
	}
	if !first.closed {
		t.Fatal("replaced connection should have its send channel closed")
	}

	// The stale connection unregistering must not evict the new binding.
	if hub.Unregister(first) {
		t.Fatal("stale connection must not report as the active binding")
	}
	if hub.ClientForUser("u1") != second {
		t.Fatal("active binding lost after stale unregister")
	}
}

func TestUnregisterActiveBinding(t *testing.T) {
	hub := testHub()
	c := NewClient(nil, "u1", "Alice")
	hub.Register(c)

	if !hub.Unregister(c) {
		t.Fatal("active connection should report true on unregister")
	}
	if hub.ClientForUser("u1") != nil {
		t.Fatal("binding should be removed")
	}
}

func TestSubscribeIdempotent(t *testing.T) {
	hub := testHub()
	roomID := uuid.New()
	c := NewClient(nil, "u1", "Alice")
	hub.Register(c)

	hub.Subscribe(c, roomID)
	hub.Subscribe(c, roomID)

	hub.Broadcast(roomID, EventNewMessage, map[string]string{"x": "1"})

	drainFrame(t, c)
	select {
	case <-c.send:
		t.Fatal("double subscribe must not deliver twice")
	default:
	}
}

func TestBroadcastReachesOnlySubscribers(t *testing.T) {
	hub := testHub()
	roomID := uuid.New()

	in := NewClient(nil, "u1", "Alice")
	out := NewClient(nil, "u2", "Bob")
	hub.Register(in)
	hub.Register(out)
	hub.Subscribe(in, roomID)

	hub.Broadcast(roomID, EventUserJoined, PresencePayload{RoomID: roomID.String(), UserID: "u3"})

	env := drainFrame(t, in)
	if env.Event != EventUserJoined {
		t.Fatalf("expected %s, got %s", EventUserJoined, env.Event)
	}
	select {
	case <-out.send:
		t.Fatal("unsubscribed client must not receive room broadcasts")
	default:
	}
}

func TestBroadcastDropsSlowClient(t *testing.T) {
	hub := testHub()
	roomID := uuid.New()
	c := NewClient(nil, "u1", "Alice")
	c.send = make(chan []byte) // unbuffered, nothing draining
	hub.Register(c)
	hub.Subscribe(c, roomID)

	hub.Broadcast(roomID, EventNewMessage, map[string]string{"x": "1"})

	if !c.closed {
		t.Fatal("slow client should be dropped")
	}
	if hub.ClientForUser("u1") != nil {
		t.Fatal("dropped client should lose its binding")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := testHub()
	roomID := uuid.New()
	c := NewClient(nil, "u1", "Alice")
	hub.Register(c)
	hub.Subscribe(c, roomID)
	hub.Unsubscribe(c, roomID)

	hub.Broadcast(roomID, EventNewMessage, map[string]string{"x": "1"})

	select {
	case <-c.send:
		t.Fatal("unsubscribed client must not receive broadcasts")
	default:
	}
}

func TestSendToClosedClientDoesNotPanic(t *testing.T) {
	hub := testHub()
	c := NewClient(nil, "u1", "Alice")
	hub.Register(c)
	hub.Unregister(c)

	// Must not panic on the closed send channel.
	hub.Send(c, EventError, ErrorPayload{Message: "too late"})
}
