package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/diligencias582/TRABAJAI/internal/models"
)

// fakeStore is an in-memory chat.Store for gateway tests.
type fakeStore struct {
	rooms        map[uuid.UUID]*models.Room
	participants map[uuid.UUID]map[string]*models.Participant
	messages     map[uuid.UUID][]*models.Message
	byID         map[string]*models.Message

	appendErr  error
	appendHook func(*models.Message)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:        make(map[uuid.UUID]*models.Room),
		participants: make(map[uuid.UUID]map[string]*models.Participant),
		messages:     make(map[uuid.UUID][]*models.Message),
		byID:         make(map[string]*models.Message),
	}
}

func (f *fakeStore) addRoom(active bool) uuid.UUID {
	id := uuid.New()
	f.rooms[id] = &models.Room{ID: id, Name: "room", Kind: models.RoomKindCustom, Active: active}
	return id
}

func (f *fakeStore) GetRoom(_ context.Context, id uuid.UUID) (*models.Room, error) {
	return f.rooms[id], nil
}

func (f *fakeStore) UpsertParticipant(_ context.Context, p *models.Participant) error {
	room := f.participants[p.RoomID]
	if room == nil {
		room = make(map[string]*models.Participant)
		f.participants[p.RoomID] = room
	}
	cp := *p
	room[p.UserID] = &cp
	return nil
}

func (f *fakeStore) RemoveParticipant(_ context.Context, roomID uuid.UUID, userID string) error {
	delete(f.participants[roomID], userID)
	return nil
}

func (f *fakeStore) ListUserRoomIDs(_ context.Context, userID string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for roomID, members := range f.participants {
		if _, ok := members[userID]; ok {
			ids = append(ids, roomID)
		}
	}
	return ids, nil
}

func (f *fakeStore) SetPresence(_ context.Context, roomID uuid.UUID, userID string, online bool, lastSeen time.Time) error {
	if p := f.participants[roomID][userID]; p != nil {
		p.Online = online
		p.LastSeen = lastSeen
	}
	return nil
}

func (f *fakeStore) AppendMessage(_ context.Context, msg *models.Message) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	cp := *msg
	f.messages[msg.RoomID] = append(f.messages[msg.RoomID], &cp)
	f.byID[msg.ID] = &cp
	if f.appendHook != nil {
		f.appendHook(&cp)
	}
	return nil
}

func (f *fakeStore) GetMessage(_ context.Context, id string) (*models.Message, error) {
	return f.byID[id], nil
}

func (f *fakeStore) UpdateReactions(_ context.Context, id string, reactions map[string][]string) error {
	msg := f.byID[id]
	if msg == nil {
		return errors.New("not found")
	}
	msg.Reactions = reactions
	return nil
}

func (f *fakeStore) UpdateRoomPreview(_ context.Context, id uuid.UUID, preview string, at time.Time) error {
	room := f.rooms[id]
	if room == nil {
		return errors.New("not found")
	}
	room.LastMessage = preview
	room.LastActivity = at
	return nil
}

func testGateway(f *fakeStore) *Gateway {
	return NewGateway(zerolog.Nop(), f, nil, NewHub(zerolog.Nop()))
}

// connect registers and returns a live client for the user.
func connect(g *Gateway, userID string) *Client {
	c := NewClient(nil, userID, userID)
	g.hub.Register(c)
	return c
}

func TestJoinIdempotent(t *testing.T) {
	f := newFakeStore()
	roomID := f.addRoom(true)
	g := testGateway(f)
	c := connect(g, "u1")

	ctx := context.Background()
	if err := g.Join(ctx, "u1", roomID); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if err := g.Join(ctx, "u1", roomID); err != nil {
		t.Fatalf("second join failed: %v", err)
	}

	if got := len(f.participants[roomID]); got != 1 {
		t.Fatalf("expected 1 participant record, got %d", got)
	}
	if !f.participants[roomID]["u1"].Online {
		t.Fatal("joined participant should be online")
	}

	// Both joins broadcast user_joined to the now-subscribed connection.
	env := drainFrame(t, c)
	if env.Event != EventUserJoined {
		t.Fatalf("expected user_joined, got %s", env.Event)
	}
}

func TestJoinMissingOrInactiveRoom(t *testing.T) {
	f := newFakeStore()
	inactive := f.addRoom(false)
	g := testGateway(f)

	if err := g.Join(context.Background(), "u1", uuid.New()); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
	if err := g.Join(context.Background(), "u1", inactive); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("inactive room should be NotFound, got %v", err)
	}
}

func TestSendAppendsThenBroadcasts(t *testing.T) {
	f := newFakeStore()
	roomID := f.addRoom(true)
	g := testGateway(f)
	c := connect(g, "u2")
	g.hub.Subscribe(c, roomID)

	msg, err := g.Send(context.Background(), &SendMessageEvent{
		RoomID:   roomID.String(),
		UserID:   "u1",
		UserName: "Alice",
		Message:  "hi",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if got := len(f.messages[roomID]); got != 1 {
		t.Fatalf("expected 1 stored message, got %d", got)
	}
	if f.rooms[roomID].LastMessage != "hi" {
		t.Fatalf("preview not updated, got %q", f.rooms[roomID].LastMessage)
	}
	if msg.Kind != models.MessageKindText {
		t.Fatalf("expected text kind default, got %s", msg.Kind)
	}
	if msg.Reactions == nil || len(msg.Reactions) != 0 {
		t.Fatal("new message must carry an empty reaction mapping")
	}

	env := drainFrame(t, c)
	if env.Event != EventNewMessage {
		t.Fatalf("expected new_message, got %s", env.Event)
	}
	var got models.Message
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("broadcast payload: %v", err)
	}
	if got.ID != msg.ID || got.Body != "hi" {
		t.Fatalf("broadcast message mismatch: %+v", got)
	}
}

func TestSendFailureDoesNotBroadcast(t *testing.T) {
	f := newFakeStore()
	roomID := f.addRoom(true)
	f.appendErr = errors.New("disk full")
	g := testGateway(f)
	c := connect(g, "u2")
	g.hub.Subscribe(c, roomID)

	_, err := g.Send(context.Background(), &SendMessageEvent{
		RoomID:   roomID.String(),
		UserID:   "u1",
		UserName: "Alice",
		Message:  "hi",
	})
	if err == nil {
		t.Fatal("expected append error")
	}

	select {
	case <-c.send:
		t.Fatal("failed append must not broadcast a partial message")
	default:
	}
	if f.rooms[roomID].LastMessage != "" {
		t.Fatal("failed append must not update the preview")
	}
}

func TestConcurrentSendsDeliverInAppendOrder(t *testing.T) {
	f := newFakeStore()
	roomID := f.addRoom(true)
	g := testGateway(f)
	c := connect(g, "u3")
	g.hub.Subscribe(c, roomID)

	// Stall the first sender between its append and its broadcast while a
	// second sender runs; delivery must still follow append order.
	release := make(chan struct{})
	stalled := make(chan struct{})
	var once sync.Once
	f.appendHook = func(*models.Message) {
		once.Do(func() {
			close(stalled)
			<-release
		})
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := g.Send(ctx, &SendMessageEvent{
			RoomID: roomID.String(), UserID: "u1", UserName: "Alice", Message: "first",
		}); err != nil {
			t.Errorf("first send failed: %v", err)
		}
	}()
	<-stalled
	go func() {
		defer wg.Done()
		if _, err := g.Send(ctx, &SendMessageEvent{
			RoomID: roomID.String(), UserID: "u2", UserName: "Bob", Message: "second",
		}); err != nil {
			t.Errorf("second send failed: %v", err)
		}
	}()

	// Let the second sender get as far as it can before releasing the first.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := len(f.messages[roomID]); got != 2 {
		t.Fatalf("expected 2 stored messages, got %d", got)
	}
	for i, want := range []string{"first", "second"} {
		if f.messages[roomID][i].Body != want {
			t.Fatalf("append order: got %q at %d, want %q", f.messages[roomID][i].Body, i, want)
		}
		env := drainFrame(t, c)
		if env.Event != EventNewMessage {
			t.Fatalf("expected new_message, got %s", env.Event)
		}
		var msg models.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			t.Fatalf("broadcast payload: %v", err)
		}
		if msg.Body != want {
			t.Fatalf("delivery order: got %q at %d, want %q", msg.Body, i, want)
		}
	}
}

func TestAddReactionIdempotent(t *testing.T) {
	f := newFakeStore()
	roomID := f.addRoom(true)
	g := testGateway(f)
	c := connect(g, "u2")
	g.hub.Subscribe(c, roomID)

	msg, err := g.Send(context.Background(), &SendMessageEvent{
		RoomID: roomID.String(), UserID: "u1", UserName: "Alice", Message: "hi",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	drainFrame(t, c) // new_message

	ev := &AddReactionEvent{MessageID: msg.ID, Emoji: "👍", UserID: "u2"}
	for i := 0; i < 2; i++ {
		if _, err := g.AddReaction(context.Background(), ev); err != nil {
			t.Fatalf("add reaction %d failed: %v", i, err)
		}
	}

	stored := f.byID[msg.ID]
	if got := len(stored.Reactions["👍"]); got != 1 {
		t.Fatalf("duplicate reaction must not grow the set, got %d entries", got)
	}

	// Both attempts broadcast the full mapping.
	for i := 0; i < 2; i++ {
		env := drainFrame(t, c)
		if env.Event != EventReactionAdded {
			t.Fatalf("expected reaction_added, got %s", env.Event)
		}
	}
}

func TestAddReactionMissingMessage(t *testing.T) {
	f := newFakeStore()
	g := testGateway(f)

	_, err := g.AddReaction(context.Background(), &AddReactionEvent{
		MessageID: "01J0000000000000000000000", Emoji: "👍", UserID: "u1",
	})
	if !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestLeaveWithoutMembershipIsNoop(t *testing.T) {
	f := newFakeStore()
	roomID := f.addRoom(true)
	g := testGateway(f)
	c := connect(g, "u2")
	g.hub.Subscribe(c, roomID)

	if err := g.Leave(context.Background(), "ghost", roomID); err != nil {
		t.Fatalf("leave of absent membership must be a no-op, got %v", err)
	}
	select {
	case <-c.send:
		t.Fatal("no-op leave must not broadcast user_left")
	default:
	}
}

func TestLeaveRemovesMembershipAndNotifies(t *testing.T) {
	f := newFakeStore()
	roomID := f.addRoom(true)
	g := testGateway(f)
	ctx := context.Background()

	leaver := connect(g, "u1")
	watcher := connect(g, "u2")
	if err := g.Join(ctx, "u1", roomID); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	drainFrame(t, leaver) // own user_joined
	g.hub.Subscribe(watcher, roomID)

	if err := g.Leave(ctx, "u1", roomID); err != nil {
		t.Fatalf("leave failed: %v", err)
	}

	if _, ok := f.participants[roomID]["u1"]; ok {
		t.Fatal("membership should be removed")
	}
	env := drainFrame(t, watcher)
	if env.Event != EventUserLeft {
		t.Fatalf("expected user_left, got %s", env.Event)
	}
	// The leaver was unsubscribed before the broadcast.
	select {
	case <-leaver.send:
		t.Fatal("leaver should not receive its own user_left")
	default:
	}
}

func TestHandleDisconnectMarksMembershipsOffline(t *testing.T) {
	f := newFakeStore()
	roomID := f.addRoom(true)
	g := testGateway(f)
	ctx := context.Background()

	leaver := connect(g, "u1")
	watcher := connect(g, "u2")
	if err := g.Join(ctx, "u1", roomID); err != nil {
		t.Fatalf("join u1 failed: %v", err)
	}
	if err := g.Join(ctx, "u2", roomID); err != nil {
		t.Fatalf("join u2 failed: %v", err)
	}
	for len(watcher.send) > 0 {
		<-watcher.send
	}

	g.HandleDisconnect(leaver)

	if f.participants[roomID]["u1"].Online {
		t.Fatal("disconnected user should be offline")
	}
	env := drainFrame(t, watcher)
	if env.Event != EventUserLeft {
		t.Fatalf("expected user_left, got %s", env.Event)
	}
}

func TestHandleDisconnectStaleConnectionKeepsPresence(t *testing.T) {
	f := newFakeStore()
	roomID := f.addRoom(true)
	g := testGateway(f)
	ctx := context.Background()

	stale := connect(g, "u1")
	if err := g.Join(ctx, "u1", roomID); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	fresh := connect(g, "u1") // replaces the binding
	_ = fresh

	g.HandleDisconnect(stale)

	if !f.participants[roomID]["u1"].Online {
		t.Fatal("stale disconnect must not mark a reconnected user offline")
	}
}

func TestHandleEventErrorOnlyToOrigin(t *testing.T) {
	f := newFakeStore()
	roomID := f.addRoom(true)
	g := testGateway(f)

	origin := connect(g, "u1")
	other := connect(g, "u2")
	g.hub.Subscribe(origin, roomID)
	g.hub.Subscribe(other, roomID)

	g.HandleEvent(origin, []byte(`{"event":"send_message","data":{"room_id":"`+roomID.String()+`"}}`))

	env := drainFrame(t, origin)
	if env.Event != EventError {
		t.Fatalf("expected error event, got %s", env.Event)
	}
	select {
	case <-other.send:
		t.Fatal("error events must never be broadcast")
	default:
	}
}

func TestStoreFailureErrorHidesDetail(t *testing.T) {
	f := newFakeStore()
	roomID := f.addRoom(true)
	f.appendErr = errors.New("pq: deadlock detected on relation chat_messages")
	g := testGateway(f)
	c := connect(g, "u1")

	frame := `{"event":"send_message","data":{"room_id":"` + roomID.String() + `","user_id":"u1","user_name":"Alice","message":"hi"}}`
	g.HandleEvent(c, []byte(frame))

	env := drainFrame(t, c)
	if env.Event != EventError {
		t.Fatalf("expected error event, got %s", env.Event)
	}
	var payload ErrorPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("error payload: %v", err)
	}
	if strings.Contains(payload.Message, "deadlock") || strings.Contains(payload.Message, "pq:") {
		t.Fatalf("driver detail leaked to the client: %q", payload.Message)
	}
	if payload.Message == "" {
		t.Fatal("client still needs a human-readable message")
	}
}

func TestHandleEventDispatchesSendMessage(t *testing.T) {
	f := newFakeStore()
	roomID := f.addRoom(true)
	g := testGateway(f)
	c := connect(g, "u1")
	g.hub.Subscribe(c, roomID)

	frame := `{"event":"send_message","data":{"room_id":"` + roomID.String() + `","user_id":"u1","user_name":"Alice","message":"hello"}}`
	g.HandleEvent(c, []byte(frame))

	if got := len(f.messages[roomID]); got != 1 {
		t.Fatalf("expected 1 stored message, got %d", got)
	}
	env := drainFrame(t, c)
	if env.Event != EventNewMessage {
		t.Fatalf("expected new_message, got %s", env.Event)
	}
}
