package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/diligencias582/TRABAJAI/internal/metrics"
	"github.com/diligencias582/TRABAJAI/internal/models"
	"github.com/diligencias582/TRABAJAI/internal/store"
)

// Sentinel errors surfaced as NotFound on both the REST and event surfaces.
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrMessageNotFound = errors.New("message not found")
)

// storeTimeout bounds every durable-store call so a slow store cannot
// stall the event loop.
const storeTimeout = 5 * time.Second

// previewLimit is the maximum length of a room's last-message preview.
const previewLimit = 100

// Store is the slice of the durable store the gateway needs.
// *store.PostgresStore and *store.SQLiteStore satisfy it.
type Store interface {
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	UpsertParticipant(ctx context.Context, p *models.Participant) error
	RemoveParticipant(ctx context.Context, roomID uuid.UUID, userID string) error
	ListUserRoomIDs(ctx context.Context, userID string) ([]uuid.UUID, error)
	SetPresence(ctx context.Context, roomID uuid.UUID, userID string, online bool, lastSeen time.Time) error
	AppendMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	UpdateReactions(ctx context.Context, id string, reactions map[string][]string) error
	UpdateRoomPreview(ctx context.Context, id uuid.UUID, preview string, at time.Time) error
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Clients connect from anywhere, like the REST surface
	},
}

// Gateway validates incoming chat events and orchestrates the hub, the
// typing aggregator and the durable store.
type Gateway struct {
	log      zerolog.Logger
	store    Store
	presence *store.RedisStore // optional presence mirror, may be nil
	hub      *Hub
	typing   *TypingAggregator

	mu        sync.Mutex
	sendLocks map[uuid.UUID]*sync.Mutex
}

// NewGateway creates a gateway. redisStore may be nil in development.
func NewGateway(logger zerolog.Logger, st Store, redisStore *store.RedisStore, hub *Hub) *Gateway {
	return &Gateway{
		log:       logger.With().Str("component", "gateway").Logger(),
		store:     st,
		presence:  redisStore,
		hub:       hub,
		typing:    NewTypingAggregator(),
		sendLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// Hub exposes the connection hub, used by the analytics handler for the
// online-user count.
func (g *Gateway) Hub() *Hub {
	return g.hub
}

// ServeWS upgrades an HTTP request to a websocket connection and starts
// the client's pumps. user_id and user_name arrive as query parameters.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, `{"error":"user_id is required"}`, http.StatusBadRequest)
		return
	}
	userName := r.URL.Query().Get("user_name")
	if userName == "" {
		userName = userID
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(conn, userID, userName)
	g.hub.Register(client)
	g.log.Info().Str("user_id", userID).Msg("client connected")

	go client.writePump()
	go client.readPump(g)
}

// HandleEvent decodes one client frame and dispatches it. Failures are
// reported to the originating connection only; no error here is fatal to
// the process or to other rooms' connections.
func (g *Gateway) HandleEvent(c *Client, raw []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	var env Envelope
	if err := decodeEnvelope(raw, &env); err != nil {
		g.sendError(c, "validation", err)
		return
	}

	var err error
	switch env.Event {
	case EventJoinRoom:
		var ev JoinRoomEvent
		if err = decodeEvent(env.Data, &ev); err == nil {
			err = g.Join(ctx, ev.UserID, uuid.MustParse(ev.RoomID))
		}
	case EventLeaveRoom:
		var ev LeaveRoomEvent
		if err = decodeEvent(env.Data, &ev); err == nil {
			err = g.Leave(ctx, ev.UserID, uuid.MustParse(ev.RoomID))
		}
	case EventSendMessage:
		var ev SendMessageEvent
		if err = decodeEvent(env.Data, &ev); err == nil {
			_, err = g.Send(ctx, &ev)
		}
	case EventTypingStart:
		var ev TypingEvent
		if err = decodeEvent(env.Data, &ev); err == nil {
			g.TypingStart(&ev)
		}
	case EventTypingStop:
		var ev TypingEvent
		if err = decodeEvent(env.Data, &ev); err == nil {
			g.TypingStop(&ev)
		}
	case EventAddReaction:
		var ev AddReactionEvent
		if err = decodeEvent(env.Data, &ev); err == nil {
			_, err = g.AddReaction(ctx, &ev)
		}
	default:
		g.sendError(c, "validation", fmt.Errorf("%w: unknown event %q", ErrValidation, env.Event))
		return
	}

	if err != nil {
		g.sendError(c, classify(err), err)
	}
}

// HandleDisconnect tears down a dropped connection: it unbinds the
// connection and, when it was the user's active binding, marks every
// membership offline and notifies the affected rooms. Memberships are
// looked up from the store because disconnects carry no room payload.
func (g *Gateway) HandleDisconnect(c *Client) {
	active := g.hub.Unregister(c)
	if !active {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	now := time.Now()
	roomIDs, err := g.store.ListUserRoomIDs(ctx, c.UserID)
	if err != nil {
		g.log.Error().Err(err).Str("user_id", c.UserID).Msg("list memberships on disconnect")
		return
	}

	for _, roomID := range roomIDs {
		if err := g.store.SetPresence(ctx, roomID, c.UserID, false, now); err != nil {
			g.log.Error().Err(err).Str("user_id", c.UserID).Msg("mark offline")
			continue
		}
		g.mirrorPresence(roomID, c.UserID, false, now)
		g.hub.Broadcast(roomID, EventUserLeft, PresencePayload{
			RoomID:    roomID.String(),
			UserID:    c.UserID,
			Timestamp: wireTime(now),
		})
	}
	g.log.Info().Str("user_id", c.UserID).Msg("client disconnected")
}

// Join upserts the membership, marks the user online, subscribes the
// user's live connection and notifies the room. Idempotent: joining twice
// refreshes timestamps without duplicating the record.
func (g *Gateway) Join(ctx context.Context, userID string, roomID uuid.UUID) error {
	room, err := g.store.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil || !room.Active {
		return ErrRoomNotFound
	}

	now := time.Now()
	p := &models.Participant{
		UserID:   userID,
		RoomID:   roomID,
		JoinedAt: now,
		LastSeen: now,
		Online:   true,
		Role:     models.RoleParticipant,
	}
	if err := g.store.UpsertParticipant(ctx, p); err != nil {
		return err
	}
	g.mirrorPresence(roomID, userID, true, now)

	if c := g.hub.ClientForUser(userID); c != nil {
		g.hub.Subscribe(c, roomID)
	}

	g.hub.Broadcast(roomID, EventUserJoined, PresencePayload{
		RoomID:    roomID.String(),
		UserID:    userID,
		Timestamp: wireTime(now),
	})
	return nil
}

// Leave removes the membership and notifies the room. A leave for a
// membership that never existed is a silent no-op.
func (g *Gateway) Leave(ctx context.Context, userID string, roomID uuid.UUID) error {
	roomIDs, err := g.store.ListUserRoomIDs(ctx, userID)
	if err != nil {
		return err
	}
	member := false
	for _, id := range roomIDs {
		if id == roomID {
			member = true
			break
		}
	}

	if c := g.hub.ClientForUser(userID); c != nil {
		g.hub.Unsubscribe(c, roomID)
	}
	if !member {
		return nil
	}

	if err := g.store.RemoveParticipant(ctx, roomID, userID); err != nil {
		return err
	}
	if g.presence != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			defer cancel()
			if err := g.presence.ClearPresence(ctx, roomID, userID); err != nil {
				g.log.Debug().Err(err).Msg("clear presence mirror")
			}
		}()
	}

	g.hub.Broadcast(roomID, EventUserLeft, PresencePayload{
		RoomID:    roomID.String(),
		UserID:    userID,
		Timestamp: wireTime(time.Now()),
	})
	return nil
}

// sendLock returns the mutex serializing sends for a room.
func (g *Gateway) sendLock(roomID uuid.UUID) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l := g.sendLocks[roomID]
	if l == nil {
		l = &sync.Mutex{}
		g.sendLocks[roomID] = l
	}
	return l
}

// Send validates the room, appends the message, updates the room preview
// and activity, then fans the materialized message out. Both writes happen
// before the broadcast so a broadcast message is always durably appended;
// a crash between the writes can leave the preview stale, never a phantom
// message. The append-to-broadcast sequence holds a per-room lock so
// subscribers observe messages in log order.
func (g *Gateway) Send(ctx context.Context, ev *SendMessageEvent) (*models.Message, error) {
	roomID := uuid.MustParse(ev.RoomID)
	room, err := g.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	lock := g.sendLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	msg := &models.Message{
		ID:          ulid.Make().String(),
		RoomID:      roomID,
		SenderID:    ev.UserID,
		SenderName:  ev.UserName,
		Body:        ev.Message,
		Kind:        ev.Kind(),
		Timestamp:   time.Now(),
		Edited:      false,
		ReplyTo:     ev.ReplyTo,
		Attachments: ev.Attachments,
		Reactions:   map[string][]string{},
	}

	if err := g.store.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	if err := g.store.UpdateRoomPreview(ctx, roomID, truncatePreview(msg.Body), msg.Timestamp); err != nil {
		// The message is durable; a stale preview is tolerable.
		g.log.Error().Err(err).Str("room_id", ev.RoomID).Msg("update room preview")
	}

	metrics.MessagesSent.WithLabelValues(string(msg.Kind)).Inc()
	g.hub.Broadcast(roomID, EventNewMessage, msg)
	return msg, nil
}

// TypingStart records the typing entry and signals the room.
func (g *Gateway) TypingStart(ev *TypingEvent) {
	roomID := uuid.MustParse(ev.RoomID)
	g.typing.Start(roomID, ev.UserID, ev.UserName)
	g.hub.Broadcast(roomID, EventUserTyping, TypingPayload{
		RoomID:   ev.RoomID,
		UserID:   ev.UserID,
		UserName: ev.UserName,
		Typing:   true,
	})
}

// TypingStop clears the typing entry and signals the room.
func (g *Gateway) TypingStop(ev *TypingEvent) {
	roomID := uuid.MustParse(ev.RoomID)
	g.typing.Stop(roomID, ev.UserID)
	g.hub.Broadcast(roomID, EventUserTyping, TypingPayload{
		RoomID:   ev.RoomID,
		UserID:   ev.UserID,
		UserName: ev.UserName,
		Typing:   false,
	})
}

// AddReaction adds a user to a message's reaction set for an emoji.
// Idempotent per (message, emoji, user); the full updated mapping is
// broadcast to the message's room either way.
func (g *Gateway) AddReaction(ctx context.Context, ev *AddReactionEvent) (*models.Message, error) {
	msg, err := g.store.GetMessage(ctx, ev.MessageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}

	if !msg.HasReaction(ev.Emoji, ev.UserID) {
		if msg.Reactions == nil {
			msg.Reactions = map[string][]string{}
		}
		msg.Reactions[ev.Emoji] = append(msg.Reactions[ev.Emoji], ev.UserID)
		if err := g.store.UpdateReactions(ctx, msg.ID, msg.Reactions); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrMessageNotFound
			}
			return nil, err
		}
		metrics.ReactionsAdded.Inc()
	}

	g.hub.Broadcast(msg.RoomID, EventReactionAdded, ReactionPayload{
		MessageID: msg.ID,
		RoomID:    msg.RoomID.String(),
		Emoji:     ev.Emoji,
		UserID:    ev.UserID,
		Reactions: msg.Reactions,
	})
	return msg, nil
}

// RunTypingSweeper expires typing entries whose stop signal was lost,
// broadcasting typing:false so indicators cannot stick. Blocks until ctx
// is done.
func (g *Gateway) RunTypingSweeper(ctx context.Context, ttl time.Duration) {
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, entry := range g.typing.Sweep(ttl) {
				g.hub.Broadcast(entry.RoomID, EventUserTyping, TypingPayload{
					RoomID:   entry.RoomID.String(),
					UserID:   entry.UserID,
					UserName: entry.UserName,
					Typing:   false,
				})
			}
		}
	}
}

// mirrorPresence writes a presence snapshot to Redis off the hot path.
// Best-effort: the participant row is authoritative.
func (g *Gateway) mirrorPresence(roomID uuid.UUID, userID string, online bool, at time.Time) {
	if g.presence == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		snap := store.PresenceSnapshot{Online: online, LastSeen: at}
		if err := g.presence.SetPresence(ctx, roomID, userID, snap); err != nil {
			g.log.Debug().Err(err).Str("user_id", userID).Msg("presence mirror write")
		}
	}()
}

// sendError reports a failure to the originating connection only. Store
// failures are reported generically; the detail stays in the log.
func (g *Gateway) sendError(c *Client, reason string, err error) {
	metrics.EventErrors.WithLabelValues(reason).Inc()
	if reason == "store" {
		g.log.Error().Err(err).Str("user_id", c.UserID).Msg("event failed")
		g.hub.Send(c, EventError, ErrorPayload{Message: "temporary failure, please retry"})
		return
	}
	g.log.Debug().Err(err).Str("user_id", c.UserID).Msg("event rejected")
	g.hub.Send(c, EventError, ErrorPayload{Message: err.Error()})
}

// classify maps an error to a metrics reason label.
func classify(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrMessageNotFound):
		return "not_found"
	default:
		return "store"
	}
}

// truncatePreview shortens a message body to the room preview limit,
// appending an ellipsis when truncated.
func truncatePreview(body string) string {
	runes := []rune(body)
	if len(runes) <= previewLimit {
		return body
	}
	return string(runes[:previewLimit]) + "..."
}

// decodeEnvelope unmarshals a raw frame into an envelope.
func decodeEnvelope(raw []byte, env *Envelope) error {
	if err := json.Unmarshal(raw, env); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if env.Event == "" {
		return fmt.Errorf("%w: event is required", ErrValidation)
	}
	return nil
}
