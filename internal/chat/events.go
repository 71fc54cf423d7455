package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/diligencias582/TRABAJAI/internal/models"
)

// Client -> server event names.
const (
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventSendMessage = "send_message"
	EventTypingStart = "typing_start"
	EventTypingStop  = "typing_stop"
	EventAddReaction = "add_reaction"
)

// Server -> client event names.
const (
	EventUserJoined    = "user_joined"
	EventUserLeft      = "user_left"
	EventNewMessage    = "new_message"
	EventUserTyping    = "user_typing"
	EventReactionAdded = "reaction_added"
	EventError         = "error"
)

// ErrValidation marks a malformed or incomplete event payload. Validation
// failures are rejected locally and reported only to the originating
// connection, never broadcast.
var ErrValidation = errors.New("validation failed")

// Envelope is the wire frame for both directions: a discriminator plus the
// event-specific payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// JoinRoomEvent asks to join a room's fan-out set.
type JoinRoomEvent struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

func (e *JoinRoomEvent) Validate() error {
	if e.RoomID == "" {
		return fmt.Errorf("%w: room_id is required", ErrValidation)
	}
	if e.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if _, err := uuid.Parse(e.RoomID); err != nil {
		return fmt.Errorf("%w: invalid room_id format", ErrValidation)
	}
	return nil
}

// LeaveRoomEvent asks to remove a room membership.
type LeaveRoomEvent struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

func (e *LeaveRoomEvent) Validate() error {
	return (*JoinRoomEvent)(e).Validate()
}

// SendMessageEvent posts a message to a room.
type SendMessageEvent struct {
	RoomID      string   `json:"room_id"`
	UserID      string   `json:"user_id"`
	UserName    string   `json:"user_name"`
	Message     string   `json:"message"`
	MessageType string   `json:"message_type,omitempty"`
	ReplyTo     string   `json:"reply_to,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

func (e *SendMessageEvent) Validate() error {
	if e.RoomID == "" {
		return fmt.Errorf("%w: room_id is required", ErrValidation)
	}
	if _, err := uuid.Parse(e.RoomID); err != nil {
		return fmt.Errorf("%w: invalid room_id format", ErrValidation)
	}
	if e.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if e.UserName == "" {
		return fmt.Errorf("%w: user_name is required", ErrValidation)
	}
	if e.Message == "" {
		return fmt.Errorf("%w: message is required", ErrValidation)
	}
	if len(e.Message) > 4096 {
		return fmt.Errorf("%w: message too long (max 4096 bytes)", ErrValidation)
	}
	if e.MessageType != "" && !models.MessageKind(e.MessageType).Valid() {
		return fmt.Errorf("%w: unknown message_type %q", ErrValidation, e.MessageType)
	}
	return nil
}

// Kind returns the message kind, defaulting to text.
func (e *SendMessageEvent) Kind() models.MessageKind {
	if e.MessageType == "" {
		return models.MessageKindText
	}
	return models.MessageKind(e.MessageType)
}

// TypingEvent signals that a user started or stopped composing.
type TypingEvent struct {
	RoomID   string `json:"room_id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

func (e *TypingEvent) Validate() error {
	if e.RoomID == "" {
		return fmt.Errorf("%w: room_id is required", ErrValidation)
	}
	if _, err := uuid.Parse(e.RoomID); err != nil {
		return fmt.Errorf("%w: invalid room_id format", ErrValidation)
	}
	if e.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	return nil
}

// AddReactionEvent adds an emoji reaction to a message.
type AddReactionEvent struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
	UserID    string `json:"user_id"`
}

func (e *AddReactionEvent) Validate() error {
	if e.MessageID == "" {
		return fmt.Errorf("%w: message_id is required", ErrValidation)
	}
	if e.Emoji == "" {
		return fmt.Errorf("%w: emoji is required", ErrValidation)
	}
	if e.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	return nil
}

// PresencePayload is the server->client payload for user_joined/user_left.
type PresencePayload struct {
	RoomID    string `json:"room_id"`
	UserID    string `json:"user_id"`
	Timestamp string `json:"timestamp"`
}

// TypingPayload is the server->client payload for user_typing.
type TypingPayload struct {
	RoomID   string `json:"room_id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Typing   bool   `json:"typing"`
}

// ReactionPayload is the server->client payload for reaction_added,
// carrying the full updated mapping.
type ReactionPayload struct {
	MessageID string              `json:"message_id"`
	RoomID    string              `json:"room_id"`
	Emoji     string              `json:"emoji"`
	UserID    string              `json:"user_id"`
	Reactions map[string][]string `json:"reactions"`
}

// ErrorPayload is the server->client payload for error events. It is only
// ever delivered to the originating connection.
type ErrorPayload struct {
	Message string `json:"message"`
}

// decodeEvent unmarshals an envelope's data into dst and validates it.
func decodeEvent(data json.RawMessage, dst interface{ Validate() error }) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing event data", ErrValidation)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return dst.Validate()
}

// wireTime serializes timestamps to the canonical wire form.
func wireTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
