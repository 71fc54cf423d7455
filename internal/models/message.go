package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageKind classifies a message body.
type MessageKind string

const (
	MessageKindText  MessageKind = "text"
	MessageKindImage MessageKind = "image"
	MessageKindFile  MessageKind = "file"
	MessageKindEmoji MessageKind = "emoji"
)

// Valid reports whether k is a known message kind.
func (k MessageKind) Valid() bool {
	switch k {
	case MessageKindText, MessageKindImage, MessageKindFile, MessageKindEmoji:
		return true
	}
	return false
}

// Message is one entry in a room's append-only message log.
// The Edited flag is reserved; no edit operation is exposed yet.
// Reactions maps an emoji symbol to the duplicate-free set of reacting users.
type Message struct {
	ID          string              `json:"id"` // ULID
	RoomID      uuid.UUID           `json:"room_id"`
	SenderID    string              `json:"sender_id"`
	SenderName  string              `json:"sender_name"`
	Body        string              `json:"message"`
	Kind        MessageKind         `json:"message_type"`
	Timestamp   time.Time           `json:"timestamp"`
	Edited      bool                `json:"edited"`
	ReplyTo     string              `json:"reply_to,omitempty"`
	Attachments []string            `json:"attachments,omitempty"`
	Reactions   map[string][]string `json:"reactions"`
}

// HasReaction reports whether userID already reacted with emoji.
func (m *Message) HasReaction(emoji, userID string) bool {
	for _, id := range m.Reactions[emoji] {
		if id == userID {
			return true
		}
	}
	return false
}
