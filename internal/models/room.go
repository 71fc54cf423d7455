package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomKind classifies a chat room.
type RoomKind string

const (
	RoomKindSupport           RoomKind = "support"
	RoomKindCandidateEmployer RoomKind = "candidate-employer"
	RoomKindGeneral           RoomKind = "general"
	RoomKindCustom            RoomKind = "custom"
)

// Valid reports whether k is a known room kind.
func (k RoomKind) Valid() bool {
	switch k {
	case RoomKindSupport, RoomKindCandidateEmployer, RoomKindGeneral, RoomKindCustom:
		return true
	}
	return false
}

// Reserved identities for the rooms seeded at first startup.
var (
	GeneralRoomID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	SupportRoomID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

// Room represents a chat room grouping participants and their message history.
// Inactive rooms are excluded from listing and join but retained for history.
type Room struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Kind         RoomKind          `json:"room_type"`
	Participants []string          `json:"participants"`
	CreatedBy    string            `json:"created_by,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	LastMessage  string            `json:"last_message,omitempty"`
	LastActivity time.Time         `json:"last_activity"`
	Active       bool              `json:"active"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}
