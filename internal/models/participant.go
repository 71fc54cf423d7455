package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a participant's role within a room.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleModerator   Role = "moderator"
	RoleAdmin       Role = "admin"
)

// Participant is a user's membership record in a room. There is exactly one
// record per (user, room) pair; join upserts it, leave removes it.
// Online/offline transitions follow the connection lifecycle, not leave.
type Participant struct {
	UserID   string    `json:"user_id"`
	RoomID   uuid.UUID `json:"room_id"`
	JoinedAt time.Time `json:"joined_at"`
	LastSeen time.Time `json:"last_seen"`
	Online   bool      `json:"online"`
	Typing   bool      `json:"typing"`
	Role     Role      `json:"role"`
}
