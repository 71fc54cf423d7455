package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TypingEntry records one user currently composing in a room.
// Entries are ephemeral and never persisted.
type TypingEntry struct {
	RoomID    uuid.UUID
	UserID    string
	UserName  string
	StartedAt time.Time
}

// TypingAggregator owns the per-room map of currently-typing users.
// A stop signal removes an entry; the sweep removes entries whose stop
// signal was lost so indicators cannot stick.
type TypingAggregator struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]map[string]TypingEntry
}

// NewTypingAggregator creates an empty aggregator.
func NewTypingAggregator() *TypingAggregator {
	return &TypingAggregator{rooms: make(map[uuid.UUID]map[string]TypingEntry)}
}

// Start records that a user began composing. Repeated starts refresh the
// timestamp.
func (t *TypingAggregator) Start(roomID uuid.UUID, userID, userName string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	room := t.rooms[roomID]
	if room == nil {
		room = make(map[string]TypingEntry)
		t.rooms[roomID] = room
	}
	room[userID] = TypingEntry{
		RoomID:    roomID,
		UserID:    userID,
		UserName:  userName,
		StartedAt: time.Now(),
	}
}

// Stop removes a user's typing entry. Returns false when no entry existed.
func (t *TypingAggregator) Stop(roomID uuid.UUID, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	room := t.rooms[roomID]
	if room == nil {
		return false
	}
	if _, ok := room[userID]; !ok {
		return false
	}
	delete(room, userID)
	if len(room) == 0 {
		delete(t.rooms, roomID)
	}
	return true
}

// Typing returns the users currently composing in a room.
func (t *TypingAggregator) Typing(roomID uuid.UUID) []TypingEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	room := t.rooms[roomID]
	entries := make([]TypingEntry, 0, len(room))
	for _, entry := range room {
		entries = append(entries, entry)
	}
	return entries
}

// Sweep removes and returns every entry older than maxAge. Callers
// broadcast typing:false for the returned entries.
func (t *TypingAggregator) Sweep(maxAge time.Duration) []TypingEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	var expired []TypingEntry
	for roomID, room := range t.rooms {
		for userID, entry := range room {
			if entry.StartedAt.Before(cutoff) {
				expired = append(expired, entry)
				delete(room, userID)
			}
		}
		if len(room) == 0 {
			delete(t.rooms, roomID)
		}
	}
	return expired
}
