package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const presenceTTL = 7 * 24 * time.Hour

// RedisStore mirrors per-room presence for durability across instances and
// backs the rate limiter. The in-memory hub remains the source of truth for
// who is connected right now.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying client for the rate limiter middleware.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// PresenceSnapshot is the persisted presence state for one (user, room) pair.
type PresenceSnapshot struct {
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"last_seen"`
}

// roomPresenceKey returns the key for a room's presence hash.
func roomPresenceKey(roomID uuid.UUID) string {
	return fmt.Sprintf("presence:room:%s", roomID)
}

// SetPresence writes a presence snapshot for a (user, room) pair.
// Callers treat this as best-effort; the participant row is authoritative.
func (s *RedisStore) SetPresence(ctx context.Context, roomID uuid.UUID, userID string, snap PresenceSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	key := roomPresenceKey(roomID)
	if err := s.client.HSet(ctx, key, userID, string(data)).Err(); err != nil {
		return err
	}
	s.client.Expire(ctx, key, presenceTTL)
	return nil
}

// RoomPresence retrieves the presence snapshots for a room.
func (s *RedisStore) RoomPresence(ctx context.Context, roomID uuid.UUID) (map[string]PresenceSnapshot, error) {
	entries, err := s.client.HGetAll(ctx, roomPresenceKey(roomID)).Result()
	if err != nil {
		return nil, err
	}

	snaps := make(map[string]PresenceSnapshot, len(entries))
	for userID, data := range entries {
		var snap PresenceSnapshot
		if err := json.Unmarshal([]byte(data), &snap); err != nil {
			continue
		}
		snaps[userID] = snap
	}
	return snaps, nil
}

// ClearPresence removes a user's snapshot from a room, used when a
// membership is removed entirely.
func (s *RedisStore) ClearPresence(ctx context.Context, roomID uuid.UUID, userID string) error {
	return s.client.HDel(ctx, roomPresenceKey(roomID), userID).Err()
}
