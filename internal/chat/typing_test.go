package chat

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTypingStartStop(t *testing.T) {
	agg := NewTypingAggregator()
	roomID := uuid.New()

	agg.Start(roomID, "u1", "Alice")
	agg.Start(roomID, "u2", "Bob")

	if got := len(agg.Typing(roomID)); got != 2 {
		t.Fatalf("expected 2 typing entries, got %d", got)
	}

	if !agg.Stop(roomID, "u1") {
		t.Fatal("expected stop to report an existing entry")
	}
	if got := len(agg.Typing(roomID)); got != 1 {
		t.Fatalf("expected 1 typing entry after stop, got %d", got)
	}
}

func TestTypingStopMissingEntry(t *testing.T) {
	agg := NewTypingAggregator()
	roomID := uuid.New()

	if agg.Stop(roomID, "ghost") {
		t.Fatal("stop for an absent entry should report false")
	}
}

func TestTypingStartRefreshesTimestamp(t *testing.T) {
	agg := NewTypingAggregator()
	roomID := uuid.New()

	agg.Start(roomID, "u1", "Alice")
	first := agg.Typing(roomID)[0].StartedAt

	time.Sleep(5 * time.Millisecond)
	agg.Start(roomID, "u1", "Alice")

	entries := agg.Typing(roomID)
	if len(entries) != 1 {
		t.Fatalf("repeated start should not duplicate the entry, got %d", len(entries))
	}
	if !entries[0].StartedAt.After(first) {
		t.Fatal("repeated start should refresh the timestamp")
	}
}

func TestTypingSweepExpiresStaleEntries(t *testing.T) {
	agg := NewTypingAggregator()
	roomA := uuid.New()
	roomB := uuid.New()

	agg.Start(roomA, "u1", "Alice")
	agg.Start(roomB, "u2", "Bob")

	time.Sleep(10 * time.Millisecond)
	agg.Start(roomB, "u3", "Carol")

	expired := agg.Sweep(5 * time.Millisecond)
	if len(expired) != 2 {
		t.Fatalf("expected 2 expired entries, got %d", len(expired))
	}
	for _, e := range expired {
		if e.UserID == "u3" {
			t.Fatal("fresh entry should survive the sweep")
		}
	}
	if got := len(agg.Typing(roomB)); got != 1 {
		t.Fatalf("expected 1 surviving entry in roomB, got %d", got)
	}
	if got := len(agg.Typing(roomA)); got != 0 {
		t.Fatalf("expected roomA emptied by sweep, got %d", got)
	}
}
