package chat

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/diligencias582/TRABAJAI/internal/models"
)

func TestDecodeEventValidates(t *testing.T) {
	roomID := uuid.New().String()

	cases := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"valid", `{"room_id":"` + roomID + `","user_id":"u1"}`, false},
		{"missing room", `{"user_id":"u1"}`, true},
		{"missing user", `{"room_id":"` + roomID + `"}`, true},
		{"bad uuid", `{"room_id":"not-a-uuid","user_id":"u1"}`, true},
		{"bad json", `{`, true},
		{"empty", ``, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ev JoinRoomEvent
			err := decodeEvent(json.RawMessage(tc.data), &ev)
			if tc.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSendMessageEventValidate(t *testing.T) {
	roomID := uuid.New().String()
	valid := SendMessageEvent{RoomID: roomID, UserID: "u1", UserName: "Alice", Message: "hi"}

	if err := valid.Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	tooLong := valid
	tooLong.Message = strings.Repeat("x", 4097)
	if err := tooLong.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("oversized message should fail validation, got %v", err)
	}

	badKind := valid
	badKind.MessageType = "carrier-pigeon"
	if err := badKind.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("unknown message_type should fail validation, got %v", err)
	}
}

func TestSendMessageEventKindDefaultsToText(t *testing.T) {
	ev := SendMessageEvent{}
	if ev.Kind() != models.MessageKindText {
		t.Fatalf("expected text default, got %s", ev.Kind())
	}

	ev.MessageType = "image"
	if ev.Kind() != models.MessageKindImage {
		t.Fatalf("expected image, got %s", ev.Kind())
	}
}

func TestDecodeEnvelope(t *testing.T) {
	// Each frame decodes into a fresh envelope, as in the event loop.
	var valid Envelope
	if err := decodeEnvelope([]byte(`{"event":"join_room","data":{}}`), &valid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if valid.Event != EventJoinRoom {
		t.Fatalf("expected join_room, got %s", valid.Event)
	}

	var missing Envelope
	if err := decodeEnvelope([]byte(`{"data":{}}`), &missing); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing event should fail validation, got %v", err)
	}

	var malformed Envelope
	if err := decodeEnvelope([]byte(`nonsense`), &malformed); !errors.Is(err, ErrValidation) {
		t.Fatalf("malformed frame should fail validation, got %v", err)
	}
}

func TestTruncatePreview(t *testing.T) {
	short := "hello"
	if got := truncatePreview(short); got != short {
		t.Fatalf("short body must pass through, got %q", got)
	}

	long := strings.Repeat("a", 150)
	got := truncatePreview(long)
	if got != strings.Repeat("a", 100)+"..." {
		t.Fatalf("unexpected truncation: %q", got)
	}

	// Multi-byte runes must not be split mid-sequence.
	wide := strings.Repeat("ñ", 120)
	got = truncatePreview(wide)
	if got != strings.Repeat("ñ", 100)+"..." {
		t.Fatalf("rune-unsafe truncation: %q", got)
	}
}
