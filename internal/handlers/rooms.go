package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/diligencias582/TRABAJAI/internal/chat"
	"github.com/diligencias582/TRABAJAI/internal/models"
)

// CreateRoomRequest represents the room creation request.
type CreateRoomRequest struct {
	Name         string            `json:"name"`
	RoomType     string            `json:"room_type"`
	Participants []string          `json:"participants"`
	CreatedBy    string            `json:"created_by"`
	Metadata     map[string]string `json:"metadata"`
}

// CreateRoom handles POST /chat/rooms. The store seeds an offline
// membership record per initial participant; they flip online when they
// join over the socket.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Name) > 100 {
		h.Error(w, http.StatusBadRequest, "name must be at most 100 characters")
		return
	}

	kind := models.RoomKind(req.RoomType)
	if req.RoomType == "" {
		kind = models.RoomKindCustom
	}
	if !kind.Valid() {
		h.Error(w, http.StatusBadRequest, "unknown room_type")
		return
	}

	now := time.Now()
	room := &models.Room{
		ID:           uuid.New(),
		Name:         req.Name,
		Kind:         kind,
		Participants: req.Participants,
		CreatedBy:    req.CreatedBy,
		CreatedAt:    now,
		LastActivity: now,
		Active:       true,
		Metadata:     req.Metadata,
	}
	if room.Participants == nil {
		room.Participants = []string{}
	}
	if room.Metadata == nil {
		room.Metadata = map[string]string{}
	}

	if err := h.db.CreateRoom(r.Context(), room); err != nil {
		h.log.Error().Err(err).Msg("create room")
		h.Error(w, http.StatusInternalServerError, "failed to create room")
		return
	}

	h.JSON(w, http.StatusCreated, map[string]string{"room_id": room.ID.String()})
}

// ListRooms handles GET /chat/rooms/{user_id}, returning the active rooms
// the user belongs to, most recently active first.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "id"))
	if userID == "" {
		h.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}

	rooms, err := h.db.ListRoomsForUser(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("list rooms")
		h.Error(w, http.StatusInternalServerError, "failed to list rooms")
		return
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	h.JSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

// RoomParticipants handles GET /chat/rooms/{room_id}/participants. When a
// Redis presence mirror is configured its snapshots overlay the stored
// online flags, so a crashed instance's stale rows read as their last
// mirrored state.
func (h *Handler) RoomParticipants(w http.ResponseWriter, r *http.Request) {
	roomID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}

	room, err := h.db.GetRoom(r.Context(), roomID)
	if err != nil {
		h.log.Error().Err(err).Msg("get room")
		h.Error(w, http.StatusInternalServerError, "failed to load room")
		return
	}
	if room == nil {
		h.Error(w, http.StatusNotFound, "room not found")
		return
	}

	participants, err := h.db.ListParticipants(r.Context(), roomID)
	if err != nil {
		h.log.Error().Err(err).Msg("list participants")
		h.Error(w, http.StatusInternalServerError, "failed to list participants")
		return
	}
	if participants == nil {
		participants = []models.Participant{}
	}

	if h.redis != nil {
		if snaps, err := h.redis.RoomPresence(r.Context(), roomID); err == nil {
			for i := range participants {
				if snap, ok := snaps[participants[i].UserID]; ok {
					participants[i].Online = snap.Online
					participants[i].LastSeen = snap.LastSeen
				}
			}
		}
	}

	h.JSON(w, http.StatusOK, map[string]any{"participants": participants})
}

// JoinRoom handles POST /chat/rooms/{room_id}/join?user_id=. It runs the
// same join path as the socket event, so REST-joined users also get the
// user_joined broadcast and a live subscription if connected.
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		h.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.gateway.Join(r.Context(), userID, roomID); err != nil {
		if err == chat.ErrRoomNotFound {
			h.Error(w, http.StatusNotFound, "room not found")
			return
		}
		h.log.Error().Err(err).Msg("join room")
		h.Error(w, http.StatusInternalServerError, "failed to join room")
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

// LeaveRoom handles DELETE /chat/rooms/{room_id}/leave?user_id=. Leaving a
// room the user never joined is a no-op.
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		h.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.gateway.Leave(r.Context(), userID, roomID); err != nil {
		h.log.Error().Err(err).Msg("leave room")
		h.Error(w, http.StatusInternalServerError, "failed to leave room")
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"status": "left"})
}
