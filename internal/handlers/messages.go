package handlers

import (
	"net/http"
	"strconv"

	"github.com/diligencias582/TRABAJAI/internal/models"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// RoomMessages handles GET /chat/messages/{room_id}?limit&offset. The
// window is computed against recency (offset 0 = most recent page) but
// messages come back oldest-first within the window, ready for display.
func (h *Handler) RoomMessages(w http.ResponseWriter, r *http.Request) {
	roomID, ok := h.uuidParam(w, r, "room_id")
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

	limit := defaultPageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxPageLimit {
			n = maxPageLimit
		}
		limit = n
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.Error(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		offset = n
	}

	messages, err := h.db.PageMessages(r.Context(), roomID, limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("page messages")
		h.Error(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	h.JSON(w, http.StatusOK, map[string]any{"messages": messages})
}
