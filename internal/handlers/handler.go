package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/diligencias582/TRABAJAI/internal/chat"
	"github.com/diligencias582/TRABAJAI/internal/match"
	"github.com/diligencias582/TRABAJAI/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	log     zerolog.Logger
	db      store.DataStore
	redis   *store.RedisStore // may be nil in development
	gateway *chat.Gateway
	scorer  match.Scorer
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(logger zerolog.Logger, db store.DataStore, redis *store.RedisStore, gateway *chat.Gateway, scorer match.Scorer) *Handler {
	return &Handler{
		log:     logger.With().Str("component", "handlers").Logger(),
		db:      db,
		redis:   redis,
		gateway: gateway,
		scorer:  scorer,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// uuidParam parses a UUID URL parameter; reports ok=false after writing a
// 400 response.
func (h *Handler) uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}
