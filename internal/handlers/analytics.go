package handlers

import (
	"net/http"

	"github.com/diligencias582/TRABAJAI/internal/models"
)

// ChatAnalytics handles GET /chat/analytics. Counts come from the store
// except online_users, which only the hub knows.
func (h *Handler) ChatAnalytics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.ChatAnalytics(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("chat analytics")
		h.Error(w, http.StatusInternalServerError, "failed to compute analytics")
		return
	}
	stats.OnlineUsers = h.gateway.Hub().OnlineUsers()
	h.JSON(w, http.StatusOK, stats)
}

// DashboardAnalytics handles GET /api/analytics/dashboard.
func (h *Handler) DashboardAnalytics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.DashboardAnalytics(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("dashboard analytics")
		h.Error(w, http.StatusInternalServerError, "failed to compute analytics")
		return
	}
	h.JSON(w, http.StatusOK, stats)
}

// Niches handles GET /api/niches, returning the niche catalog.
func (h *Handler) Niches(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, map[string]any{"niches": models.Niches})
}
