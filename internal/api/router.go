package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/diligencias582/TRABAJAI/internal/api/middleware"
	"github.com/diligencias582/TRABAJAI/internal/chat"
	"github.com/diligencias582/TRABAJAI/internal/config"
	"github.com/diligencias582/TRABAJAI/internal/handlers"
	"github.com/diligencias582/TRABAJAI/internal/match"
	"github.com/diligencias582/TRABAJAI/internal/store"
)

// NewRouter creates and configures the HTTP router. redisStore may be nil
// in development; the rate limiter is skipped in that case.
func NewRouter(logger zerolog.Logger, cfg *config.Config, db store.DataStore, redisStore *store.RedisStore, gateway *chat.Gateway, scorer match.Scorer) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(64 * 1024)) // 64KB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting, Redis-backed
	if redisStore != nil {
		limiter := middleware.NewRateLimiter(redisStore.Client(), logger, middleware.RateLimiterConfig{
			Whitelist:        cfg.RateLimitWhitelist,
			AutoBlockEnabled: cfg.AutoBlockEnabled,
		})
		r.Use(limiter.Middleware)
	}

	// CORS - allow all origins (web and mobile clients call from anywhere)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(logger, db, redisStore, gateway, scorer)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Health
	r.Get("/api/health", h.Health)

	// Chat
	r.Route("/chat", func(r chi.Router) {
		r.Get("/ws", gateway.ServeWS)
		r.Get("/analytics", h.ChatAnalytics)

		// The first /rooms segment is a user id for the list route and a
		// room id for the rest; chi requires one wildcard name per position.
		r.Post("/rooms", h.CreateRoom)
		r.Get("/rooms/{id}", h.ListRooms)
		r.Get("/rooms/{id}/participants", h.RoomParticipants)
		r.Post("/rooms/{id}/join", h.JoinRoom)
		r.Delete("/rooms/{id}/leave", h.LeaveRoom)

		r.Get("/messages/{room_id}", h.RoomMessages)
	})

	// Recruiting
	r.Route("/api", func(r chi.Router) {
		r.Post("/candidates", h.CreateCandidate)
		r.Get("/candidates", h.ListCandidates)
		r.Get("/candidates/{id}", h.GetCandidate)

		r.Post("/jobs", h.CreateJob)
		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/{id}", h.GetJob)

		r.Post("/matches/generate/{job_id}", h.GenerateMatches)
		r.Get("/matches/job/{job_id}", h.MatchesForJob)
		r.Get("/matches/candidate/{candidate_id}", h.MatchesForCandidate)

		r.Get("/analytics/dashboard", h.DashboardAnalytics)
		r.Get("/niches", h.Niches)
	})

	return r
}
