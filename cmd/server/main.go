package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/diligencias582/TRABAJAI/internal/api"
	"github.com/diligencias582/TRABAJAI/internal/chat"
	"github.com/diligencias582/TRABAJAI/internal/config"
	"github.com/diligencias582/TRABAJAI/internal/match"
	"github.com/diligencias582/TRABAJAI/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize the durable store: PostgreSQL when configured, SQLite as
	// the development fallback.
	var db store.DataStore
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		db = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		path := cfg.SQLitePath
		if path == "" {
			path = "trabajai.db"
		}
		sqliteStore, err := store.NewSQLiteStore(ctx, path)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		db = sqliteStore
		logger.Info().Str("path", path).Msg("using SQLite store")
	}
	defer db.Close()

	// Seed default rooms, idempotent across restarts
	if err := db.SeedDefaultRooms(ctx); err != nil {
		logger.Fatal().Err(err).Msg("default room seeding failed")
	}

	// Initialize Redis (presence mirror + rate limiter), optional in dev
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		var err error
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	}

	// Chat core
	hub := chat.NewHub(logger)
	gateway := chat.NewGateway(logger, db, redisStore, hub)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go gateway.RunTypingSweeper(sweepCtx, cfg.TypingTTL)

	// AI match scorer
	scorer := match.NewGeminiScorer(logger, cfg.GeminiAPIURL, cfg.GeminiAPIKey)

	// Create router
	router := api.NewRouter(logger, cfg, db, redisStore, gateway, scorer)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting TRABAJAI server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
