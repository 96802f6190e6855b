package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"parley/auth"
	"parley/chat"
	"parley/config"
	"parley/database"
	"parley/friends"
	"parley/handlers"
	"parley/hub"
	"parley/pkg/log"
)

func main() {
	// A missing .env file is fine; deployments set real environment variables.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})

	if cfg.Auth.TokenSecret == "" {
		logger.Fatal().Msg("TOKEN_SECRET is required")
	}

	db, err := database.Open(cfg.DB.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DB.Path).Msg("open database")
	}
	defer db.Close()

	verifier := auth.NewTokenVerifier(cfg.Auth.TokenSecret)
	registry := hub.New(log.WithComponent(logger, "hub"))

	friendCoordinator := friends.New(db, log.WithComponent(logger, "friends"))
	chatCoordinator := chat.New(db, friendCoordinator, registry, chat.NopAttachmentStore{}, chat.Config{
		MaxMessageLength:    cfg.Chat.MaxMessageLength,
		DefaultHistoryLimit: cfg.Chat.DefaultHistoryLimit,
		MaxHistoryLimit:     cfg.Chat.MaxHistoryLimit,
	}, log.WithComponent(logger, "chat"))

	router := handlers.NewRouter(
		&handlers.FriendAPI{Coordinator: friendCoordinator},
		&handlers.ChatAPI{Coordinator: chatCoordinator},
		handlers.NewWebSocketAPI(
			registry, verifier, chatCoordinator,
			cfg.Chat.SendBufferSize, cfg.Server.HandshakeTimeout, cfg.Server.WriteTimeout,
			log.WithComponent(logger, "ws"),
		),
		verifier,
		log.WithComponent(logger, "http"),
	)

	addr := ":" + cfg.Server.Port
	logger.Info().Str("addr", addr).Msg("server starting")
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}
