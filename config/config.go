package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the full runtime configuration, populated from environment
// variables (a .env file is honored when present, see main).
type Config struct {
	Server Server
	DB     DB
	Auth   Auth
	Chat   Chat
	Log    Log
}

type Server struct {
	Port             string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

type DB struct {
	Path string
}

type Auth struct {
	TokenSecret string
}

type Chat struct {
	MaxMessageLength    int
	DefaultHistoryLimit int
	MaxHistoryLimit     int
	SendBufferSize      int
}

type Log struct {
	Level       string
	Development bool
}

// Load reads configuration from the environment, falling back to defaults
// suitable for local development.
func Load() Config {
	return Config{
		Server: Server{
			Port:             envStr("PORT", "8080"),
			HandshakeTimeout: envDuration("WS_HANDSHAKE_TIMEOUT", 10*time.Second),
			WriteTimeout:     envDuration("WS_WRITE_TIMEOUT", 10*time.Second),
		},
		DB: DB{
			Path: envStr("DATABASE_PATH", "./parley.db"),
		},
		Auth: Auth{
			TokenSecret: envStr("TOKEN_SECRET", ""),
		},
		Chat: Chat{
			MaxMessageLength:    envInt("MAX_MESSAGE_LENGTH", 2000),
			DefaultHistoryLimit: envInt("DEFAULT_HISTORY_LIMIT", 50),
			MaxHistoryLimit:     envInt("MAX_HISTORY_LIMIT", 100),
			SendBufferSize:      envInt("WS_SEND_BUFFER", 256),
		},
		Log: Log{
			Level:       envStr("LOG_LEVEL", "info"),
			Development: envStr("ENVIRONMENT", "development") == "development",
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
