// Package main is the entry point for the quantum-link server.
//
// main stays minimal: load configuration, create the logger, ensure the data
// directory exists, and hand everything to internal/server. All actual logic
// lives in the imported packages.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/sakif/quantum-link/internal/server"
)

// config is populated from the environment via envconfig struct tags.
// A .env file is loaded first, best-effort, for local development.
type config struct {
	Port      int    `envconfig:"PORT" default:"8080"`
	DBPath    string `envconfig:"DB_PATH" default:"data/quantumlink.db"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"debug"`
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	// SessionTTL is how long an issued session token stays valid.
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"24h"`

	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `envconfig:"GOOGLE_CALLBACK_URL"`

	// HandleMaxAttempts bounds the quantum-ID allocation retry loop.
	HandleMaxAttempts int `envconfig:"HANDLE_MAX_ATTEMPTS" default:"5"`
}

func main() {
	// Best-effort: a missing .env is fine (production sets real env vars).
	_ = godotenv.Load()

	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelDebug
	if cfg.LogLevel == "info" {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	if cfg.GoogleCallbackURL == "" {
		cfg.GoogleCallbackURL = fmt.Sprintf("http://localhost:%d/auth/google/callback", cfg.Port)
	}

	// os.MkdirAll creates all parent directories if needed (like mkdir -p).
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	srv, err := server.New(server.Config{
		Port:               cfg.Port,
		DBPath:             cfg.DBPath,
		JWTSecret:          cfg.JWTSecret,
		SessionTTL:         cfg.SessionTTL,
		GoogleClientID:     cfg.GoogleClientID,
		GoogleClientSecret: cfg.GoogleClientSecret,
		GoogleCallbackURL:  cfg.GoogleCallbackURL,
		HandleMaxAttempts:  cfg.HandleMaxAttempts,
	}, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
