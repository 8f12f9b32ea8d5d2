// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where the whole
// dependency chain is assembled:
//
//	sqlite.DB → repositories → allocator/services → handlers → routes
//
// Each layer only receives what it needs: services get repository interfaces,
// handlers get services, and nothing below the handlers knows about HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/quantum-link/internal/auth"
	"github.com/sakif/quantum-link/internal/handle"
	"github.com/sakif/quantum-link/internal/handler"
	"github.com/sakif/quantum-link/internal/middleware"
	sqliteRepo "github.com/sakif/quantum-link/internal/repository/sqlite"
	"github.com/sakif/quantum-link/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port               int
	DBPath             string
	JWTSecret          string
	SessionTTL         time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
	// HandleMaxAttempts bounds the allocation retry loop (0 → default of 5).
	HandleMaxAttempts int
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown so the WAL gets flushed.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server and wires the full dependency chain.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and the route table.
//
// ROUTE STRUCTURE:
//
//	GET   /auth/google/login      → redirect to Google
//	GET   /auth/google/callback   → OAuth exchange, sign-in, session cookie
//	POST  /auth/logout            → clear session cookie
//	GET   /api/me                 → current user
//	PATCH /api/user/handle        → rename quantum ID
//	POST  /api/friends/search     → resolve handle to profile
//	POST  /api/friends/request    → create connection request
//	GET   /api/friends/outgoing   → list sent requests
//	GET   /api/friends/incoming   → list received requests
//	POST  /api/friends/decide     → accept/reject a request
//	POST  /api/chat/send          → send message
//	GET   /api/chat/history       → full room history
//
// Middleware order matters: RequestID → RealIP → Recoverer → Logger run on
// every request; RequireAuth guards only the /api subtree.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	google := auth.NewGoogleProvider(
		s.config.GoogleClientID,
		s.config.GoogleClientSecret,
		s.config.GoogleCallbackURL,
	)

	allocator := handle.NewAllocator(s.db.Users, s.config.HandleMaxAttempts, s.logger)

	authService := service.NewAuthService(s.db.Users, allocator, tokens, s.logger)
	connService := service.NewConnectionService(s.db.Users, s.db.Requests, s.logger)
	chatService := service.NewChatService(s.db.Users, s.db.Requests, s.db.Messages, s.logger)

	authHandler := handler.NewAuthHandler(google, tokens, authService, s.logger)
	userHandler := handler.NewUserHandler(authService, s.logger)
	friendHandler := handler.NewFriendHandler(connService, s.logger)
	chatHandler := handler.NewChatHandler(chatService, s.logger)

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.HandleGoogleLogin)
		r.Get("/google/callback", authHandler.HandleGoogleCallback)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/me", authHandler.HandleMe)
		r.Patch("/user/handle", userHandler.HandleRename)

		r.Post("/friends/search", userHandler.HandleSearch)
		r.Post("/friends/request", friendHandler.HandleCreate)
		r.Get("/friends/outgoing", friendHandler.HandleOutgoing)
		r.Get("/friends/incoming", friendHandler.HandleIncoming)
		r.Post("/friends/decide", friendHandler.HandleDecide)

		r.Post("/chat/send", chatHandler.HandleSend)
		r.Get("/chat/history", chatHandler.HandleHistory)
	})

	return nil
}

// Handler exposes the router, used by tests to mount the full route table on
// an httptest.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and handles graceful shutdown:
// stop accepting connections, wait up to 30s for in-flight requests, then
// close the database (flushes WAL, releases the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
