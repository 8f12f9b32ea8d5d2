// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes to the database
//
// Services take repository interfaces, not concrete types, so tests can
// inject in-memory mocks and the HTTP layer never touches SQL. Every method
// accepts primitives plus a context and returns domain models or apperror
// values — no HTTP types anywhere in this package.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/quantum-link/internal/apperror"
	"github.com/sakif/quantum-link/internal/auth"
	"github.com/sakif/quantum-link/internal/handle"
	"github.com/sakif/quantum-link/internal/model"
	"github.com/sakif/quantum-link/internal/repository"
)

// AuthService orchestrates sign-in: user upsert, quantum-ID allocation, and
// session-token issuance.
type AuthService struct {
	users     repository.UserRepository
	allocator *handle.Allocator
	tokens    *auth.TokenService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	allocator *handle.Allocator,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		allocator: allocator,
		tokens:    tokens,
		logger:    logger,
	}
}

// AuthResult bundles the signed-in user and their session token so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// LoginOrRegisterGoogle handles the Google OAuth callback.
//
// After the handler exchanges the code for a profile, this method:
//
//  1. Upserts the user (INSERT on first sign-in, profile refresh after)
//  2. Allocates a quantum ID if the user doesn't have one — best-effort:
//     sign-in succeeds even if every allocation attempt collides, and the
//     handle is backfilled on a later request instead
//  3. Issues a session token carrying {id, handle}
func (s *AuthService) LoginOrRegisterGoogle(ctx context.Context, gUser *auth.GoogleUser) (*AuthResult, error) {
	if gUser == nil {
		return nil, fmt.Errorf("service/auth: Google user must not be nil")
	}

	user := &model.User{
		GoogleID: gUser.Sub,
		Name:     gUser.Name,
		Email:    gUser.Email,
		Image:    gUser.Picture,
	}

	// After this call user.ID and user.Handle reflect the stored row.
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user: %w", err)
	}

	if user.Handle == "" {
		user.Handle = s.allocateHandle(ctx, user)
	}

	s.logger.Info("user authenticated via Google",
		slog.String("userID", user.ID),
		slog.String("handle", user.Handle),
	)

	token, err := s.tokens.Generate(auth.Session{UserID: user.ID, Handle: user.Handle})
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// CurrentUser returns the acting user's record, lazily backfilling a handle
// for accounts that still lack one. Backfill failures are absorbed — the
// caller gets the user without a handle rather than an error.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Handle == "" {
		user.Handle = s.allocateHandle(ctx, user)
	}

	return user, nil
}

// allocateHandle runs bounded-retry allocation seeded from the user's email
// (or name when the email is hidden). Errors are logged and swallowed: no
// surrounding request may fail because of handle allocation.
func (s *AuthService) allocateHandle(ctx context.Context, user *model.User) string {
	seed := user.Email
	if seed == "" {
		seed = user.Name
	}

	h, err := s.allocator.Allocate(ctx, user.ID, seed)
	if err != nil {
		s.logger.Error("handle allocation failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return h
}

// RenameHandle sets a user-chosen quantum ID. Unlike allocation this is not
// retried: a collision surfaces as ErrConflict for the user to pick another.
// The input is normalized the same way lookups are, so "@alice-1234" stores
// as "alice-1234" and stays resolvable.
func (s *AuthService) RenameHandle(ctx context.Context, userID, raw string) (*model.User, error) {
	if _, err := s.allocator.Rename(ctx, userID, normalizeHandle(raw)); err != nil {
		return nil, err
	}

	return s.users.GetByID(ctx, userID)
}

// FindByHandle resolves a handle to a public profile. A leading "@" is
// stripped at this boundary; comparison is otherwise exact and
// case-sensitive.
func (s *AuthService) FindByHandle(ctx context.Context, rawHandle string) (*model.User, error) {
	h := normalizeHandle(rawHandle)
	if h == "" {
		return nil, apperror.ValidationFailed("handle", "handle is required")
	}

	return s.users.GetByHandle(ctx, h)
}
