// Package handle allocates and validates the unique, user-facing "quantum ID"
// for an account.
//
// Two paths exist and they fail differently on a collision:
//
//   - Allocate (system-generated, at sign-in or backfill): retries with a
//     fresh random candidate up to MaxAttempts times, then gives up silently —
//     sign-in must never fail because of a handle collision. The user is left
//     without a handle and backfill tries again later.
//   - Rename (user-chosen): validates, attempts one unique update, and
//     surfaces apperror.ErrConflict. No auto-regeneration — it would silently
//     substitute a handle the user didn't pick.
package handle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sakif/quantum-link/internal/apperror"
	"github.com/sakif/quantum-link/internal/repository"
)

const (
	// fallbackBase is used when the seed yields no usable characters.
	fallbackBase = "user"

	// Validation policy for user-chosen handles.
	minLength = 6
	minDigits = 4

	// DefaultMaxAttempts bounds the allocation retry loop.
	DefaultMaxAttempts = 5
)

// validationMessage names both constraints; Validate returns it verbatim for
// any failure so the user sees the full policy at once.
const validationMessage = "your quantum ID must be at least 6 characters and include at least 4 numbers"

// GenerateCandidate derives a handle candidate from a seed, typically the
// user's email or display name.
//
// The base is the portion of the seed before "@", stripped of everything
// outside [A-Za-z0-9] and lower-cased, falling back to "user" when empty.
// A random 4-digit suffix joined by "-" makes the candidate: "alice-4821".
// Deterministic given the seed except for the suffix.
func GenerateCandidate(seed string) string {
	base, _, _ := strings.Cut(seed, "@")

	var b strings.Builder
	for _, r := range base {
		if unicode.IsLetter(r) && r < unicode.MaxASCII {
			b.WriteRune(unicode.ToLower(r))
		} else if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}

	core := b.String()
	if core == "" {
		core = fallbackBase
	}

	// 1000–9999: always exactly four digits.
	suffix := 1000 + rand.Intn(9000)
	return fmt.Sprintf("%s-%d", core, suffix)
}

// Validate checks a user-chosen handle: trimmed length ≥ 6 and at least 4
// digit characters. Empty and whitespace-only input fail via the length
// check. Returns the trimmed handle on success.
func Validate(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)

	digits := 0
	for _, r := range trimmed {
		if unicode.IsDigit(r) {
			digits++
		}
	}

	// Length is counted in runes so multi-byte characters count once.
	if utf8.RuneCountInString(trimmed) < minLength || digits < minDigits {
		return "", apperror.ValidationFailed("handle", validationMessage)
	}

	return trimmed, nil
}

// Allocator assigns system-generated handles with bounded retry.
type Allocator struct {
	users       repository.UserRepository
	maxAttempts int
	logger      *slog.Logger
}

// NewAllocator creates an Allocator. maxAttempts ≤ 0 selects
// DefaultMaxAttempts.
func NewAllocator(users repository.UserRepository, maxAttempts int, logger *slog.Logger) *Allocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Allocator{
		users:       users,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Allocate generates a candidate from seed and persists it as the user's
// handle, retrying with a fresh candidate on each uniqueness conflict, up to
// the configured bound.
//
// On exhaustion it returns ("", nil): the degraded no-handle state is
// acceptable and must not fail the surrounding sign-in. Unexpected store
// errors are returned as-is.
func (a *Allocator) Allocate(ctx context.Context, userID, seed string) (string, error) {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		candidate := GenerateCandidate(seed)

		err := a.users.UpdateHandle(ctx, userID, candidate)
		if err == nil {
			a.logger.Info("handle allocated",
				slog.String("userID", userID),
				slog.String("handle", candidate),
				slog.Int("attempt", attempt),
			)
			return candidate, nil
		}
		if errors.Is(err, apperror.ErrConflict) {
			continue // collision — try a fresh suffix
		}
		return "", fmt.Errorf("handle: allocating for user %s: %w", userID, err)
	}

	a.logger.Warn("handle allocation exhausted, leaving unset",
		slog.String("userID", userID),
		slog.Int("attempts", a.maxAttempts),
	)
	return "", nil
}

// Rename sets a user-chosen handle. Exactly one attempt: a uniqueness
// conflict comes back as apperror.ErrConflict for the caller to surface.
func (a *Allocator) Rename(ctx context.Context, userID, raw string) (string, error) {
	handle, err := Validate(raw)
	if err != nil {
		return "", err
	}

	if err := a.users.UpdateHandle(ctx, userID, handle); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return "", apperror.Conflict("that quantum ID is already taken, please choose a different one")
		}
		return "", fmt.Errorf("handle: renaming for user %s: %w", userID, err)
	}

	a.logger.Info("handle renamed",
		slog.String("userID", userID),
		slog.String("handle", handle),
	)
	return handle, nil
}
