package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/quantum-link/internal/apperror"
	"github.com/sakif/quantum-link/internal/model"
	"github.com/sakif/quantum-link/internal/repository"
)

// UserRepo implements repository.UserRepository over the shared connection.
type UserRepo struct {
	db *DB
}

var _ repository.UserRepository = (*UserRepo)(nil)

// handleValue maps Go's "" to SQL NULL for the handle column.
// Two users without a handle must not collide under the UNIQUE constraint,
// and NULLs never do.
func handleValue(handle string) any {
	if handle == "" {
		return nil
	}
	return handle
}

// Upsert inserts or updates a user based on their Google subject ID.
//
// First sign-in → INSERT with a fresh internal ID. Repeat sign-in → UPDATE
// name/email/image in case they changed at the provider, keeping the existing
// internal ID and handle. The handle column is never touched here — it is
// owned by the allocator (UpdateHandle).
func (r *UserRepo) Upsert(ctx context.Context, user *model.User) error {
	var (
		existingID string
		handle     sql.NullString
	)
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT id, handle FROM users WHERE google_id = ?`, user.GoogleID,
	).Scan(&existingID, &handle)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by google_id: %w", err)
	}

	if existingID != "" {
		user.ID = existingID
		user.Handle = handle.String
		user.UpdatedAt = time.Now().UTC()
		_, err = r.db.conn.ExecContext(ctx,
			`UPDATE users SET name = ?, email = ?, image = ?, updated_at = ?
			 WHERE id = ?`,
			user.Name,
			user.Email,
			user.Image,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = r.db.conn.ExecContext(ctx,
		`INSERT INTO users (id, google_id, handle, name, email, image, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.GoogleID,
		handleValue(user.Handle),
		user.Name,
		user.Email,
		user.Image,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getUser(ctx, `WHERE id = ?`, id)
}

// GetByHandle retrieves a user by exact handle. Comparison is case-sensitive;
// any "@" prefix must already be stripped by the caller.
func (r *UserRepo) GetByHandle(ctx context.Context, handle string) (*model.User, error) {
	return r.getUser(ctx, `WHERE handle = ?`, handle)
}

func (r *UserRepo) getUser(ctx context.Context, where, key string) (*model.User, error) {
	var (
		u      model.User
		handle sql.NullString
	)
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT id, google_id, handle, name, email, image, created_at, updated_at
		 FROM users `+where, key,
	).Scan(
		&u.ID,
		&u.GoogleID,
		&handle,
		&u.Name,
		&u.Email,
		&u.Image,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", key)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", key, err)
	}
	u.Handle = handle.String

	return &u, nil
}

// UpdateHandle sets the user's handle, relying on the UNIQUE constraint to
// reject the second of two concurrent writers atomically. The loser gets
// apperror.ErrConflict; the allocator retries with a new candidate, a rename
// surfaces the conflict to the user.
func (r *UserRepo) UpdateHandle(ctx context.Context, userID, handle string) error {
	res, err := r.db.conn.ExecContext(ctx,
		`UPDATE users SET handle = ?, updated_at = ? WHERE id = ?`,
		handleValue(handle), time.Now().UTC(), userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(fmt.Sprintf("handle %q is already taken", handle))
		}
		return fmt.Errorf("sqlite: updating handle for user %s: %w", userID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking handle update for user %s: %w", userID, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", userID)
	}

	return nil
}
