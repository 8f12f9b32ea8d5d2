// Package repository declares the storage interfaces consumed by the service
// layer. The sqlite subpackage implements them; tests substitute in-memory
// mocks. Services depend only on these interfaces, never on a concrete store.
package repository

import (
	"context"

	"github.com/sakif/quantum-link/internal/model"
)

// UserRepository stores accounts and enforces handle uniqueness.
//
// UpdateHandle is the single contended write in the system: concurrent
// allocations and renames racing for the same handle are serialized by the
// store's UNIQUE constraint, and the loser gets apperror.ErrConflict. Callers
// decide whether to retry (allocation) or surface the conflict (rename).
type UserRepository interface {
	// Upsert inserts the user on first sign-in (keyed by GoogleID) or
	// refreshes name/email/image on a repeat sign-in. Fills ID and timestamps.
	Upsert(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByHandle resolves an exact, case-sensitive handle.
	GetByHandle(ctx context.Context, handle string) (*model.User, error)
	// UpdateHandle sets the user's handle. Returns apperror.ErrConflict if
	// another user already holds it.
	UpdateHandle(ctx context.Context, userID, handle string) error
}

// RequestWithCounterpart pairs a stored request with the other party's
// account record, as loaded by the list queries in one join.
type RequestWithCounterpart struct {
	Request     model.FriendRequest
	Counterpart model.User
}

// RequestRepository stores connection requests.
type RequestRepository interface {
	Create(ctx context.Context, req *model.FriendRequest) error
	GetByID(ctx context.Context, id string) (*model.FriendRequest, error)
	// ListOutgoing returns requests sent by userID, newest first, each joined
	// with the recipient's account. ListIncoming mirrors it for the sender.
	ListOutgoing(ctx context.Context, userID string) ([]RequestWithCounterpart, error)
	ListIncoming(ctx context.Context, userID string) ([]RequestWithCounterpart, error)
	// UpdateStatus overwrites the request's status unconditionally.
	// Guarding against re-deciding a terminal request is deliberately left
	// to (absent) policy above this layer.
	UpdateStatus(ctx context.Context, id string, status model.RequestStatus) error
	// HasAccepted reports whether any ACCEPTED request exists between the two
	// users in either direction. This is the sole authorization gate for
	// messaging.
	HasAccepted(ctx context.Context, userA, userB string) (bool, error)
}

// MessageRepository is the append-only message log.
type MessageRepository interface {
	// Create appends a message, filling ID, Seq, and CreatedAt.
	Create(ctx context.Context, msg *model.Message) error
	// ListByRoom returns every message in the room, oldest first.
	ListByRoom(ctx context.Context, roomID string) ([]model.Message, error)
}
