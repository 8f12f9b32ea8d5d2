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

// RequestRepo implements repository.RequestRepository over the shared connection.
type RequestRepo struct {
	db *DB
}

var _ repository.RequestRepository = (*RequestRepo)(nil)

// Create inserts a new request with status PENDING.
// There is deliberately no duplicate check: the same pair may accumulate any
// number of requests, including after a rejection.
func (r *RequestRepo) Create(ctx context.Context, req *model.FriendRequest) error {
	req.ID = xid.New().String()
	req.Status = model.StatusPending
	req.CreatedAt = time.Now().UTC()

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO friend_requests (id, from_id, to_id, categories, note, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.ID,
		req.FromID,
		req.ToID,
		req.Categories,
		req.Note,
		req.Status,
		req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting friend request: %w", err)
	}

	return nil
}

// GetByID retrieves a request by ID.
// Returns apperror.ErrNotFound if it doesn't exist.
func (r *RequestRepo) GetByID(ctx context.Context, id string) (*model.FriendRequest, error) {
	var req model.FriendRequest
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT id, from_id, to_id, categories, note, status, created_at
		 FROM friend_requests WHERE id = ?`, id,
	).Scan(
		&req.ID,
		&req.FromID,
		&req.ToID,
		&req.Categories,
		&req.Note,
		&req.Status,
		&req.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("request", id)
		}
		return nil, fmt.Errorf("sqlite: getting request %s: %w", id, err)
	}

	return &req, nil
}

// ListOutgoing returns requests sent by userID, newest first, each joined
// with the recipient's account record.
func (r *RequestRepo) ListOutgoing(ctx context.Context, userID string) ([]repository.RequestWithCounterpart, error) {
	return r.listRequests(ctx, "from_id", "to_id", userID)
}

// ListIncoming returns requests addressed to userID, newest first, each
// joined with the sender's account record.
func (r *RequestRepo) ListIncoming(ctx context.Context, userID string) ([]repository.RequestWithCounterpart, error) {
	return r.listRequests(ctx, "to_id", "from_id", userID)
}

// listRequests is the shared list query. ownCol selects whose list this is;
// peerCol is joined against users to embed the counterpart.
func (r *RequestRepo) listRequests(ctx context.Context, ownCol, peerCol, userID string) ([]repository.RequestWithCounterpart, error) {
	// ownCol/peerCol are fixed column names chosen by the two callers above,
	// never caller input — safe to interpolate.
	query := fmt.Sprintf(
		`SELECT r.id, r.from_id, r.to_id, r.categories, r.note, r.status, r.created_at,
		        u.id, u.handle, u.name, u.email, u.image, u.created_at, u.updated_at
		 FROM friend_requests r
		 JOIN users u ON u.id = r.%s
		 WHERE r.%s = ?
		 ORDER BY r.created_at DESC, r.id DESC`,
		peerCol, ownCol,
	)

	rows, err := r.db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing requests for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []repository.RequestWithCounterpart
	for rows.Next() {
		var (
			rc     repository.RequestWithCounterpart
			handle sql.NullString
		)
		err := rows.Scan(
			&rc.Request.ID,
			&rc.Request.FromID,
			&rc.Request.ToID,
			&rc.Request.Categories,
			&rc.Request.Note,
			&rc.Request.Status,
			&rc.Request.CreatedAt,
			&rc.Counterpart.ID,
			&handle,
			&rc.Counterpart.Name,
			&rc.Counterpart.Email,
			&rc.Counterpart.Image,
			&rc.Counterpart.CreatedAt,
			&rc.Counterpart.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning request row: %w", err)
		}
		rc.Counterpart.Handle = handle.String
		out = append(out, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating request rows: %w", err)
	}

	return out, nil
}

// UpdateStatus overwrites the request's status. No transition guard: calling
// this on an already-ACCEPTED or REJECTED request simply overwrites it.
func (r *RequestRepo) UpdateStatus(ctx context.Context, id string, status model.RequestStatus) error {
	res, err := r.db.conn.ExecContext(ctx,
		`UPDATE friend_requests SET status = ? WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating request %s status: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking request %s update: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("request", id)
	}

	return nil
}

// HasAccepted reports whether any ACCEPTED request exists between the two
// users, in either direction. This predicate is the single authorization
// gate for message send and history.
func (r *RequestRepo) HasAccepted(ctx context.Context, userA, userB string) (bool, error) {
	var n int
	err := r.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM friend_requests
		 WHERE status = ?
		   AND ((from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?))`,
		model.StatusAccepted, userA, userB, userB, userA,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking accepted connection: %w", err)
	}

	return n > 0, nil
}
