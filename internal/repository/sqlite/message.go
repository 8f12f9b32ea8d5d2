package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/quantum-link/internal/model"
	"github.com/sakif/quantum-link/internal/repository"
)

// MessageRepo implements repository.MessageRepository over the shared connection.
type MessageRepo struct {
	db *DB
}

var _ repository.MessageRepository = (*MessageRepo)(nil)

// Create appends a message to the room's log. The seq column is assigned by
// SQLite (AUTOINCREMENT) and read back so the caller sees the stored record.
// Messages are never updated or deleted after this point.
func (r *MessageRepo) Create(ctx context.Context, msg *model.Message) error {
	msg.ID = xid.New().String()
	msg.CreatedAt = time.Now().UTC()

	res, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO messages (id, room_id, sender_id, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		msg.ID,
		msg.RoomID,
		msg.SenderID,
		msg.Content,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting message: %w", err)
	}

	// LastInsertId is the AUTOINCREMENT seq for this table.
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading message seq: %w", err)
	}
	msg.Seq = seq

	return nil
}

// ListByRoom returns the room's full log ascending by (created_at, seq).
// No pagination — callers replace their local view wholesale with each
// response.
func (r *MessageRepo) ListByRoom(ctx context.Context, roomID string) ([]model.Message, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT seq, id, room_id, sender_id, content, created_at
		 FROM messages WHERE room_id = ?
		 ORDER BY created_at ASC, seq ASC`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing messages for room %s: %w", roomID, err)
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var m model.Message
		err := rows.Scan(&m.Seq, &m.ID, &m.RoomID, &m.SenderID, &m.Content, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating message rows: %w", err)
	}

	return messages, nil
}
