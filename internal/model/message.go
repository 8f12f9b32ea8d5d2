package model

import "time"

// Message is one entry in a room's append-only log. Messages are immutable
// once stored — there is no edit or delete path.
//
// Ordering: history is returned ascending by (CreatedAt, Seq). Seq is an
// auto-increment column assigned by the store, so two messages written within
// the same timestamp tick still have a total order.
type Message struct {
	Seq       int64     `json:"-"         db:"seq"`
	ID        string    `json:"id"        db:"id"`
	RoomID    string    `json:"roomId"    db:"room_id"`
	SenderID  string    `json:"senderId"  db:"sender_id"`
	Content   string    `json:"content"   db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
