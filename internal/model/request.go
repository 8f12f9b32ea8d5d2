package model

import (
	"encoding/json"
	"strings"
	"time"
)

// RequestStatus is the lifecycle state of a FriendRequest.
// Transitions: PENDING → ACCEPTED or PENDING → REJECTED, decided only by the
// recipient. The store does not guard against a second decision; the last
// decision wins.
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusAccepted RequestStatus = "ACCEPTED"
	StatusRejected RequestStatus = "REJECTED"
)

// FriendRequest is a directed connection proposal from one user to another.
//
// Categories are stored as a single comma-joined string (mirrors the storage
// schema); the custom JSON codec below exposes them as a list on the wire.
// Multiple requests between the same pair are allowed — there is intentionally
// no uniqueness on (FromID, ToID).
type FriendRequest struct {
	ID         string        `json:"id"         db:"id"`
	FromID     string        `json:"fromId"     db:"from_id"`
	ToID       string        `json:"toId"       db:"to_id"`
	Categories string        `json:"-"          db:"categories"` // comma-joined, e.g. "Co-Founder,Investor"
	Note       string        `json:"note"       db:"note"`       // empty means no note
	Status     RequestStatus `json:"status"     db:"status"`
	CreatedAt  time.Time     `json:"createdAt"  db:"created_at"`
}

// friendRequestJSON is the wire shape: categories as a list, not the
// comma-joined storage form.
type friendRequestJSON struct {
	ID         string        `json:"id"`
	FromID     string        `json:"fromId"`
	ToID       string        `json:"toId"`
	Categories []string      `json:"categories"`
	Note       string        `json:"note"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
}

func (r *FriendRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(friendRequestJSON{
		ID:         r.ID,
		FromID:     r.FromID,
		ToID:       r.ToID,
		Categories: r.CategoryList(),
		Note:       r.Note,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
	})
}

func (r *FriendRequest) UnmarshalJSON(data []byte) error {
	var w friendRequestJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.ID = w.ID
	r.FromID = w.FromID
	r.ToID = w.ToID
	r.Categories = strings.Join(w.Categories, ",")
	r.Note = w.Note
	r.Status = w.Status
	r.CreatedAt = w.CreatedAt
	return nil
}

// CategoryList splits the stored categories back into a list,
// dropping empty segments.
func (r *FriendRequest) CategoryList() []string {
	parts := strings.Split(r.Categories, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RequestView is a FriendRequest shaped for API responses: categories as a
// list and the counterpart's public profile embedded. For an outgoing list the
// counterpart is the recipient; for an incoming list it is the sender.
type RequestView struct {
	ID          string        `json:"id"`
	Status      RequestStatus `json:"status"`
	Categories  []string      `json:"categories"`
	Note        string        `json:"note,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	Counterpart Profile       `json:"counterpart"`
}
