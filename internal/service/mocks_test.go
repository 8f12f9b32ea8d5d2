package service

// In-memory repository mocks shared by the service tests.
//
// These implement the repository interfaces over maps/slices, the same way
// the real store behaves: handle uniqueness returns ErrConflict, lists come
// back newest first, messages keep insertion order. Tests inject failures
// through the err fields.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/sakif/quantum-link/internal/apperror"
	"github.com/sakif/quantum-link/internal/model"
	"github.com/sakif/quantum-link/internal/repository"
)

type mockUserRepo struct {
	users  map[string]*model.User // by ID
	nextID int
	err    error // returned from every method when set
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

// addUser seeds a user directly, bypassing the OAuth upsert path.
func (m *mockUserRepo) addUser(handle, name string) *model.User {
	m.nextID++
	u := &model.User{
		ID:     fmt.Sprintf("user-%d", m.nextID),
		Handle: handle,
		Name:   name,
		Email:  name + "@example.com",
	}
	m.users[u.ID] = u
	return u
}

func (m *mockUserRepo) Upsert(_ context.Context, user *model.User) error {
	if m.err != nil {
		return m.err
	}
	for _, u := range m.users {
		if u.GoogleID == user.GoogleID {
			user.ID = u.ID
			user.Handle = u.Handle
			u.Name, u.Email, u.Image = user.Name, user.Email, user.Image
			return nil
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByHandle(_ context.Context, handle string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Handle != "" && u.Handle == handle {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", handle)
}

func (m *mockUserRepo) UpdateHandle(_ context.Context, userID, handle string) error {
	if m.err != nil {
		return m.err
	}
	for id, u := range m.users {
		if id != userID && u.Handle == handle && handle != "" {
			return apperror.Conflict("taken")
		}
	}
	u, ok := m.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	u.Handle = handle
	return nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

type mockRequestRepo struct {
	users    *mockUserRepo
	requests map[string]*model.FriendRequest
	nextID   int
	err      error
}

func newMockRequestRepo(users *mockUserRepo) *mockRequestRepo {
	return &mockRequestRepo{
		users:    users,
		requests: make(map[string]*model.FriendRequest),
	}
}

func (m *mockRequestRepo) Create(_ context.Context, req *model.FriendRequest) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	req.ID = fmt.Sprintf("req-%d", m.nextID)
	req.Status = model.StatusPending
	req.CreatedAt = time.Now()
	stored := *req
	m.requests[req.ID] = &stored
	return nil
}

func (m *mockRequestRepo) GetByID(_ context.Context, id string) (*model.FriendRequest, error) {
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.requests[id]
	if !ok {
		return nil, apperror.NotFound("request", id)
	}
	result := *r
	return &result, nil
}

func (m *mockRequestRepo) list(userID string, outgoing bool) []repository.RequestWithCounterpart {
	var out []repository.RequestWithCounterpart
	for _, r := range m.requests {
		var peerID string
		switch {
		case outgoing && r.FromID == userID:
			peerID = r.ToID
		case !outgoing && r.ToID == userID:
			peerID = r.FromID
		default:
			continue
		}
		peer := m.users.users[peerID]
		if peer == nil {
			peer = &model.User{ID: peerID}
		}
		out = append(out, repository.RequestWithCounterpart{Request: *r, Counterpart: *peer})
	}
	// Newest first, mirroring the SQL ORDER BY.
	sort.Slice(out, func(i, j int) bool {
		return out[i].Request.CreatedAt.After(out[j].Request.CreatedAt) ||
			(out[i].Request.CreatedAt.Equal(out[j].Request.CreatedAt) &&
				out[i].Request.ID > out[j].Request.ID)
	})
	return out
}

func (m *mockRequestRepo) ListOutgoing(_ context.Context, userID string) ([]repository.RequestWithCounterpart, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.list(userID, true), nil
}

func (m *mockRequestRepo) ListIncoming(_ context.Context, userID string) ([]repository.RequestWithCounterpart, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.list(userID, false), nil
}

func (m *mockRequestRepo) UpdateStatus(_ context.Context, id string, status model.RequestStatus) error {
	if m.err != nil {
		return m.err
	}
	r, ok := m.requests[id]
	if !ok {
		return apperror.NotFound("request", id)
	}
	r.Status = status
	return nil
}

func (m *mockRequestRepo) HasAccepted(_ context.Context, userA, userB string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for _, r := range m.requests {
		if r.Status != model.StatusAccepted {
			continue
		}
		if (r.FromID == userA && r.ToID == userB) || (r.FromID == userB && r.ToID == userA) {
			return true, nil
		}
	}
	return false, nil
}

var _ repository.RequestRepository = (*mockRequestRepo)(nil)

type mockMessageRepo struct {
	messages []model.Message
	nextSeq  int64
	err      error
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{}
}

func (m *mockMessageRepo) Create(_ context.Context, msg *model.Message) error {
	if m.err != nil {
		return m.err
	}
	m.nextSeq++
	msg.Seq = m.nextSeq
	msg.ID = fmt.Sprintf("msg-%d", m.nextSeq)
	msg.CreatedAt = time.Now()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *mockMessageRepo) ListByRoom(_ context.Context, roomID string) ([]model.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []model.Message{}
	for _, msg := range m.messages {
		if msg.RoomID == roomID {
			out = append(out, msg)
		}
	}
	return out, nil
}

var _ repository.MessageRepository = (*mockMessageRepo)(nil)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
