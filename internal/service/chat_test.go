package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/quantum-link/internal/apperror"
	"github.com/sakif/quantum-link/internal/model"
	"github.com/sakif/quantum-link/internal/room"
)

func newTestChatService(t *testing.T) (*ChatService, *ConnectionService, *mockUserRepo) {
	t.Helper()
	users := newMockUserRepo()
	requests := newMockRequestRepo(users)
	messages := newMockMessageRepo()
	logger := testLogger(t)
	return NewChatService(users, requests, messages, logger),
		NewConnectionService(users, requests, logger),
		users
}

// connect seeds an accepted connection between two users.
func connect(t *testing.T, conns *ConnectionService, from *model.User, toHandle string, recipientID string) {
	t.Helper()
	ctx := context.Background()
	req, err := conns.Create(ctx, from.ID, toHandle, []string{"Co-Founder"}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := conns.Decide(ctx, recipientID, req.ID, ActionAccept); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
}

func TestChatSend_RequiresAcceptedConnection(t *testing.T) {
	chat, conns, users := newTestChatService(t)
	ctx := context.Background()

	alice := users.addUser("alice-1234", "Alice")
	bob := users.addUser("bob-5678", "Bob")

	// No request at all.
	if _, err := chat.Send(ctx, alice.ID, "bob-5678", "hi"); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Send() error = %v, want ErrForbidden", err)
	}

	// A pending request is not enough.
	req, err := conns.Create(ctx, alice.ID, "bob-5678", []string{"Mentor"}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := chat.Send(ctx, alice.ID, "bob-5678", "hi"); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Send() with pending request error = %v, want ErrForbidden", err)
	}

	if _, err := conns.Decide(ctx, bob.ID, req.ID, ActionAccept); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	msg, err := chat.Send(ctx, alice.ID, "bob-5678", "hi")
	if err != nil {
		t.Fatalf("Send() after accept error = %v", err)
	}
	if msg.Content != "hi" {
		t.Errorf("Content = %q, want %q", msg.Content, "hi")
	}
	if msg.SenderID != alice.ID {
		t.Errorf("SenderID = %q, want %q", msg.SenderID, alice.ID)
	}
	if want := room.ID(alice.ID, bob.ID); msg.RoomID != want {
		t.Errorf("RoomID = %q, want %q", msg.RoomID, want)
	}
}

func TestChatSend_GateBothDirections(t *testing.T) {
	chat, conns, users := newTestChatService(t)
	ctx := context.Background()

	alice := users.addUser("alice-1234", "Alice")
	bob := users.addUser("bob-5678", "Bob")
	connect(t, conns, alice, "bob-5678", bob.ID)

	// Acceptance opens the room for the recipient too.
	if _, err := chat.Send(ctx, bob.ID, "alice-1234", "hey back"); err != nil {
		t.Errorf("recipient Send() error = %v", err)
	}
}

func TestChatSend_Validation(t *testing.T) {
	chat, conns, users := newTestChatService(t)
	ctx := context.Background()

	alice := users.addUser("alice-1234", "Alice")
	bob := users.addUser("bob-5678", "Bob")
	connect(t, conns, alice, "bob-5678", bob.ID)

	if _, err := chat.Send(ctx, alice.ID, "bob-5678", "   "); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("blank content error = %v, want ErrValidation", err)
	}
	if _, err := chat.Send(ctx, alice.ID, "alice-1234", "hi"); !errors.Is(err, apperror.ErrSelfTarget) {
		t.Errorf("self target error = %v, want ErrSelfTarget", err)
	}
	if _, err := chat.Send(ctx, alice.ID, "ghost-9999", "hi"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown handle error = %v, want ErrNotFound", err)
	}
	if _, err := chat.Send(ctx, alice.ID, "", "hi"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("empty handle error = %v, want ErrValidation", err)
	}
}

func TestChatHistory(t *testing.T) {
	chat, conns, users := newTestChatService(t)
	ctx := context.Background()

	alice := users.addUser("alice-1234", "Alice")
	bob := users.addUser("bob-5678", "Bob")
	connect(t, conns, alice, "bob-5678", bob.ID)

	if _, err := chat.Send(ctx, alice.ID, "bob-5678", "hi"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if _, err := chat.Send(ctx, bob.ID, "alice-1234", "hello"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	hist, err := chat.GetHistory(ctx, alice.ID, "bob-5678")
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if want := room.ID(alice.ID, bob.ID); hist.RoomID != want {
		t.Errorf("RoomID = %q, want %q", hist.RoomID, want)
	}
	if hist.Peer.Handle != "bob-5678" {
		t.Errorf("Peer.Handle = %q, want bob-5678", hist.Peer.Handle)
	}
	if len(hist.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(hist.Messages))
	}
	if hist.Messages[0].SenderID != alice.ID || hist.Messages[1].SenderID != bob.ID {
		t.Error("messages not in send order")
	}

	// Both participants see the same transcript.
	other, err := chat.GetHistory(ctx, bob.ID, "alice-1234")
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if other.RoomID != hist.RoomID {
		t.Errorf("room mismatch: %q vs %q", other.RoomID, hist.RoomID)
	}
	if len(other.Messages) != 2 {
		t.Errorf("len(Messages) = %d, want 2", len(other.Messages))
	}
}

func TestChatHistory_SameGateAsSend(t *testing.T) {
	chat, _, users := newTestChatService(t)
	ctx := context.Background()

	alice := users.addUser("alice-1234", "Alice")
	users.addUser("bob-5678", "Bob")

	if _, err := chat.GetHistory(ctx, alice.ID, "bob-5678"); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("GetHistory() error = %v, want ErrForbidden", err)
	}
	if _, err := chat.GetHistory(ctx, alice.ID, "alice-1234"); !errors.Is(err, apperror.ErrSelfTarget) {
		t.Errorf("self history error = %v, want ErrSelfTarget", err)
	}
	if _, err := chat.GetHistory(ctx, alice.ID, "ghost-9999"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown peer error = %v, want ErrNotFound", err)
	}
}

func TestChatHistory_EmptyRoom(t *testing.T) {
	chat, conns, users := newTestChatService(t)
	ctx := context.Background()

	alice := users.addUser("alice-1234", "Alice")
	bob := users.addUser("bob-5678", "Bob")
	connect(t, conns, alice, "bob-5678", bob.ID)

	hist, err := chat.GetHistory(ctx, alice.ID, "bob-5678")
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if hist.Messages == nil {
		t.Error("Messages is nil, want empty slice")
	}
	if len(hist.Messages) != 0 {
		t.Errorf("len(Messages) = %d, want 0", len(hist.Messages))
	}
}
