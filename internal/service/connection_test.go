package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/quantum-link/internal/apperror"
	"github.com/sakif/quantum-link/internal/model"
)

func newTestConnectionService(t *testing.T) (*ConnectionService, *mockUserRepo, *mockRequestRepo) {
	t.Helper()
	users := newMockUserRepo()
	requests := newMockRequestRepo(users)
	return NewConnectionService(users, requests, testLogger(t)), users, requests
}

func TestConnectionCreate(t *testing.T) {
	svc, users, _ := newTestConnectionService(t)
	ctx := context.Background()

	alice := users.addUser("alice-1234", "Alice")
	users.addUser("bob-5678", "Bob")

	req, err := svc.Create(ctx, alice.ID, "bob-5678", []string{"Co-Founder"}, "let's build")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if req.Status != model.StatusPending {
		t.Errorf("Status = %q, want %q", req.Status, model.StatusPending)
	}
	if req.FromID != alice.ID {
		t.Errorf("FromID = %q, want %q", req.FromID, alice.ID)
	}
	if got := req.CategoryList(); len(got) != 1 || got[0] != "Co-Founder" {
		t.Errorf("CategoryList() = %v, want [Co-Founder]", got)
	}
	if req.Note != "let's build" {
		t.Errorf("Note = %q", req.Note)
	}
}

func TestConnectionCreate_NormalizesHandle(t *testing.T) {
	svc, users, _ := newTestConnectionService(t)
	ctx := context.Background()

	alice := users.addUser("alice-1234", "Alice")
	users.addUser("bob-5678", "Bob")

	// A leading @ and surrounding whitespace are stripped before lookup.
	if _, err := svc.Create(ctx, alice.ID, "  @bob-5678  ", []string{"Mentor"}, ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestConnectionCreate_CategoryCount(t *testing.T) {
	svc, users, _ := newTestConnectionService(t)
	ctx := context.Background()

	alice := users.addUser("alice-1234", "Alice")
	users.addUser("bob-5678", "Bob")

	tests := []struct {
		name       string
		categories []string
		wantErr    bool
	}{
		{"none", nil, true},
		{"only empties", []string{"", "  "}, true},
		{"one", []string{"Mentor"}, false},
		{"two", []string{"Mentor", "Investor"}, false},
		{"three", []string{"Mentor", "Investor", "Co-Founder"}, true},
		{"two plus blank third", []string{"Mentor", "Investor", ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, alice.ID, "bob-5678", tt.categories, "")
			if tt.wantErr {
				if !errors.Is(err, apperror.ErrValidation) {
					t.Errorf("Create() error = %v, want ErrValidation", err)
				}
			} else if err != nil {
				t.Errorf("Create() error = %v", err)
			}
		})
	}
}

func TestConnectionCreate_UnknownHandle(t *testing.T) {
	svc, users, _ := newTestConnectionService(t)

	alice := users.addUser("alice-1234", "Alice")

	_, err := svc.Create(context.Background(), alice.ID, "ghost-9999", []string{"Mentor"}, "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Create() error = %v, want ErrNotFound", err)
	}
}

func TestConnectionCreate_SelfTarget(t *testing.T) {
	svc, users, _ := newTestConnectionService(t)

	alice := users.addUser("alice-1234", "Alice")

	_, err := svc.Create(context.Background(), alice.ID, "alice-1234", []string{"Mentor"}, "")
	if !errors.Is(err, apperror.ErrSelfTarget) {
		t.Errorf("Create() error = %v, want ErrSelfTarget", err)
	}
}

func TestConnectionCreate_DuplicatePairAllowed(t *testing.T) {
	svc, users, _ := newTestConnectionService(t)
	ctx := context.Background()

	alice := users.addUser("alice-1234", "Alice")
	users.addUser("bob-5678", "Bob")

	first, err := svc.Create(ctx, alice.ID, "bob-5678", []string{"Mentor"}, "")
	if err != nil {
		t.Fatalf("first Create() error = %v", err)
	}
	second, err := svc.Create(ctx, alice.ID, "bob-5678", []string{"Investor"}, "")
	if err != nil {
		t.Fatalf("second Create() error = %v", err)
	}
	if first.ID == second.ID {
		t.Error("duplicate request reused the same ID")
	}
}

func TestConnectionLists(t *testing.T) {
	svc, users, _ := newTestConnectionService(t)
	ctx := context.Background()

	alice := users.addUser("alice-1234", "Alice")
	bob := users.addUser("bob-5678", "Bob")

	req, err := svc.Create(ctx, alice.ID, "bob-5678", []string{"Co-Founder", "Mentor"}, "hello")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	outgoing, err := svc.ListOutgoing(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListOutgoing() error = %v", err)
	}
	if len(outgoing) != 1 {
		t.Fatalf("len(outgoing) = %d, want 1", len(outgoing))
	}
	if outgoing[0].ID != req.ID {
		t.Errorf("outgoing[0].ID = %q, want %q", outgoing[0].ID, req.ID)
	}
	if outgoing[0].Counterpart.Handle != "bob-5678" {
		t.Errorf("outgoing counterpart = %q, want bob-5678", outgoing[0].Counterpart.Handle)
	}
	if len(outgoing[0].Categories) != 2 {
		t.Errorf("Categories = %v, want 2 entries", outgoing[0].Categories)
	}

	incoming, err := svc.ListIncoming(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListIncoming() error = %v", err)
	}
	if len(incoming) != 1 {
		t.Fatalf("len(incoming) = %d, want 1", len(incoming))
	}
	if incoming[0].Counterpart.Handle != "alice-1234" {
		t.Errorf("incoming counterpart = %q, want alice-1234", incoming[0].Counterpart.Handle)
	}

	// The sender has no incoming view of their own request, and vice versa.
	if got, _ := svc.ListIncoming(ctx, alice.ID); len(got) != 0 {
		t.Errorf("sender ListIncoming() = %d entries, want 0", len(got))
	}
	if got, _ := svc.ListOutgoing(ctx, bob.ID); len(got) != 0 {
		t.Errorf("recipient ListOutgoing() = %d entries, want 0", len(got))
	}
}

func TestConnectionDecide(t *testing.T) {
	svc, users, _ := newTestConnectionService(t)
	ctx := context.Background()

	alice := users.addUser("alice-1234", "Alice")
	bob := users.addUser("bob-5678", "Bob")

	req, err := svc.Create(ctx, alice.ID, "bob-5678", []string{"Mentor"}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	decided, err := svc.Decide(ctx, bob.ID, req.ID, ActionAccept)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decided.Status != model.StatusAccepted {
		t.Errorf("Status = %q, want %q", decided.Status, model.StatusAccepted)
	}

	ok, err := svc.HasAcceptedConnection(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("HasAcceptedConnection() error = %v", err)
	}
	if !ok {
		t.Error("HasAcceptedConnection() = false after accept")
	}
}

// A later decision replaces an earlier one unconditionally: rejecting an
// already-accepted request flips it to REJECTED.
func TestConnectionDecide_LastDecisionWins(t *testing.T) {
	svc, users, _ := newTestConnectionService(t)
	ctx := context.Background()

	alice := users.addUser("alice-1234", "Alice")
	bob := users.addUser("bob-5678", "Bob")

	req, err := svc.Create(ctx, alice.ID, "bob-5678", []string{"Mentor"}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.Decide(ctx, bob.ID, req.ID, ActionAccept); err != nil {
		t.Fatalf("accept error = %v", err)
	}
	decided, err := svc.Decide(ctx, bob.ID, req.ID, ActionReject)
	if err != nil {
		t.Fatalf("reject error = %v", err)
	}
	if decided.Status != model.StatusRejected {
		t.Errorf("Status = %q, want %q", decided.Status, model.StatusRejected)
	}

	ok, err := svc.HasAcceptedConnection(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("HasAcceptedConnection() error = %v", err)
	}
	if ok {
		t.Error("HasAcceptedConnection() = true after the accept was overturned")
	}
}

func TestConnectionDecide_RecipientOnly(t *testing.T) {
	svc, users, requests := newTestConnectionService(t)
	ctx := context.Background()

	alice := users.addUser("alice-1234", "Alice")
	users.addUser("bob-5678", "Bob")
	carol := users.addUser("carol-4321", "Carol")

	req, err := svc.Create(ctx, alice.ID, "bob-5678", []string{"Mentor"}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Neither the sender nor a third party may decide; both get NOT_FOUND so
	// request IDs are not probeable.
	for _, userID := range []string{alice.ID, carol.ID} {
		if _, err := svc.Decide(ctx, userID, req.ID, ActionAccept); !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("Decide(as %s) error = %v, want ErrNotFound", userID, err)
		}
	}
	if requests.requests[req.ID].Status != model.StatusPending {
		t.Error("request status changed by a non-recipient decision")
	}
}

func TestConnectionDecide_Validation(t *testing.T) {
	svc, users, _ := newTestConnectionService(t)
	ctx := context.Background()

	alice := users.addUser("alice-1234", "Alice")
	bob := users.addUser("bob-5678", "Bob")

	req, err := svc.Create(ctx, alice.ID, "bob-5678", []string{"Mentor"}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.Decide(ctx, bob.ID, "", ActionAccept); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("empty requestID error = %v, want ErrValidation", err)
	}
	if _, err := svc.Decide(ctx, bob.ID, req.ID, DecideAction("MAYBE")); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("bad action error = %v, want ErrValidation", err)
	}
	if _, err := svc.Decide(ctx, bob.ID, "req-404", ActionAccept); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown request error = %v, want ErrNotFound", err)
	}
}

func TestHasAcceptedConnection_PendingAndRejected(t *testing.T) {
	svc, users, _ := newTestConnectionService(t)
	ctx := context.Background()

	alice := users.addUser("alice-1234", "Alice")
	bob := users.addUser("bob-5678", "Bob")

	req, err := svc.Create(ctx, alice.ID, "bob-5678", []string{"Mentor"}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if ok, _ := svc.HasAcceptedConnection(ctx, alice.ID, bob.ID); ok {
		t.Error("HasAcceptedConnection() = true for a pending request")
	}

	if _, err := svc.Decide(ctx, bob.ID, req.ID, ActionReject); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if ok, _ := svc.HasAcceptedConnection(ctx, alice.ID, bob.ID); ok {
		t.Error("HasAcceptedConnection() = true for a rejected request")
	}
}
