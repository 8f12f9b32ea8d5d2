package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/quantum-link/internal/apperror"
	"github.com/sakif/quantum-link/internal/model"
	"github.com/sakif/quantum-link/internal/repository"
)

// Category limits for a connection request.
const (
	MinCategories = 1
	MaxCategories = 2
)

// DecideAction is the recipient's verdict on a pending request.
type DecideAction string

const (
	ActionAccept DecideAction = "ACCEPT"
	ActionReject DecideAction = "REJECT"
)

// ConnectionService is the friend-request state machine: create, list by
// direction, and resolve. Its accepted state is the sole authorization
// precondition for messaging (see ChatService).
type ConnectionService struct {
	users    repository.UserRepository
	requests repository.RequestRepository
	logger   *slog.Logger
}

// NewConnectionService creates a ConnectionService.
func NewConnectionService(
	users repository.UserRepository,
	requests repository.RequestRepository,
	logger *slog.Logger,
) *ConnectionService {
	return &ConnectionService{
		users:    users,
		requests: requests,
		logger:   logger,
	}
}

// Create sends a connection request from fromID to the user holding toHandle.
//
// Failure modes, checked in order: category count (VALIDATION, at most 2 as
// submitted, at least 1 after dropping blanks), handle resolution (NOT_FOUND),
// self-target (SELF_TARGET).
// Duplicate requests between the same pair are allowed — the model does not
// deduplicate, even after a rejection.
func (s *ConnectionService) Create(ctx context.Context, fromID, toHandle string, categories []string, note string) (*model.FriendRequest, error) {
	h := normalizeHandle(toHandle)
	if h == "" {
		return nil, apperror.ValidationFailed("toHandle", "toHandle is required")
	}

	// The maximum applies to the submitted list as-is; sending three entries
	// is rejected even when one of them is blank. Blank entries are only
	// forgiven on the minimum side.
	if len(categories) > MaxCategories {
		return nil, apperror.ValidationFailed("categories",
			fmt.Sprintf("you can select at most %d categories", MaxCategories))
	}

	cleaned := make([]string, 0, len(categories))
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) < MinCategories {
		return nil, apperror.ValidationFailed("categories", "select at least one category")
	}

	toUser, err := s.users.GetByHandle(ctx, h)
	if err != nil {
		return nil, err
	}

	if toUser.ID == fromID {
		return nil, apperror.SelfTarget("you cannot send a request to yourself")
	}

	req := &model.FriendRequest{
		FromID:     fromID,
		ToID:       toUser.ID,
		Categories: strings.Join(cleaned, ","),
		Note:       strings.TrimSpace(note),
	}

	if err := s.requests.Create(ctx, req); err != nil {
		s.logger.Error("failed to create connection request",
			slog.String("fromID", fromID),
			slog.String("toID", toUser.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating connection request: %w", err)
	}

	s.logger.Info("connection request created",
		slog.String("requestID", req.ID),
		slog.String("fromID", fromID),
		slog.String("toID", toUser.ID),
	)

	return req, nil
}

// ListOutgoing returns the requests sent by userID, newest first, with the
// recipient's public profile embedded.
func (s *ConnectionService) ListOutgoing(ctx context.Context, userID string) ([]model.RequestView, error) {
	rows, err := s.requests.ListOutgoing(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list outgoing requests",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing outgoing requests: %w", err)
	}
	return shapeRequests(rows), nil
}

// ListIncoming returns the requests addressed to userID, newest first, with
// the sender's public profile embedded.
func (s *ConnectionService) ListIncoming(ctx context.Context, userID string) ([]model.RequestView, error) {
	rows, err := s.requests.ListIncoming(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list incoming requests",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing incoming requests: %w", err)
	}
	return shapeRequests(rows), nil
}

func shapeRequests(rows []repository.RequestWithCounterpart) []model.RequestView {
	views := make([]model.RequestView, 0, len(rows))
	for _, rc := range rows {
		views = append(views, model.RequestView{
			ID:          rc.Request.ID,
			Status:      rc.Request.Status,
			Categories:  rc.Request.CategoryList(),
			Note:        rc.Request.Note,
			CreatedAt:   rc.Request.CreatedAt,
			Counterpart: rc.Counterpart.Profile(),
		})
	}
	return views
}

// Decide resolves a request as the recipient.
//
// Authorization is purely "are you the recipient": a request that doesn't
// exist and a request addressed to someone else both come back as not found,
// so a sender can't probe for request IDs. There is no terminal-state guard:
// re-deciding an already-decided request overwrites the status, and a later
// rejection closes a room that an earlier acceptance had opened.
func (s *ConnectionService) Decide(ctx context.Context, userID, requestID string, action DecideAction) (*model.FriendRequest, error) {
	if requestID == "" {
		return nil, apperror.ValidationFailed("requestId", "requestId is required")
	}

	var status model.RequestStatus
	switch action {
	case ActionAccept:
		status = model.StatusAccepted
	case ActionReject:
		status = model.StatusRejected
	default:
		return nil, apperror.ValidationFailed("action", "action must be ACCEPT or REJECT")
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ToID != userID {
		return nil, apperror.NotFound("request", requestID)
	}

	if err := s.requests.UpdateStatus(ctx, requestID, status); err != nil {
		s.logger.Error("failed to decide request",
			slog.String("requestID", requestID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("deciding request: %w", err)
	}
	req.Status = status

	s.logger.Info("connection request decided",
		slog.String("requestID", requestID),
		slog.String("status", string(status)),
	)

	return req, nil
}

// HasAcceptedConnection reports whether an ACCEPTED request exists between
// the two users in either direction.
func (s *ConnectionService) HasAcceptedConnection(ctx context.Context, userA, userB string) (bool, error) {
	ok, err := s.requests.HasAccepted(ctx, userA, userB)
	if err != nil {
		return false, fmt.Errorf("checking accepted connection: %w", err)
	}
	return ok, nil
}
