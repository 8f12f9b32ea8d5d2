package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/quantum-link/internal/apperror"
	"github.com/sakif/quantum-link/internal/model"
	"github.com/sakif/quantum-link/internal/repository"
	"github.com/sakif/quantum-link/internal/room"
)

// ChatService is the message store: an append-only log per room, gated by
// the connection registry. Every read and write runs the same resolution
// chain — handle → NOT_FOUND, self → SELF_TARGET, no accepted connection →
// FORBIDDEN — so the two parties always agree on who may touch a room.
type ChatService struct {
	users    repository.UserRepository
	requests repository.RequestRepository
	messages repository.MessageRepository
	logger   *slog.Logger
}

// NewChatService creates a ChatService.
func NewChatService(
	users repository.UserRepository,
	requests repository.RequestRepository,
	messages repository.MessageRepository,
	logger *slog.Logger,
) *ChatService {
	return &ChatService{
		users:    users,
		requests: requests,
		messages: messages,
		logger:   logger,
	}
}

// History is the full view of a conversation: the derived room ID, the peer's
// public profile, and every message oldest-first. No pagination — callers
// replace their local view wholesale.
type History struct {
	RoomID   string          `json:"roomId"`
	Peer     model.Profile   `json:"peer"`
	Messages []model.Message `json:"messages"`
}

// Send appends a message from senderID to the user holding toHandle.
// Content is trimmed before the emptiness check and stored trimmed; the
// stored record (with ID, seq, timestamp) is returned.
func (s *ChatService) Send(ctx context.Context, senderID, toHandle, content string) (*model.Message, error) {
	peer, err := s.resolvePeer(ctx, senderID, toHandle)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "message content is required")
	}

	msg := &model.Message{
		RoomID:   room.ID(senderID, peer.ID),
		SenderID: senderID,
		Content:  content,
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		s.logger.Error("failed to store message",
			slog.String("roomID", msg.RoomID),
			slog.String("senderID", senderID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("storing message: %w", err)
	}

	return msg, nil
}

// GetHistory returns the full conversation between requesterID and the user
// holding peerHandle, under the same authorization chain as Send.
func (s *ChatService) GetHistory(ctx context.Context, requesterID, peerHandle string) (*History, error) {
	peer, err := s.resolvePeer(ctx, requesterID, peerHandle)
	if err != nil {
		return nil, err
	}

	roomID := room.ID(requesterID, peer.ID)

	messages, err := s.messages.ListByRoom(ctx, roomID)
	if err != nil {
		s.logger.Error("failed to load history",
			slog.String("roomID", roomID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("loading history: %w", err)
	}

	return &History{
		RoomID:   roomID,
		Peer:     peer.Profile(),
		Messages: messages,
	}, nil
}

// resolvePeer runs the shared gate chain: resolve the handle, reject
// self-targeting, and require an accepted connection in either direction.
func (s *ChatService) resolvePeer(ctx context.Context, actorID, peerHandle string) (*model.User, error) {
	h := normalizeHandle(peerHandle)
	if h == "" {
		return nil, apperror.ValidationFailed("peerHandle", "peerHandle is required")
	}

	peer, err := s.users.GetByHandle(ctx, h)
	if err != nil {
		return nil, err
	}

	if peer.ID == actorID {
		return nil, apperror.SelfTarget("you cannot chat with yourself")
	}

	accepted, err := s.requests.HasAccepted(ctx, actorID, peer.ID)
	if err != nil {
		return nil, fmt.Errorf("checking accepted connection: %w", err)
	}
	if !accepted {
		return nil, apperror.Forbidden("no accepted connection between these users")
	}

	return peer, nil
}
