package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/quantum-link/internal/model"
	"github.com/sakif/quantum-link/internal/service"
)

// Default polling cadences. Staleness is bounded by these: request lists lag
// the server by at most RequestInterval, an open conversation by at most
// ConversationInterval.
const (
	DefaultRequestInterval      = 5 * time.Second
	DefaultConversationInterval = 3 * time.Second
)

// Syncer keeps a local view of the acting user's request lists and one open
// conversation by polling the server.
//
// Contract (deliberate, not an oversight):
//   - each loop fetches once immediately, then on its fixed interval
//   - a successful response replaces the local snapshot wholesale —
//     last-fetch-wins, no merging or diffing
//   - a failed poll is skipped silently; the next tick retries
//   - each loop stops when its context is canceled and never outlives it
//
// Responses are idempotent wholesale replacements, so there is no in-flight
// cancellation if a tick fires while the previous fetch is still running —
// ticks are processed sequentially within a loop anyway.
type Syncer struct {
	api    *Client
	logger *slog.Logger

	// Intervals are configurable for tests; zero selects the defaults.
	RequestInterval      time.Duration
	ConversationInterval time.Duration

	mu       sync.RWMutex
	outgoing []model.RequestView
	incoming []model.RequestView
	history  *service.History
}

// NewSyncer creates a Syncer over the given API client.
func NewSyncer(api *Client, logger *slog.Logger) *Syncer {
	return &Syncer{
		api:                  api,
		logger:               logger,
		RequestInterval:      DefaultRequestInterval,
		ConversationInterval: DefaultConversationInterval,
	}
}

// RunRequestLoop polls the outgoing and incoming request lists while ctx is
// alive. Blocks until ctx is done; run it in a goroutine for the lifetime of
// the signed-in session and cancel on sign-out.
func (s *Syncer) RunRequestLoop(ctx context.Context) {
	interval := s.RequestInterval
	if interval <= 0 {
		interval = DefaultRequestInterval
	}
	s.pollLoop(ctx, interval, s.refreshRequests)
}

// RunConversationLoop polls the full history of the conversation with
// peerHandle while ctx is alive. Cancel the context when the conversation is
// closed; the last snapshot stays readable via Conversation.
func (s *Syncer) RunConversationLoop(ctx context.Context, peerHandle string) {
	interval := s.ConversationInterval
	if interval <= 0 {
		interval = DefaultConversationInterval
	}
	s.pollLoop(ctx, interval, func(ctx context.Context) {
		s.refreshConversation(ctx, peerHandle)
	})
}

// pollLoop runs fn once immediately and then on every tick until ctx is done.
func (s *Syncer) pollLoop(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (s *Syncer) refreshRequests(ctx context.Context) {
	outgoing, err := s.api.Outgoing(ctx)
	if err != nil {
		s.logger.Debug("request poll skipped", slog.String("error", err.Error()))
		return
	}
	incoming, err := s.api.Incoming(ctx)
	if err != nil {
		s.logger.Debug("request poll skipped", slog.String("error", err.Error()))
		return
	}

	s.mu.Lock()
	s.outgoing = outgoing
	s.incoming = incoming
	s.mu.Unlock()
}

func (s *Syncer) refreshConversation(ctx context.Context, peerHandle string) {
	history, err := s.api.History(ctx, peerHandle)
	if err != nil {
		s.logger.Debug("conversation poll skipped", slog.String("error", err.Error()))
		return
	}

	s.mu.Lock()
	s.history = history
	s.mu.Unlock()
}

// Requests returns the latest request-list snapshots (outgoing, incoming).
func (s *Syncer) Requests() ([]model.RequestView, []model.RequestView) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outgoing, s.incoming
}

// Conversation returns the latest history snapshot for the open
// conversation, or nil before the first successful poll.
func (s *Syncer) Conversation() *service.History {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history
}
