package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/quantum-link/internal/apperror"
	"github.com/sakif/quantum-link/internal/auth"
	"github.com/sakif/quantum-link/internal/service"
)

// ChatHandler covers message send and history.
type ChatHandler struct {
	svc    *service.ChatService
	logger *slog.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(svc *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, logger: logger}
}

// HandleSend appends a message to the conversation with the peer.
//
// HTTP: POST /api/chat/send  (RequireAuth)
// Body: {"toHandle": "bob-5678", "content": "hi"}
func (h *ChatHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var body struct {
		ToHandle string `json:"toHandle"`
		Content  string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid request body"))
		return
	}

	msg, err := h.svc.Send(r.Context(), session.UserID, body.ToHandle, body.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": msg})
}

// HandleHistory returns the full conversation with the peer.
//
// HTTP: GET /api/chat/history?peerHandle=bob-5678  (RequireAuth)
//
// Full history, no pagination — the polling client replaces its view
// wholesale with each response.
func (h *ChatHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	peerHandle := r.URL.Query().Get("peerHandle")
	if peerHandle == "" {
		writeError(w, apperror.ValidationFailed("peerHandle", "peerHandle is required"))
		return
	}

	history, err := h.svc.GetHistory(r.Context(), session.UserID, peerHandle)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, history)
}
