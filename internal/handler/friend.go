package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/quantum-link/internal/apperror"
	"github.com/sakif/quantum-link/internal/auth"
	"github.com/sakif/quantum-link/internal/service"
)

// FriendHandler covers the connection-request operations.
type FriendHandler struct {
	svc    *service.ConnectionService
	logger *slog.Logger
}

// NewFriendHandler creates a FriendHandler.
func NewFriendHandler(svc *service.ConnectionService, logger *slog.Logger) *FriendHandler {
	return &FriendHandler{svc: svc, logger: logger}
}

// HandleCreate sends a connection request.
//
// HTTP: POST /api/friends/request  (RequireAuth)
// Body: {"toHandle": "bob-5678", "categories": ["Co-Founder"], "note": "hi"}
func (h *FriendHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var body struct {
		ToHandle   string   `json:"toHandle"`
		Categories []string `json:"categories"`
		Note       string   `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid request body"))
		return
	}

	req, err := h.svc.Create(r.Context(), session.UserID, body.ToHandle, body.Categories, body.Note)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"request": req})
}

// HandleOutgoing lists requests sent by the acting user, newest first.
//
// HTTP: GET /api/friends/outgoing  (RequireAuth)
func (h *FriendHandler) HandleOutgoing(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	views, err := h.svc.ListOutgoing(r.Context(), session.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"requests": views})
}

// HandleIncoming lists requests addressed to the acting user, newest first.
//
// HTTP: GET /api/friends/incoming  (RequireAuth)
func (h *FriendHandler) HandleIncoming(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	views, err := h.svc.ListIncoming(r.Context(), session.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"requests": views})
}

// HandleDecide accepts or rejects a request as its recipient.
//
// HTTP: POST /api/friends/decide  (RequireAuth)
// Body: {"requestId": "...", "action": "ACCEPT"}
func (h *FriendHandler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var body struct {
		RequestID string `json:"requestId"`
		Action    string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid request body"))
		return
	}

	req, err := h.svc.Decide(r.Context(), session.UserID, body.RequestID, service.DecideAction(body.Action))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"request": req})
}
