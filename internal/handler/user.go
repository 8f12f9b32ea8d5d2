package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/quantum-link/internal/apperror"
	"github.com/sakif/quantum-link/internal/auth"
	"github.com/sakif/quantum-link/internal/service"
)

// UserHandler covers the handle operations: rename and search.
type UserHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(svc *service.AuthService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// HandleRename updates the acting user's quantum ID.
//
// HTTP: PATCH /api/user/handle  (RequireAuth)
// Body: {"handle": "orion1234"}
//
// Validation and the single-attempt unique update happen in the allocator;
// a collision comes back as 409 conflict, bad format as 400.
func (h *UserHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	var body struct {
		Handle string `json:"handle"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid request body"))
		return
	}

	user, err := h.svc.RenameHandle(r.Context(), session.UserID, body.Handle)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// HandleSearch resolves a handle to a public profile.
//
// HTTP: POST /api/friends/search  (RequireAuth)
// Body: {"handle": "@bob-5678"}  — a leading "@" is stripped
func (h *UserHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Handle string `json:"handle"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid request body"))
		return
	}

	user, err := h.svc.FindByHandle(r.Context(), body.Handle)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user.Profile()})
}
