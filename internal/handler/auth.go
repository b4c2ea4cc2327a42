// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	authsvc "github.com/sahana-ai/assistant-platform/internal/auth"
	"github.com/sahana-ai/assistant-platform/internal/middleware"
	"github.com/sahana-ai/assistant-platform/internal/model"
	"github.com/sahana-ai/assistant-platform/internal/service"
	"github.com/sahana-ai/assistant-platform/pkg/logger"
)

// AuthHandler handles signup, login, session restore and logout.
type AuthHandler struct {
	auth   *authsvc.Service
	turns  *service.TurnService
	logger *logger.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth *authsvc.Service, turns *service.TurnService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		turns:  turns,
		logger: log,
	}
}

// SignUp handles POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateUsername(req.Username); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.auth.SignUp(req.Username, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// LogIn handles POST /api/v1/auth/login
func (h *AuthHandler) LogIn(w http.ResponseWriter, r *http.Request) {
	var req model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.auth.LogIn(req.Username, req.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Session handles GET /api/v1/session. Restores the session identified by
// the bearer token; an absent or corrupted marker reads as logged out.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	user, err := h.auth.Restore(token)
	if err != nil {
		h.logger.Error("session restore failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to restore session")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "no active session")
		return
	}

	writeJSON(w, http.StatusOK, &model.Session{User: *user})
}

// LogOut handles DELETE /api/v1/session
func (h *AuthHandler) LogOut(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r.Context())

	if err := h.auth.LogOut(username); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to log out")
		return
	}
	h.turns.EndSession(username)

	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authsvc.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, authsvc.ErrDuplicateUser):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		h.logger.Error("auth request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "authentication failed")
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) {
		return header[len(prefix):]
	}
	return ""
}
