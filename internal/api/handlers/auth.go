package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pokevault/pokevault/internal/api/response"
	"github.com/pokevault/pokevault/internal/auth"
)

// AuthHandler serves login, registration, anonymous sign-in and logout.
type AuthHandler struct {
	manager *auth.Manager
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(manager *auth.Manager, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{manager: manager, logger: logger}
}

// credentialsRequest is the body of the login and register routes.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, fmt.Errorf("decode credentials: %w", err))
		return req, false
	}
	if req.Email == "" || req.Password == "" {
		response.BadRequest(w, fmt.Errorf("email and password are required"))
		return req, false
	}
	return req, true
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	session, err := h.manager.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn("sign-in failed", "email", req.Email, "error", err)
		response.FromError(w, err)
		return
	}
	response.Success(w, session)
}

// Register handles POST /api/v1/auth/register: creates the account and
// signs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	session, err := h.manager.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, session)
}

// Anonymous handles POST /api/v1/auth/anonymous.
func (h *AuthHandler) Anonymous(w http.ResponseWriter, r *http.Request) {
	session, err := h.manager.SignInAnonymously(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, session)
}

// Logout handles POST /api/v1/auth/logout. Logging out while signed out
// succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.manager.SignOut()
	response.NoContent(w)
}
