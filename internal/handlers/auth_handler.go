package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/siderealab/siderea/internal/services/auth"
)

// AuthHandler exposes login, registration, and account endpoints.
type AuthHandler struct {
	authService *auth.Service
	logger      arbor.ILogger
}

func NewAuthHandler(authService *auth.Service, logger arbor.ILogger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterHandler creates a new account and starts a session.
func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	account, err := h.authService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn().Err(err).Str("email", req.Email).Msg("Registration failed")
		WriteBackendError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, account)
}

// LoginHandler authenticates and starts a session.
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	account, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn().Err(err).Str("email", req.Email).Msg("Login failed")
		WriteBackendError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, account)
}

// LogoutHandler ends the active session.
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := h.authService.Logout(r.Context()); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteSuccess(w, "logged out")
}

// AccountHandler returns the current account profile.
func (h *AuthHandler) AccountHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if !RequireAuth(w, h.authService) {
		return
	}

	account, err := h.authService.Account(r.Context())
	if err != nil {
		WriteBackendError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, account)
}

// ResendVerificationHandler re-sends the verification email for the active
// account.
func (h *AuthHandler) ResendVerificationHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if !RequireAuth(w, h.authService) {
		return
	}

	if err := h.authService.ResendVerification(r.Context()); err != nil {
		WriteBackendError(w, err)
		return
	}

	WriteSuccess(w, "verification email sent")
}
