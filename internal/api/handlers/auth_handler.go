package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/avelar/taskboard-be/internal/auth"
	"github.com/avelar/taskboard-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	service      services.UserServiceProvider
	secret       []byte
	tokenTTL     time.Duration
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.UserServiceProvider, secret []byte, tokenTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		service:      service,
		secret:       secret,
		tokenTTL:     tokenTTL,
		secureCookie: secureCookie,
	}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration. No session is issued; the client
// signs in afterwards.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	if _, err := h.service.CreateUser(payload.Name, payload.Email, payload.Password); err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Registration rejected")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"message": "Account created successfully. You can now sign in."})
}

// Login handles user authentication and issues the session cookie. The
// failure message never reveals whether the email or the password was wrong.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	user, err := h.service.AuthenticateUser(payload.Email, payload.Password)
	if err != nil {
		log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
		respondJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
		return
	}

	token, err := auth.IssueToken(user.ID, h.secret, h.tokenTTL)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue session token")
		respondJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
		return
	}

	http.SetCookie(w, auth.NewSessionCookie(token, h.tokenTTL, h.secureCookie))
	respondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// Logout clears the session cookie. Tokens are self-contained, so there is
// nothing to invalidate server-side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearedSessionCookie(h.secureCookie))
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
