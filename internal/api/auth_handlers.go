package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/joetm/ckanext-feeds/internal/auth"
	"github.com/joetm/ckanext-feeds/internal/database"
	"github.com/joetm/ckanext-feeds/internal/models"
)

// Credentials is the user credential store the login handler checks against.
type Credentials interface {
	GetByName(ctx context.Context, name string) (models.User, error)
	PasswordHash(ctx context.Context, name string) (string, error)
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	config auth.Config
	users  Credentials
	logger *slog.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(config auth.Config, users Credentials, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		config: config,
		users:  users,
		logger: logger,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	hash, err := h.users.PasswordHash(r.Context(), req.Name)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		h.logger.Error("failed to look up credentials", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Use a generic error message to prevent account enumeration
	if err != nil || !auth.CheckPassword(req.Password, hash) {
		h.logger.Warn("failed login attempt", "name", req.Name, "ip", r.RemoteAddr)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetByName(r.Context(), req.Name)
	if err != nil {
		h.logger.Error("failed to load user after login", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	token, err := auth.GenerateToken(user.ID, h.config.JWTSecret, h.config.TokenDuration)
	if err != nil {
		h.logger.Error("failed to generate token", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("successful login", "user_id", user.ID, "ip", r.RemoteAddr)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.config.TokenDuration),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
