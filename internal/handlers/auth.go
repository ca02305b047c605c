package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/cleancity/complaint-server/internal/models"
)

// Authenticator is the slice of the auth service the handler needs.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.Identity, error)
	RegisterCitizen(ctx context.Context, req *models.RegisterRequest) (*models.Identity, error)
}

// AuthHandler handles registration and login for all three roles. Every
// portal goes through the same credential check; the issued token is the
// only proof of role the server accepts afterwards.
type AuthHandler struct {
	auth      Authenticator
	logger    *zap.SugaredLogger
	jwtSecret string
	tokenTTL  time.Duration
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth Authenticator, logger *zap.SugaredLogger, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Register handles POST /api/v1/auth/register (citizen self-service).
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity, err := h.auth.RegisterCitizen(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to register")
		return
	}

	token, err := issueToken(identity, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.logger.Errorw("Failed to issue token", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    map[string]any{"token": token, "user": identity},
		"message": "Registration successful",
	})
}

// Login handles POST /api/v1/auth/login for citizens, admins and workers.
// Unknown email and wrong password produce the same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	identity, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Errorw("Authentication failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}
	if identity == nil {
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := issueToken(identity, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.logger.Errorw("Failed to issue token", "error", err)
		respondError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	respondData(w, http.StatusOK, map[string]any{"token": token, "user": identity})
}

// issueToken signs a session token carrying the verified identity.
func issueToken(identity *models.Identity, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":    identity.UserID,
		"role":       identity.Role,
		"profile_id": identity.ProfileID,
		"name":       identity.FullName,
		"email":      identity.Email,
		"exp":        time.Now().Add(ttl).Unix(),
		"iss":        "complaint-server",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
