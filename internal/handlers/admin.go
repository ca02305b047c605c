package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/cleancity/complaint-server/internal/models"
)

// AdminRegistrar onboards new admin accounts.
type AdminRegistrar interface {
	RegisterAdmin(ctx context.Context, req *models.RegisterAdminRequest) (*models.Identity, error)
}

// AdminHandler handles admin onboarding endpoints
type AdminHandler struct {
	registrar AdminRegistrar
	logger    *zap.SugaredLogger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(registrar AdminRegistrar, logger *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{registrar: registrar, logger: logger}
}

// Create handles POST /api/v1/admins. Only existing admins can mint new
// admin accounts; the first one is seeded from configuration on startup.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity, err := h.registrar.RegisterAdmin(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to register admin")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    identity,
		"message": "Admin registered successfully",
	})
}
