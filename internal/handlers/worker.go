package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cleancity/complaint-server/internal/middleware"
	"github.com/cleancity/complaint-server/internal/models"
)

// WorkerDirectory is the slice of the worker service the handler needs.
type WorkerDirectory interface {
	Available(ctx context.Context) ([]models.Worker, error)
	GetByID(ctx context.Context, id int) (*models.Worker, error)
	SetAvailability(ctx context.Context, workerID int, status string) error
}

// WorkerRegistrar onboards new worker accounts.
type WorkerRegistrar interface {
	RegisterWorker(ctx context.Context, req *models.RegisterWorkerRequest) (*models.Identity, error)
}

// WorkerHandler handles worker directory endpoints
type WorkerHandler struct {
	workers   WorkerDirectory
	registrar WorkerRegistrar
	logger    *zap.SugaredLogger
}

// NewWorkerHandler creates a new worker handler
func NewWorkerHandler(workers WorkerDirectory, registrar WorkerRegistrar, logger *zap.SugaredLogger) *WorkerHandler {
	return &WorkerHandler{workers: workers, registrar: registrar, logger: logger}
}

// Available handles GET /api/v1/workers (admin assignment picker).
func (h *WorkerHandler) Available(w http.ResponseWriter, r *http.Request) {
	workers, err := h.workers.Available(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch workers")
		return
	}

	respondList(w, workers)
}

// Get handles GET /api/v1/workers/{id}
func (h *WorkerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid worker id")
		return
	}

	worker, err := h.workers.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch worker")
		return
	}

	respondData(w, http.StatusOK, worker)
}

// Create handles POST /api/v1/workers (admin onboarding).
func (h *WorkerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity, err := h.registrar.RegisterWorker(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to register worker")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    identity,
		"message": "Worker registered successfully",
	})
}

// SetAvailability handles PUT /api/v1/workers/availability. Workers update
// their own status; the worker id comes from the session token.
func (h *WorkerHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	if err := h.workers.SetAvailability(r.Context(), identity.ProfileID, req.Status); err != nil {
		respondServiceError(w, h.logger, err, "Failed to update availability")
		return
	}

	respondData(w, http.StatusOK, map[string]string{"status": req.Status})
}
