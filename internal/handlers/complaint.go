// Package handlers contains HTTP request handlers for the complaint API.
// Handlers parse requests, call services, and return JSON responses.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cleancity/complaint-server/internal/errs"
	"github.com/cleancity/complaint-server/internal/middleware"
	"github.com/cleancity/complaint-server/internal/models"
)

// ComplaintStore is the slice of the complaint service the handler needs.
type ComplaintStore interface {
	Create(ctx context.Context, req *models.ComplaintSubmission) (int, error)
	GetByID(ctx context.Context, id int) (*models.Complaint, error)
	List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error)
	ListByCitizen(ctx context.Context, citizenID int) ([]models.Complaint, error)
	ListByWorker(ctx context.Context, workerID int) ([]models.Complaint, error)
	Assign(ctx context.Context, complaintID, workerID, adminID int) error
	UpdateStatus(ctx context.Context, complaintID int, status string, userID int, notes string) error
	Stats(ctx context.Context) (*models.ComplaintStats, error)
}

// HistoryStore reads the status audit trail.
type HistoryStore interface {
	ListByComplaint(ctx context.Context, complaintID, limit int) ([]models.StatusHistoryEntry, error)
}

// ComplaintHandler handles complaint-related HTTP endpoints
type ComplaintHandler struct {
	complaints ComplaintStore
	history    HistoryStore
	logger     *zap.SugaredLogger
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(cs ComplaintStore, hs HistoryStore, logger *zap.SugaredLogger) *ComplaintHandler {
	return &ComplaintHandler{complaints: cs, history: hs, logger: logger}
}

// Create handles POST /api/v1/complaints. The citizen id comes from the
// session token, never from the request body.
func (h *ComplaintHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.ComplaintSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authorization required")
		return
	}
	req.CitizenID = identity.ProfileID

	id, err := h.complaints.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create complaint")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    map[string]int{"id": id},
		"message": "Complaint created successfully",
	})
}

// List handles GET /api/v1/complaints with optional status, priority, limit
// and offset query filters.
func (h *ComplaintHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ComplaintFilter{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Limit:    queryInt(q.Get("limit")),
		Offset:   queryInt(q.Get("offset")),
	}

	complaints, err := h.complaints.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch complaints")
		return
	}

	respondList(w, complaints)
}

// Mine handles GET /api/v1/complaints/mine for the citizen dashboard.
func (h *ComplaintHandler) Mine(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())

	complaints, err := h.complaints.ListByCitizen(r.Context(), identity.ProfileID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch complaints")
		return
	}

	respondList(w, complaints)
}

// Assigned handles GET /api/v1/complaints/assigned for the worker dashboard.
func (h *ComplaintHandler) Assigned(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFrom(r.Context())

	complaints, err := h.complaints.ListByWorker(r.Context(), identity.ProfileID)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch complaints")
		return
	}

	respondList(w, complaints)
}

// Get handles GET /api/v1/complaints/{id}
func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid complaint id")
		return
	}

	complaint, err := h.complaints.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch complaint")
		return
	}

	respondData(w, http.StatusOK, complaint)
}

// Update handles PATCH /api/v1/complaints/{id}. A body carrying worker_id
// assigns the complaint (admins only); a body carrying status records a
// status change by the acting user. The updated record is returned.
func (h *ComplaintHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid complaint id")
		return
	}

	var req models.ComplaintUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	switch {
	case req.WorkerID != nil:
		if identity.Role != models.RoleAdmin {
			respondError(w, http.StatusForbidden, "Only admins can assign complaints")
			return
		}
		err = h.complaints.Assign(r.Context(), id, *req.WorkerID, identity.ProfileID)
	case req.Status != "":
		err = h.complaints.UpdateStatus(r.Context(), id, req.Status, identity.UserID, req.Notes)
	default:
		respondError(w, http.StatusBadRequest, "Invalid update parameters")
		return
	}
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update complaint")
		return
	}

	complaint, err := h.complaints.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch complaint")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    complaint,
		"message": "Complaint updated successfully",
	})
}

// Stats handles GET /api/v1/complaints/stats (admin dashboard).
func (h *ComplaintHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.complaints.Stats(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch stats")
		return
	}

	respondData(w, http.StatusOK, stats)
}

// History handles GET /api/v1/complaints/{id}/history
func (h *ComplaintHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid complaint id")
		return
	}

	limit := queryInt(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}

	entries, err := h.history.ListByComplaint(r.Context(), id, limit)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to fetch status history")
		return
	}

	respondList(w, entries)
}

func queryInt(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with a success envelope
func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, map[string]any{"success": true, "data": data})
}

// Helper: respond with a list envelope including the row count
func respondList[T any](w http.ResponseWriter, items []T) {
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    items,
		"count":   len(items),
	})
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"success": false, "error": message})
}

// respondServiceError maps service errors onto HTTP statuses. Anything
// outside the known taxonomy is logged in full and surfaced generically.
func respondServiceError(w http.ResponseWriter, logger *zap.SugaredLogger, err error, fallback string) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	default:
		logger.Errorw(fallback, "error", err)
		respondError(w, http.StatusInternalServerError, fallback)
	}
}
