package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cleancity/complaint-server/internal/errs"
	"github.com/cleancity/complaint-server/internal/handlers"
	"github.com/cleancity/complaint-server/internal/middleware"
	"github.com/cleancity/complaint-server/internal/models"
)

func TestAvailableWorkers(t *testing.T) {
	dir := new(mockWorkerDirectory)
	h := handlers.NewWorkerHandler(dir, new(mockWorkerRegistrar), testLogger())

	dir.On("Available", mock.Anything).Return([]models.Worker{
		{ID: 7, FullName: "Ram Singh", Status: "available"},
	}, nil)

	rec := httptest.NewRecorder()
	h.Available(rec, httptest.NewRequest(http.MethodGet, "/workers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["count"])
}

func TestCreateWorker(t *testing.T) {
	reg := new(mockWorkerRegistrar)
	h := handlers.NewWorkerHandler(new(mockWorkerDirectory), reg, testLogger())

	identity := &models.Identity{UserID: 70, Role: models.RoleWorker, ProfileID: 7, FullName: "Ram Singh"}
	reg.On("RegisterWorker", mock.Anything, mock.MatchedBy(func(req *models.RegisterWorkerRequest) bool {
		return req.Email == "ram@city.gov" && req.VehicleNumber == "KA-01-1234"
	})).Return(identity, nil)

	body, _ := json.Marshal(map[string]string{
		"email": "ram@city.gov", "password": "pass1234",
		"full_name": "Ram Singh", "vehicle_number": "KA-01-1234",
	})
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/workers", bytes.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	reg.AssertExpectations(t)
}

func TestCreateWorkerDuplicateEmail(t *testing.T) {
	reg := new(mockWorkerRegistrar)
	h := handlers.NewWorkerHandler(new(mockWorkerDirectory), reg, testLogger())

	reg.On("RegisterWorker", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: email already registered", errs.ErrConflict))

	body, _ := json.Marshal(map[string]string{
		"email": "ram@city.gov", "password": "pass1234", "full_name": "Ram Singh",
	})
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/workers", bytes.NewReader(body)))

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestSetAvailability(t *testing.T) {
	dir := new(mockWorkerDirectory)
	h := handlers.NewWorkerHandler(dir, new(mockWorkerRegistrar), testLogger())

	// Worker id must come from the session token
	dir.On("SetAvailability", mock.Anything, 7, "busy").Return(nil)

	body, _ := json.Marshal(map[string]string{"status": "busy"})
	req := httptest.NewRequest(http.MethodPut, "/workers/availability", bytes.NewReader(body))
	req = req.WithContext(middleware.WithIdentity(req.Context(), workerIdentity))

	rec := httptest.NewRecorder()
	h.SetAvailability(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	dir.AssertExpectations(t)
}

func TestSetAvailabilityInvalidStatus(t *testing.T) {
	dir := new(mockWorkerDirectory)
	h := handlers.NewWorkerHandler(dir, new(mockWorkerRegistrar), testLogger())

	dir.On("SetAvailability", mock.Anything, 7, "on-vacation").
		Return(fmt.Errorf("%w: unknown availability %q", errs.ErrValidation, "on-vacation"))

	body, _ := json.Marshal(map[string]string{"status": "on-vacation"})
	req := httptest.NewRequest(http.MethodPut, "/workers/availability", bytes.NewReader(body))
	req = req.WithContext(middleware.WithIdentity(req.Context(), workerIdentity))

	rec := httptest.NewRecorder()
	h.SetAvailability(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
