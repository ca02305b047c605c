package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cleancity/complaint-server/internal/models"
)

type mockComplaintStore struct {
	mock.Mock
}

func (m *mockComplaintStore) Create(ctx context.Context, req *models.ComplaintSubmission) (int, error) {
	args := m.Called(ctx, req)
	return args.Int(0), args.Error(1)
}

func (m *mockComplaintStore) GetByID(ctx context.Context, id int) (*models.Complaint, error) {
	args := m.Called(ctx, id)
	var c *models.Complaint
	if v := args.Get(0); v != nil {
		c = v.(*models.Complaint)
	}
	return c, args.Error(1)
}

func (m *mockComplaintStore) List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error) {
	args := m.Called(ctx, filter)
	var cs []models.Complaint
	if v := args.Get(0); v != nil {
		cs = v.([]models.Complaint)
	}
	return cs, args.Error(1)
}

func (m *mockComplaintStore) ListByCitizen(ctx context.Context, citizenID int) ([]models.Complaint, error) {
	args := m.Called(ctx, citizenID)
	var cs []models.Complaint
	if v := args.Get(0); v != nil {
		cs = v.([]models.Complaint)
	}
	return cs, args.Error(1)
}

func (m *mockComplaintStore) ListByWorker(ctx context.Context, workerID int) ([]models.Complaint, error) {
	args := m.Called(ctx, workerID)
	var cs []models.Complaint
	if v := args.Get(0); v != nil {
		cs = v.([]models.Complaint)
	}
	return cs, args.Error(1)
}

func (m *mockComplaintStore) Assign(ctx context.Context, complaintID, workerID, adminID int) error {
	args := m.Called(ctx, complaintID, workerID, adminID)
	return args.Error(0)
}

func (m *mockComplaintStore) UpdateStatus(ctx context.Context, complaintID int, status string, userID int, notes string) error {
	args := m.Called(ctx, complaintID, status, userID, notes)
	return args.Error(0)
}

func (m *mockComplaintStore) Stats(ctx context.Context) (*models.ComplaintStats, error) {
	args := m.Called(ctx)
	var s *models.ComplaintStats
	if v := args.Get(0); v != nil {
		s = v.(*models.ComplaintStats)
	}
	return s, args.Error(1)
}

type mockHistoryStore struct {
	mock.Mock
}

func (m *mockHistoryStore) ListByComplaint(ctx context.Context, complaintID, limit int) ([]models.StatusHistoryEntry, error) {
	args := m.Called(ctx, complaintID, limit)
	var es []models.StatusHistoryEntry
	if v := args.Get(0); v != nil {
		es = v.([]models.StatusHistoryEntry)
	}
	return es, args.Error(1)
}

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	args := m.Called(ctx, email, password)
	var id *models.Identity
	if v := args.Get(0); v != nil {
		id = v.(*models.Identity)
	}
	return id, args.Error(1)
}

func (m *mockAuthenticator) RegisterCitizen(ctx context.Context, req *models.RegisterRequest) (*models.Identity, error) {
	args := m.Called(ctx, req)
	var id *models.Identity
	if v := args.Get(0); v != nil {
		id = v.(*models.Identity)
	}
	return id, args.Error(1)
}

type mockAdminRegistrar struct {
	mock.Mock
}

func (m *mockAdminRegistrar) RegisterAdmin(ctx context.Context, req *models.RegisterAdminRequest) (*models.Identity, error) {
	args := m.Called(ctx, req)
	var id *models.Identity
	if v := args.Get(0); v != nil {
		id = v.(*models.Identity)
	}
	return id, args.Error(1)
}

type mockWorkerDirectory struct {
	mock.Mock
}

func (m *mockWorkerDirectory) Available(ctx context.Context) ([]models.Worker, error) {
	args := m.Called(ctx)
	var ws []models.Worker
	if v := args.Get(0); v != nil {
		ws = v.([]models.Worker)
	}
	return ws, args.Error(1)
}

func (m *mockWorkerDirectory) GetByID(ctx context.Context, id int) (*models.Worker, error) {
	args := m.Called(ctx, id)
	var w *models.Worker
	if v := args.Get(0); v != nil {
		w = v.(*models.Worker)
	}
	return w, args.Error(1)
}

func (m *mockWorkerDirectory) SetAvailability(ctx context.Context, workerID int, status string) error {
	args := m.Called(ctx, workerID, status)
	return args.Error(0)
}

type mockWorkerRegistrar struct {
	mock.Mock
}

func (m *mockWorkerRegistrar) RegisterWorker(ctx context.Context, req *models.RegisterWorkerRequest) (*models.Identity, error) {
	args := m.Called(ctx, req)
	var id *models.Identity
	if v := args.Get(0); v != nil {
		id = v.(*models.Identity)
	}
	return id, args.Error(1)
}
