package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cleancity/complaint-server/internal/codec"
	"github.com/cleancity/complaint-server/internal/errs"
	"github.com/cleancity/complaint-server/internal/models"
)

// Worker availability states
const (
	WorkerAvailable = "available"
	WorkerBusy      = "busy"
	WorkerOffline   = "offline"
)

const (
	availableWorkersKey = "workers:available"
	availableWorkersTTL = 30 * time.Second
)

// WorkerService reads worker profiles and tracks availability. The
// available-workers list is hot on the admin dashboard, so it is cached in
// redis for a short window. A nil redis client disables caching.
type WorkerService struct {
	db     *pgxpool.Pool
	rdb    *redis.Client
	logger *zap.SugaredLogger
}

// NewWorkerService creates a new worker service
func NewWorkerService(db *pgxpool.Pool, rdb *redis.Client, logger *zap.SugaredLogger) *WorkerService {
	return &WorkerService{db: db, rdb: rdb, logger: logger}
}

// Available returns workers with status 'available', ordered by name.
func (s *WorkerService) Available(ctx context.Context) ([]models.Worker, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, availableWorkersKey).Bytes(); err == nil {
			var workers []models.Worker
			if err := codec.Decode(cached, &workers); err == nil {
				return workers, nil
			}
			// Unreadable cache entry: drop it and fall through to the DB.
			s.rdb.Del(ctx, availableWorkersKey)
		}
	}

	query := `
		SELECT w.id, w.user_id, w.full_name, COALESCE(w.phone, ''),
		       COALESCE(w.vehicle_number, ''), COALESCE(w.area_assigned, ''),
		       w.status, u.email
		FROM workers w
		JOIN users u ON w.user_id = u.id
		WHERE w.status = $1
		ORDER BY w.full_name
	`

	rows, err := s.db.Query(ctx, query, WorkerAvailable)
	if err != nil {
		return nil, fmt.Errorf("query workers: %w", err)
	}
	defer rows.Close()

	var workers []models.Worker
	for rows.Next() {
		var w models.Worker
		if err := rows.Scan(&w.ID, &w.UserID, &w.FullName, &w.Phone,
			&w.VehicleNumber, &w.AreaAssigned, &w.Status, &w.Email); err != nil {
			return nil, fmt.Errorf("scan worker: %w", err)
		}
		workers = append(workers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read workers: %w", err)
	}

	if s.rdb != nil {
		if data, err := codec.Encode(workers); err == nil {
			if err := s.rdb.Set(ctx, availableWorkersKey, data, availableWorkersTTL).Err(); err != nil {
				s.logger.Debugw("Worker cache write failed", "error", err)
			}
		}
	}
	return workers, nil
}

// GetByID returns one worker profile with the account email and the decoded
// profile payload.
func (s *WorkerService) GetByID(ctx context.Context, id int) (*models.Worker, error) {
	query := `
		SELECT w.id, w.user_id, w.full_name, COALESCE(w.phone, ''),
		       COALESCE(w.vehicle_number, ''), COALESCE(w.area_assigned, ''),
		       w.status, w.profile_data, u.email
		FROM workers w
		JOIN users u ON w.user_id = u.id
		WHERE w.id = $1
	`

	var w models.Worker
	var profileData []byte
	err := s.db.QueryRow(ctx, query, id).Scan(&w.ID, &w.UserID, &w.FullName,
		&w.Phone, &w.VehicleNumber, &w.AreaAssigned, &w.Status, &profileData, &w.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: worker %d", errs.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query worker: %w", err)
	}

	if profileData != nil {
		if err := codec.Decode(profileData, &w.Profile); err != nil {
			return nil, fmt.Errorf("worker %d profile: %w", id, err)
		}
	}
	return &w, nil
}

// SetAvailability updates a worker's availability status and invalidates the
// cached available-workers list.
func (s *WorkerService) SetAvailability(ctx context.Context, workerID int, status string) error {
	switch status {
	case WorkerAvailable, WorkerBusy, WorkerOffline:
	default:
		return fmt.Errorf("%w: unknown availability %q", errs.ErrValidation, status)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE workers SET status = $1 WHERE id = $2`,
		status, workerID,
	)
	if err != nil {
		return fmt.Errorf("update worker: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: worker %d", errs.ErrNotFound, workerID)
	}

	if s.rdb != nil {
		if err := s.rdb.Del(ctx, availableWorkersKey).Err(); err != nil {
			s.logger.Debugw("Worker cache invalidation failed", "error", err)
		}
	}

	s.logger.Infow("Worker availability updated", "worker_id", workerID, "status", status)
	return nil
}
