// Package services contains business logic layers.
// Services are called by handlers and interact with the database.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cleancity/complaint-server/internal/codec"
	"github.com/cleancity/complaint-server/internal/database"
	"github.com/cleancity/complaint-server/internal/errs"
	"github.com/cleancity/complaint-server/internal/models"
)

// ComplaintService owns the complaint lifecycle: creation, assignment,
// status transitions and the audit trail that accompanies every change.
type ComplaintService struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewComplaintService creates a new complaint service
func NewComplaintService(db *pgxpool.Pool, logger *zap.SugaredLogger) *ComplaintService {
	return &ComplaintService{db: db, logger: logger}
}

const complaintColumns = `c.id, c.reference, c.citizen_id, c.title, COALESCE(c.description, ''),
	c.location_address, c.latitude, c.longitude, c.priority, c.images_data, c.metadata,
	c.status, c.assigned_worker_id, c.assigned_by_admin_id, c.created_at, c.resolved_at,
	COALESCE(cit.full_name, ''), COALESCE(w.full_name, ''), COALESCE(a.full_name, '')`

const complaintJoins = `FROM complaints c
	LEFT JOIN citizens cit ON c.citizen_id = cit.id
	LEFT JOIN workers w ON c.assigned_worker_id = w.id
	LEFT JOIN admins a ON c.assigned_by_admin_id = a.id`

// Create validates and stores a new complaint with status 'pending' and
// writes the opening audit entry in the same transaction.
func (s *ComplaintService) Create(ctx context.Context, req *models.ComplaintSubmission) (int, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.LocationAddress) == "" {
		return 0, fmt.Errorf("%w: title and location_address are required", errs.ErrValidation)
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriority(priority) {
		return 0, fmt.Errorf("%w: unknown priority %q", errs.ErrValidation, priority)
	}

	var imagesData, metadata []byte
	var err error
	if req.Images != nil {
		if imagesData, err = codec.Encode(req.Images); err != nil {
			return 0, err
		}
	}
	if req.Metadata != nil {
		if metadata, err = codec.Encode(req.Metadata); err != nil {
			return 0, err
		}
	}

	reference := uuid.New().String()[:8]

	var id int
	err = database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		var citizenUserID int
		err := tx.QueryRow(ctx,
			`SELECT user_id FROM citizens WHERE id = $1`,
			req.CitizenID,
		).Scan(&citizenUserID)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: citizen %d", errs.ErrNotFound, req.CitizenID)
		}
		if err != nil {
			return fmt.Errorf("resolve citizen: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO complaints
			(reference, citizen_id, title, description, location_address, latitude, longitude, priority, images_data, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`, reference, req.CitizenID, req.Title, req.Description, req.LocationAddress,
			req.Latitude, req.Longitude, priority, imagesData, metadata,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert complaint: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO complaint_status_history (complaint_id, status, changed_by_user_id, notes)
			VALUES ($1, $2, $3, $4)
		`, id, models.StatusPending, citizenUserID, "Complaint filed")
		if err != nil {
			return fmt.Errorf("insert status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Infow("Complaint created",
		"id", id,
		"reference", reference,
		"citizen_id", req.CitizenID,
		"priority", priority,
	)
	return id, nil
}

// Assign links a complaint to a worker on behalf of an admin. The row
// update, the status change and the audit entry commit atomically; the
// complaint row is locked for the duration so concurrent assignments
// serialize instead of interleaving.
func (s *ComplaintService) Assign(ctx context.Context, complaintID, workerID, adminID int) error {
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		var current string
		err := tx.QueryRow(ctx,
			`SELECT status FROM complaints WHERE id = $1 FOR UPDATE`,
			complaintID,
		).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: complaint %d", errs.ErrNotFound, complaintID)
		}
		if err != nil {
			return fmt.Errorf("lock complaint: %w", err)
		}

		var workerExists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM workers WHERE id = $1)`,
			workerID,
		).Scan(&workerExists); err != nil {
			return fmt.Errorf("check worker: %w", err)
		}
		if !workerExists {
			return fmt.Errorf("%w: worker %d", errs.ErrNotFound, workerID)
		}

		var adminUserID int
		err = tx.QueryRow(ctx,
			`SELECT user_id FROM admins WHERE id = $1`,
			adminID,
		).Scan(&adminUserID)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: admin %d", errs.ErrNotFound, adminID)
		}
		if err != nil {
			return fmt.Errorf("resolve admin: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE complaints
			SET assigned_worker_id = $1, assigned_by_admin_id = $2, status = $3
			WHERE id = $4
		`, workerID, adminID, models.StatusAssigned, complaintID)
		if err != nil {
			return fmt.Errorf("update complaint: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO complaint_status_history (complaint_id, status, changed_by_user_id, notes)
			VALUES ($1, $2, $3, $4)
		`, complaintID, models.StatusAssigned, adminUserID, "Assigned to worker")
		if err != nil {
			return fmt.Errorf("insert status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infow("Complaint assigned",
		"complaint_id", complaintID,
		"worker_id", workerID,
		"admin_id", adminID,
	)
	return nil
}

// UpdateStatus sets the complaint status and appends an audit entry in one
// transaction. resolved_at is stamped when the status becomes 'resolved' and
// cleared when it moves anywhere else. Any status may follow any other;
// admins use this as a manual override.
func (s *ComplaintService) UpdateStatus(ctx context.Context, complaintID int, status string, userID int, notes string) error {
	if !models.ValidStatus(status) {
		return fmt.Errorf("%w: unknown status %q", errs.ErrValidation, status)
	}

	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		var current string
		err := tx.QueryRow(ctx,
			`SELECT status FROM complaints WHERE id = $1 FOR UPDATE`,
			complaintID,
		).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: complaint %d", errs.ErrNotFound, complaintID)
		}
		if err != nil {
			return fmt.Errorf("lock complaint: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE complaints
			SET status = $1,
			    resolved_at = CASE WHEN $1 = 'resolved' THEN NOW() ELSE NULL END
			WHERE id = $2
		`, status, complaintID)
		if err != nil {
			return fmt.Errorf("update complaint: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO complaint_status_history (complaint_id, status, changed_by_user_id, notes)
			VALUES ($1, $2, $3, $4)
		`, complaintID, status, userID, notes)
		if err != nil {
			return fmt.Errorf("insert status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infow("Complaint status updated",
		"complaint_id", complaintID,
		"status", status,
		"user_id", userID,
	)
	return nil
}

// GetByID returns the complaint joined with citizen/worker/admin display
// names, with both payloads decompressed.
func (s *ComplaintService) GetByID(ctx context.Context, id int) (*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` ` + complaintJoins + ` WHERE c.id = $1`

	var c models.Complaint
	var imagesData, metadata []byte
	err := s.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Reference, &c.CitizenID, &c.Title, &c.Description,
		&c.LocationAddress, &c.Latitude, &c.Longitude, &c.Priority, &imagesData, &metadata,
		&c.Status, &c.AssignedWorkerID, &c.AssignedByAdminID, &c.CreatedAt, &c.ResolvedAt,
		&c.CitizenName, &c.WorkerName, &c.AdminName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: complaint %d", errs.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query complaint: %w", err)
	}

	if err := decodePayloads(&c, imagesData, metadata); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns complaints matching the filter, newest first. Filters are
// conjunctive; an empty filter returns everything.
func (s *ComplaintService) List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error) {
	if filter.Status != "" && !models.ValidStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", errs.ErrValidation, filter.Status)
	}
	if filter.Priority != "" && !models.ValidPriority(filter.Priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", errs.ErrValidation, filter.Priority)
	}

	query := `SELECT ` + complaintColumns + ` ` + complaintJoins + ` WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND c.status = $%d", len(args))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		query += fmt.Sprintf(" AND c.priority = $%d", len(args))
	}

	query += " ORDER BY c.created_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return s.queryComplaints(ctx, query, args...)
}

// ListByCitizen returns a citizen's own complaints, newest first.
func (s *ComplaintService) ListByCitizen(ctx context.Context, citizenID int) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` ` + complaintJoins +
		` WHERE c.citizen_id = $1 ORDER BY c.created_at DESC`
	return s.queryComplaints(ctx, query, citizenID)
}

// ListByWorker returns the complaints assigned to a worker, newest first.
func (s *ComplaintService) ListByWorker(ctx context.Context, workerID int) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` ` + complaintJoins +
		` WHERE c.assigned_worker_id = $1 ORDER BY c.created_at DESC`
	return s.queryComplaints(ctx, query, workerID)
}

// Stats returns aggregate counts for the admin dashboard: complaints by
// status, by priority, and daily submissions over the last 30 days.
func (s *ComplaintService) Stats(ctx context.Context) (*models.ComplaintStats, error) {
	stats := &models.ComplaintStats{}

	rows, err := s.db.Query(ctx,
		`SELECT status, COUNT(*) FROM complaints GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, fmt.Errorf("query status counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sc models.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.ByStatus = append(stats.ByStatus, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read status counts: %w", err)
	}

	rows, err = s.db.Query(ctx,
		`SELECT priority, COUNT(*) FROM complaints GROUP BY priority ORDER BY priority`)
	if err != nil {
		return nil, fmt.Errorf("query priority counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pc models.PriorityCount
		if err := rows.Scan(&pc.Priority, &pc.Count); err != nil {
			return nil, fmt.Errorf("scan priority count: %w", err)
		}
		stats.ByPriority = append(stats.ByPriority, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read priority counts: %w", err)
	}

	rows, err = s.db.Query(ctx, `
		SELECT DATE_TRUNC('day', created_at)::DATE::TEXT AS date, COUNT(*)
		FROM complaints
		WHERE created_at > NOW() - INTERVAL '30 days'
		GROUP BY DATE_TRUNC('day', created_at)
		ORDER BY date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query daily counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var dc models.DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan daily count: %w", err)
		}
		stats.Daily = append(stats.Daily, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read daily counts: %w", err)
	}

	return stats, nil
}

// queryComplaints runs a complaint SELECT and decompresses payloads for all
// rows concurrently. Row order in the result matches the query order.
func (s *ComplaintService) queryComplaints(ctx context.Context, query string, args ...any) ([]models.Complaint, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query complaints: %w", err)
	}
	defer rows.Close()

	var complaints []models.Complaint
	var payloads [][2][]byte
	for rows.Next() {
		var c models.Complaint
		var imagesData, metadata []byte
		if err := rows.Scan(
			&c.ID, &c.Reference, &c.CitizenID, &c.Title, &c.Description,
			&c.LocationAddress, &c.Latitude, &c.Longitude, &c.Priority, &imagesData, &metadata,
			&c.Status, &c.AssignedWorkerID, &c.AssignedByAdminID, &c.CreatedAt, &c.ResolvedAt,
			&c.CitizenName, &c.WorkerName, &c.AdminName,
		); err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		complaints = append(complaints, c)
		payloads = append(payloads, [2][]byte{imagesData, metadata})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read complaints: %w", err)
	}

	var g errgroup.Group
	for i := range complaints {
		i := i
		g.Go(func() error {
			return decodePayloads(&complaints[i], payloads[i][0], payloads[i][1])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return complaints, nil
}

func decodePayloads(c *models.Complaint, imagesData, metadata []byte) error {
	if imagesData != nil {
		if err := codec.Decode(imagesData, &c.Images); err != nil {
			return fmt.Errorf("complaint %d images: %w", c.ID, err)
		}
	}
	if metadata != nil {
		if err := codec.Decode(metadata, &c.Metadata); err != nil {
			return fmt.Errorf("complaint %d metadata: %w", c.ID, err)
		}
	}
	return nil
}
