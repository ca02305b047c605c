package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cleancity/complaint-server/internal/models"
)

// HistoryService reads the append-only status audit trail. Entries are
// written by ComplaintService inside its transactions; nothing updates or
// deletes them.
type HistoryService struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewHistoryService creates a new history service
func NewHistoryService(db *pgxpool.Pool, logger *zap.SugaredLogger) *HistoryService {
	return &HistoryService{db: db, logger: logger}
}

// ListByComplaint returns the audit trail for a complaint, newest first.
func (s *HistoryService) ListByComplaint(ctx context.Context, complaintID, limit int) ([]models.StatusHistoryEntry, error) {
	query := `
		SELECT id, complaint_id, status, changed_by_user_id, COALESCE(notes, ''), created_at
		FROM complaint_status_history
		WHERE complaint_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, complaintID, limit)
	if err != nil {
		return nil, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	var entries []models.StatusHistoryEntry
	for rows.Next() {
		var e models.StatusHistoryEntry
		if err := rows.Scan(&e.ID, &e.ComplaintID, &e.Status,
			&e.ChangedByUserID, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read status history: %w", err)
	}

	return entries, nil
}
