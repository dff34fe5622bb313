package collectors

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/maya/out-and-about/pkg/domain"
)

// AttendanceRepository stores who joined which event. It doubles as the
// membership gateway implementation: the engine's reconciler talks to it
// through the domain.MembershipGateway interface.
type AttendanceRepository struct {
	db *sql.DB
}

func NewAttendanceRepository(db *sql.DB) (*AttendanceRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	repo := &AttendanceRepository{db: db}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

func (r *AttendanceRepository) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS attendance (
		event_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		joined_at TIMESTAMP NOT NULL,
		PRIMARY KEY (event_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_event ON attendance(event_id);
	CREATE INDEX IF NOT EXISTS idx_attendance_user ON attendance(user_id);
	`

	_, err := r.db.Exec(query)
	return err
}

func (r *AttendanceRepository) Join(ctx context.Context, eventID, userID string) error {
	if eventID == "" || userID == "" {
		return domain.ErrInvalidRequest
	}

	query := `INSERT INTO attendance (event_id, user_id, joined_at) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, eventID, userID, time.Now())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			// already joined, treat as settled
			return nil
		}
		return fmt.Errorf("failed to record join: %w", err)
	}
	return nil
}

func (r *AttendanceRepository) Leave(ctx context.Context, eventID, userID string) error {
	if eventID == "" || userID == "" {
		return domain.ErrInvalidRequest
	}

	_, err := r.db.ExecContext(ctx,
		`DELETE FROM attendance WHERE event_id = ? AND user_id = ?`, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to record leave: %w", err)
	}
	return nil
}

func (r *AttendanceRepository) IsJoined(ctx context.Context, eventID, userID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM attendance WHERE event_id = ? AND user_id = ?`, eventID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return true, nil
}

func (r *AttendanceRepository) Count(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendance WHERE event_id = ?`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count attendees: %w", err)
	}
	return count, nil
}

// JoinEvent implements domain.MembershipGateway.
func (r *AttendanceRepository) JoinEvent(ctx context.Context, eventID, userID string) error {
	return r.Join(ctx, eventID, userID)
}

// LeaveEvent implements domain.MembershipGateway.
func (r *AttendanceRepository) LeaveEvent(ctx context.Context, eventID, userID string) error {
	return r.Leave(ctx, eventID, userID)
}

// FetchMembership implements domain.MembershipGateway.
func (r *AttendanceRepository) FetchMembership(ctx context.Context, eventID, userID string) (bool, int, error) {
	joined, err := r.IsJoined(ctx, eventID, userID)
	if err != nil {
		return false, 0, err
	}
	count, err := r.Count(ctx, eventID)
	if err != nil {
		return false, 0, err
	}
	return joined, count, nil
}
