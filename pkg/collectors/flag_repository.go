package collectors

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/maya/out-and-about/pkg/domain"
)

// FlagRepository records content reports against entities.
type FlagRepository struct {
	db *sql.DB
}

func NewFlagRepository(db *sql.DB) (*FlagRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	repo := &FlagRepository{db: db}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

func (r *FlagRepository) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS flags (
		id TEXT PRIMARY KEY,
		reason TEXT NOT NULL,
		explanation TEXT,
		target_id TEXT NOT NULL,
		reported_by TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_flags_target ON flags(target_id);
	`

	_, err := r.db.Exec(query)
	return err
}

func (r *FlagRepository) Create(ctx context.Context, flag *domain.Flag) error {
	if flag == nil {
		return fmt.Errorf("flag cannot be nil")
	}
	if flag.Reason == "" {
		return domain.ValidationError{Field: "reason", Message: "is required"}
	}
	if flag.TargetID == "" {
		return domain.ValidationError{Field: "target_id", Message: "is required"}
	}

	if flag.ID == "" {
		flag.ID = uuid.NewString()
	}
	flag.CreatedAt = time.Now()

	query := `
	INSERT INTO flags (id, reason, explanation, target_id, reported_by, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		flag.ID,
		flag.Reason,
		flag.Explanation,
		flag.TargetID,
		flag.ReportedBy,
		flag.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create flag: %w", err)
	}
	return nil
}
