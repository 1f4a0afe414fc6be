package repository

import (
	"context"
	"fmt"

	"moodsync/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool the repository needs
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// CheckInRepository handles database operations for check-ins
type CheckInRepository struct {
	db DBTX
}

// NewCheckInRepository creates a new check-in repository
func NewCheckInRepository(db DBTX) *CheckInRepository {
	return &CheckInRepository{db: db}
}

// Create inserts a check-in
func (r *CheckInRepository) Create(ctx context.Context, c *models.CheckIn) error {
	query := `
		INSERT INTO checkins (id, emotion, emoji, intensity, note, photo, timestamp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		c.ID, c.Emotion, c.Emoji, c.Intensity, c.Note, c.Photo, c.Timestamp, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create check-in: %w", err)
	}
	return nil
}

// List returns every check-in, newest first
func (r *CheckInRepository) List(ctx context.Context) ([]*models.CheckIn, error) {
	query := `
		SELECT id, emotion, emoji, intensity, note, photo, timestamp, created_at
		FROM checkins
		ORDER BY timestamp DESC, created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	defer rows.Close()

	checkIns := make([]*models.CheckIn, 0)
	for rows.Next() {
		var c models.CheckIn
		err := rows.Scan(
			&c.ID, &c.Emotion, &c.Emoji, &c.Intensity, &c.Note, &c.Photo,
			&c.Timestamp, &c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		checkIns = append(checkIns, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating check-ins: %w", err)
	}

	return checkIns, nil
}

// Ping checks the database connection
func (r *CheckInRepository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
