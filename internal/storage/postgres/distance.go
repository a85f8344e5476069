package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/duaneandrea/digitalk-test/internal/domain"
)

func (s *Storage) UpsertDistance(ctx context.Context, d *domain.Distance) error {
	query := `
		INSERT INTO job_distances (job_id, distance, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_id) DO UPDATE
		SET distance = EXCLUDED.distance,
		    updated_at = EXCLUDED.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, d.JobID, d.Distance, d.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert distance: %w", err)
	}

	return nil
}

func (s *Storage) GetDistance(ctx context.Context, jobID string) (*domain.Distance, error) {
	var d domain.Distance
	query := `SELECT job_id, distance, updated_at FROM job_distances WHERE job_id = $1`

	err := s.db.QueryRowContext(ctx, query, jobID).Scan(&d.JobID, &d.Distance, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoRecord
		}
		return nil, fmt.Errorf("failed to get distance: %w", err)
	}

	return &d, nil
}
