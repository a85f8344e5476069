package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/duaneandrea/digitalk-test/internal/domain"
	"github.com/duaneandrea/digitalk-test/internal/engine"
	"github.com/lib/pq"
)

func (s *Storage) Create(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (
			id, customer_id, translator_id, from_language_id, immediate,
			due, expires_at, duration, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.ID,
		job.CustomerID,
		nullableID(job.TranslatorID),
		job.FromLanguageID,
		job.Immediate,
		job.Due,
		job.ExpiresAt,
		job.Duration,
		string(job.Status),
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

func (s *Storage) Get(ctx context.Context, id string) (*domain.Job, error) {
	var row jobRow
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoRecord
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return row.toDomain(), nil
}

func (s *Storage) QueryByUserAndStatus(ctx context.Context, q engine.JobQuery) (*engine.JobPage, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if q.CustomerID != 0 {
		where += fmt.Sprintf(" AND customer_id = $%d", argIdx)
		args = append(args, q.CustomerID)
		argIdx++
	}

	if len(q.Statuses) > 0 {
		where += fmt.Sprintf(" AND status = ANY($%d)", argIdx)
		args = append(args, pq.Array(statusStrings(q.Statuses)))
		argIdx++
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM jobs`+where, args...); err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	query := `SELECT ` + jobColumns + ` FROM jobs` + where + orderBy(q.Order)

	page := q.Page
	if q.PageSize > 0 {
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		args = append(args, q.PageSize, (page-1)*q.PageSize)
	} else {
		page = 1
	}

	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return &engine.JobPage{Jobs: toDomainJobs(rows), Total: total, Page: page}, nil
}

func (s *Storage) QueryOffered(ctx context.Context, translatorID int64, now time.Time) ([]*domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE status = $1
		  AND translator_id IS NULL
		  AND expires_at >= $2
		  AND from_language_id IN (
			SELECT language_id FROM translator_languages WHERE user_id = $3
		  )
		ORDER BY due ASC, id ASC
	`

	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, query, string(domain.StatusPending), now, translatorID); err != nil {
		return nil, fmt.Errorf("failed to list offered jobs: %w", err)
	}

	return toDomainJobs(rows), nil
}

func (s *Storage) QueryTranslatorHistory(ctx context.Context, translatorID int64, page, pageSize int) (*engine.JobPage, error) {
	if page < 1 {
		page = 1
	}
	statuses := pq.Array(statusStrings(domain.HistoryStatuses))

	var total int
	countQuery := `SELECT COUNT(*) FROM jobs WHERE translator_id = $1 AND status = ANY($2)`
	if err := s.db.GetContext(ctx, &total, countQuery, translatorID, statuses); err != nil {
		return nil, fmt.Errorf("failed to count translator history: %w", err)
	}

	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE translator_id = $1 AND status = ANY($2)
		ORDER BY due DESC, id DESC
		LIMIT $3 OFFSET $4
	`

	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, query, translatorID, statuses, pageSize, (page-1)*pageSize); err != nil {
		return nil, fmt.Errorf("failed to list translator history: %w", err)
	}

	return &engine.JobPage{Jobs: toDomainJobs(rows), Total: total, Page: page}, nil
}

// ConditionalAssign claims the job using optimistic locking.
// Zero affected rows means another translator won or the job moved on.
func (s *Storage) ConditionalAssign(ctx context.Context, id string, translatorID int64, expected domain.Status) (bool, error) {
	query := `
		UPDATE jobs
		SET translator_id = $1,
		    status = $2,
		    updated_at = NOW()
		WHERE id = $3
		  AND status = $4
		  AND translator_id IS NULL
	`

	result, err := s.db.ExecContext(ctx, query, translatorID, string(domain.StatusAssigned), id, string(expected))
	if err != nil {
		return false, fmt.Errorf("failed to assign job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Warn("Failed to assign job - already taken or not pending",
			slog.String("job_id", id),
			slog.Int64("translator_id", translatorID),
		)
		return false, nil
	}

	return true, nil
}

func (s *Storage) UpdateStatus(ctx context.Context, id string, from []domain.Status, to domain.Status) (bool, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    translator_id = CASE WHEN $2 THEN translator_id ELSE NULL END,
		    updated_at = NOW()
		WHERE id = $3
		  AND status = ANY($4)
	`

	result, err := s.db.ExecContext(ctx, query, string(to), to.KeepsAssignment(), id, pq.Array(statusStrings(from)))
	if err != nil {
		return false, fmt.Errorf("failed to update job status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (s *Storage) Update(ctx context.Context, job *domain.Job, expected domain.Status) (bool, error) {
	query := `
		UPDATE jobs
		SET from_language_id = $1,
		    immediate = $2,
		    due = $3,
		    expires_at = $4,
		    duration = $5,
		    updated_at = $6
		WHERE id = $7
		  AND status = $8
	`

	result, err := s.db.ExecContext(ctx, query,
		job.FromLanguageID,
		job.Immediate,
		job.Due,
		job.ExpiresAt,
		job.Duration,
		job.UpdatedAt,
		job.ID,
		string(expected),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Warn("Failed to update job - missing or status changed",
			slog.String("job_id", job.ID),
			slog.String("expected_status", string(expected)),
		)
		return false, nil
	}

	return true, nil
}

func (s *Storage) ListExpiredPending(ctx context.Context, now time.Time) ([]*domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE status = $1 AND expires_at < $2
		ORDER BY expires_at ASC
	`

	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, query, string(domain.StatusPending), now); err != nil {
		return nil, fmt.Errorf("failed to list expired jobs: %w", err)
	}

	return toDomainJobs(rows), nil
}

func orderBy(order engine.SortOrder) string {
	if order == engine.DueDescending {
		return " ORDER BY due DESC, id DESC"
	}
	return " ORDER BY due ASC, id ASC"
}
