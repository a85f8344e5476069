// Package postgres implements the booking stores on PostgreSQL.
package postgres

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/duaneandrea/digitalk-test/internal/domain"
	"github.com/duaneandrea/digitalk-test/internal/engine"
	"github.com/jmoiron/sqlx"
)

// Storage handles all database operations for jobs, distances and users
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

const jobColumns = `id, customer_id, translator_id, from_language_id, immediate,
	due, expires_at, duration, status, created_at, updated_at`

// jobRow is the jobs table as scanned by sqlx
type jobRow struct {
	ID             string        `db:"id"`
	CustomerID     int64         `db:"customer_id"`
	TranslatorID   sql.NullInt64 `db:"translator_id"`
	FromLanguageID int64         `db:"from_language_id"`
	Immediate      bool          `db:"immediate"`
	Due            time.Time     `db:"due"`
	ExpiresAt      time.Time     `db:"expires_at"`
	Duration       int           `db:"duration"`
	Status         string        `db:"status"`
	CreatedAt      time.Time     `db:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at"`
}

func (r *jobRow) toDomain() *domain.Job {
	job := &domain.Job{
		ID:             r.ID,
		CustomerID:     r.CustomerID,
		FromLanguageID: r.FromLanguageID,
		Immediate:      r.Immediate,
		Due:            r.Due,
		ExpiresAt:      r.ExpiresAt,
		Duration:       r.Duration,
		Status:         domain.Status(r.Status),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.TranslatorID.Valid {
		id := r.TranslatorID.Int64
		job.TranslatorID = &id
	}
	return job
}

func toDomainJobs(rows []jobRow) []*domain.Job {
	jobs := make([]*domain.Job, len(rows))
	for i := range rows {
		jobs[i] = rows[i].toDomain()
	}
	return jobs
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

var (
	_ engine.JobStore      = (*Storage)(nil)
	_ engine.DistanceStore = (*Storage)(nil)
	_ engine.UserDirectory = (*Storage)(nil)
)
