package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/duaneandrea/digitalk-test/internal/classifier"
	"github.com/duaneandrea/digitalk-test/internal/domain"
	"github.com/duaneandrea/digitalk-test/internal/metrics"
	"github.com/duaneandrea/digitalk-test/internal/timerules"
	"github.com/google/uuid"
)

// CreateJobInput is a customer's booking request
type CreateJobInput struct {
	FromLanguageID int64
	Immediate      bool
	DueDate        string
	DueTime        string
	Duration       int
}

// CreateJob validates a booking request and persists it as a pending job
func (e *Engine) CreateJob(ctx context.Context, customerID int64, in CreateJobInput) (*domain.Job, error) {
	if in.FromLanguageID <= 0 {
		return nil, domain.NewValidationError("from_language_id", "all fields are required")
	}
	if !in.Immediate && strings.TrimSpace(in.DueDate) == "" {
		return nil, domain.NewValidationError("due_date", "all fields are required")
	}
	if in.Duration < 0 {
		return nil, domain.NewValidationError("duration", "must not be negative")
	}

	customer, err := e.getUser(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer.Role != domain.RoleCustomer {
		return nil, fmt.Errorf("%w: only customers can book a translator", domain.ErrForbidden)
	}

	now := e.now()
	due, err := timerules.NormalizeDue(in.Immediate, in.DueDate, in.DueTime, now)
	if err != nil {
		return nil, err
	}

	job := &domain.Job{
		ID:             uuid.New().String(),
		CustomerID:     customer.ID,
		FromLanguageID: in.FromLanguageID,
		Immediate:      in.Immediate,
		Due:            due,
		ExpiresAt:      timerules.WillExpireAt(due, now),
		Duration:       in.Duration,
		Status:         domain.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := e.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	category := classifier.Classify(job)
	metrics.JobsCreatedTotal.WithLabelValues(string(category)).Inc()

	e.logger.Info("Job created",
		slog.String("job_id", job.ID),
		slog.Int64("customer_id", job.CustomerID),
		slog.String("category", string(category)),
		slog.Time("due", job.Due),
		slog.Time("expires_at", job.ExpiresAt),
	)

	e.notify(ctx, domain.EventJobCreated, job)

	return job, nil
}
