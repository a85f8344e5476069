package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/duaneandrea/digitalk-test/internal/domain"
	"github.com/duaneandrea/digitalk-test/internal/metrics"
)

// DistanceTracker records proximity metadata per job.
// It is independent of the job's status.
type DistanceTracker struct {
	logger    *slog.Logger
	jobs      JobStore
	distances DistanceStore
	clock     func() time.Time
}

// NewDistanceTracker creates a new DistanceTracker instance
func NewDistanceTracker(logger *slog.Logger, jobs JobStore, distances DistanceStore, clock func() time.Time) *DistanceTracker {
	if clock == nil {
		clock = time.Now
	}
	return &DistanceTracker{
		logger:    logger,
		jobs:      jobs,
		distances: distances,
		clock:     clock,
	}
}

// Upsert overwrites the distance and timestamp recorded for the job
func (t *DistanceTracker) Upsert(ctx context.Context, jobID string, distance float64) (*domain.Distance, error) {
	if distance < 0 || math.IsNaN(distance) || math.IsInf(distance, 0) {
		return nil, domain.NewValidationError("distance", "must be a non-negative number")
	}

	if _, err := t.jobs.Get(ctx, jobID); err != nil {
		return nil, translateDistanceError(err, jobID)
	}

	record := &domain.Distance{
		JobID:     jobID,
		Distance:  distance,
		UpdatedAt: t.clock(),
	}

	if err := t.distances.UpsertDistance(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record distance: %w", err)
	}

	metrics.DistanceUpdatesTotal.Inc()
	t.logger.Debug("Distance recorded",
		slog.String("job_id", jobID),
		slog.Float64("distance", distance),
	)

	return record, nil
}

// Get returns the distance recorded for the job
func (t *DistanceTracker) Get(ctx context.Context, jobID string) (*domain.Distance, error) {
	d, err := t.distances.GetDistance(ctx, jobID)
	if err != nil {
		return nil, translateDistanceError(err, jobID)
	}
	return d, nil
}

func translateDistanceError(err error, jobID string) error {
	if errors.Is(err, domain.ErrNoRecord) {
		return fmt.Errorf("%w: job %s", domain.ErrNotFound, jobID)
	}
	return fmt.Errorf("failed to load distance for job %s: %w", jobID, err)
}
