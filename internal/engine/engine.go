// Package engine implements the booking lifecycle: creation, listing and the
// accept/cancel/start/complete/expire transitions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/duaneandrea/digitalk-test/internal/domain"
)

// DefaultHistoryPageSize is the page size of history listings
const DefaultHistoryPageSize = 15

// Config holds engine dependencies
type Config struct {
	Logger          *slog.Logger
	Store           JobStore
	Users           UserDirectory
	Notifier        Notifier
	Clock           func() time.Time
	Location        *time.Location
	HistoryPageSize int
}

// Engine is the assignment engine
type Engine struct {
	logger          *slog.Logger
	store           JobStore
	users           UserDirectory
	notifier        Notifier
	clock           func() time.Time
	location        *time.Location
	historyPageSize int
}

// NewEngine creates a new Engine instance
func NewEngine(cfg *Config) *Engine {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	pageSize := cfg.HistoryPageSize
	if pageSize <= 0 {
		pageSize = DefaultHistoryPageSize
	}

	return &Engine{
		logger:          cfg.Logger,
		store:           cfg.Store,
		users:           cfg.Users,
		notifier:        cfg.Notifier,
		clock:           clock,
		location:        loc,
		historyPageSize: pageSize,
	}
}

func (e *Engine) now() time.Time {
	return e.clock().In(e.location)
}

// GetJob fetches a job by id
func (e *Engine) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := e.store.Get(ctx, jobID)
	if err != nil {
		return nil, e.translateStoreError(err, "job", jobID)
	}
	return job, nil
}

func (e *Engine) getUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := e.users.GetUser(ctx, userID)
	if err != nil {
		return nil, e.translateStoreError(err, "user", fmt.Sprint(userID))
	}
	return user, nil
}

// translateStoreError is the single place storage failures become domain errors
func (e *Engine) translateStoreError(err error, entity, id string) error {
	if errors.Is(err, domain.ErrNoRecord) {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, entity, id)
	}
	return fmt.Errorf("failed to load %s %s: %w", entity, id, err)
}

// notify hands the event to the gateway; failures are logged and never undo the transition
func (e *Engine) notify(ctx context.Context, kind domain.EventKind, job *domain.Job) {
	if e.notifier == nil {
		return
	}

	if err := e.notifier.Notify(ctx, kind, job); err != nil {
		e.logger.Error("Failed to notify lifecycle event",
			slog.String("event", string(kind)),
			slog.String("job_id", job.ID),
			slog.Any("error", err),
		)
	}
}
