package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Expirer times out pending jobs nobody accepted
type Expirer interface {
	ExpireStaleJobs(ctx context.Context) (int, error)
}

// Sweeper runs the expiry pass on a cron schedule
type Sweeper struct {
	logger   *slog.Logger
	expirer  Expirer
	schedule string
	timeout  time.Duration
}

// NewSweeper creates a sweeper; schedule uses standard cron syntax or @every descriptors
func NewSweeper(logger *slog.Logger, expirer Expirer, schedule string, timeout time.Duration) *Sweeper {
	return &Sweeper{
		logger:   logger,
		expirer:  expirer,
		schedule: schedule,
		timeout:  timeout,
	}
}

// Run blocks until ctx is canceled, then waits for a running sweep to finish
func (s *Sweeper) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.schedule, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule expiry sweep %q: %w", s.schedule, err)
	}

	s.logger.Info("Expiry sweeper started", slog.String("schedule", s.schedule))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()

	s.logger.Info("Expiry sweeper stopped")
	return nil
}

// Sweep runs one expiry pass
func (s *Sweeper) Sweep(ctx context.Context) {
	sweepCtx := context.WithoutCancel(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		sweepCtx, cancel = context.WithTimeout(sweepCtx, s.timeout)
		defer cancel()
	}

	count, err := s.expirer.ExpireStaleJobs(sweepCtx)
	if err != nil {
		s.logger.Error("Expiry sweep failed", slog.Any("error", err))
		return
	}
	if count > 0 {
		s.logger.Info("Expired stale jobs", slog.Int("count", count))
	}
}
