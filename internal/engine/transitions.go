package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/duaneandrea/digitalk-test/internal/classifier"
	"github.com/duaneandrea/digitalk-test/internal/domain"
	"github.com/duaneandrea/digitalk-test/internal/metrics"
	"github.com/duaneandrea/digitalk-test/internal/timerules"
)

// AcceptJob assigns a pending job to the translator.
// Concurrent accepts are settled by the store's conditional assign; the loser gets ErrConflict.
func (e *Engine) AcceptJob(ctx context.Context, jobID string, translatorID int64) (*domain.Job, error) {
	job, err := e.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	translator, err := e.getUser(ctx, translatorID)
	if err != nil {
		return nil, err
	}
	if translator.Role != domain.RoleTranslator {
		return nil, fmt.Errorf("%w: only translators can accept jobs", domain.ErrForbidden)
	}
	if !translator.SpeaksLanguage(job.FromLanguageID) {
		return nil, fmt.Errorf("%w: translator %d does not cover language %d", domain.ErrForbidden, translatorID, job.FromLanguageID)
	}

	if !classifier.CanAccept(job, translatorID) {
		return nil, e.acceptConflict(job, translatorID, "not pending")
	}
	if now := e.now(); !job.ExpiresAt.IsZero() && now.After(job.ExpiresAt) {
		return nil, e.acceptConflict(job, translatorID, "booking hold expired")
	}

	ok, err := e.store.ConditionalAssign(ctx, jobID, translatorID, domain.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to assign job: %w", err)
	}
	if !ok {
		return nil, e.acceptConflict(job, translatorID, "lost concurrent accept")
	}

	accepted, err := e.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	metrics.JobsAcceptedTotal.Inc()
	e.logger.Info("Job accepted",
		slog.String("job_id", jobID),
		slog.Int64("translator_id", translatorID),
	)

	e.notify(ctx, domain.EventJobAccepted, accepted)

	return accepted, nil
}

func (e *Engine) acceptConflict(job *domain.Job, translatorID int64, reason string) error {
	metrics.AcceptConflictsTotal.Inc()
	e.logger.Warn("Job accept rejected",
		slog.String("job_id", job.ID),
		slog.Int64("translator_id", translatorID),
		slog.String("status", string(job.Status)),
		slog.String("reason", reason),
	)
	return fmt.Errorf("%w: %s", domain.ErrConflict, reason)
}

// CancelJob withdraws a pending or assigned job on behalf of its customer or translator.
// Cancellation is final and always clears the assignment.
func (e *Engine) CancelJob(ctx context.Context, jobID string, actingUserID int64) (*domain.Job, error) {
	job, err := e.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.CustomerID != actingUserID && !job.IsAssignedTo(actingUserID) {
		return nil, fmt.Errorf("%w: user %d is not a party to job %s", domain.ErrForbidden, actingUserID, jobID)
	}

	cancellable := []domain.Status{domain.StatusPending, domain.StatusAssigned}
	if job.Status != domain.StatusPending && job.Status != domain.StatusAssigned {
		return nil, fmt.Errorf("%w: job is %s", domain.ErrConflict, job.Status)
	}

	to := timerules.WithdrawalStatus(job.Due, e.now())
	canceled, err := e.transition(ctx, job, cancellable, to)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Job canceled",
		slog.String("job_id", jobID),
		slog.Int64("acting_user_id", actingUserID),
		slog.String("status", string(to)),
	)

	// the event keeps the released translator so both parties can be told
	event := canceled.Clone()
	event.TranslatorID = job.TranslatorID
	e.notify(ctx, domain.EventJobCanceled, event)

	return canceled, nil
}

// StartJob marks an assigned session as started by its translator
func (e *Engine) StartJob(ctx context.Context, jobID string, translatorID int64) (*domain.Job, error) {
	job, err := e.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if !job.IsAssignedTo(translatorID) {
		return nil, fmt.Errorf("%w: job %s is not assigned to translator %d", domain.ErrForbidden, jobID, translatorID)
	}
	if job.Status != domain.StatusAssigned {
		return nil, fmt.Errorf("%w: job is %s", domain.ErrConflict, job.Status)
	}

	started, err := e.transition(ctx, job, []domain.Status{domain.StatusAssigned}, domain.StatusStarted)
	if err != nil {
		return nil, err
	}

	e.notify(ctx, domain.EventJobStarted, started)
	return started, nil
}

// CompleteJob ends an assigned or started session
func (e *Engine) CompleteJob(ctx context.Context, jobID string, actingUserID int64) (*domain.Job, error) {
	job, err := e.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.CustomerID != actingUserID && !job.IsAssignedTo(actingUserID) {
		return nil, fmt.Errorf("%w: user %d is not a party to job %s", domain.ErrForbidden, actingUserID, jobID)
	}

	from := []domain.Status{domain.StatusAssigned, domain.StatusStarted}
	if job.Status != domain.StatusAssigned && job.Status != domain.StatusStarted {
		return nil, fmt.Errorf("%w: job is %s", domain.ErrConflict, job.Status)
	}

	completed, err := e.transition(ctx, job, from, domain.StatusCompleted)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Session ended",
		slog.String("job_id", jobID),
		slog.Int64("acting_user_id", actingUserID),
	)

	e.notify(ctx, domain.EventSessionEnded, completed)
	return completed, nil
}

// ExpireStaleJobs times out pending jobs whose booking hold has lapsed.
// It returns how many jobs were moved.
func (e *Engine) ExpireStaleJobs(ctx context.Context) (int, error) {
	stale, err := e.store.ListExpiredPending(ctx, e.now())
	if err != nil {
		return 0, fmt.Errorf("failed to list expired jobs: %w", err)
	}

	expired := 0
	for _, job := range stale {
		ok, err := e.store.UpdateStatus(ctx, job.ID, []domain.Status{domain.StatusPending}, domain.StatusTimedOut)
		if err != nil {
			return expired, fmt.Errorf("failed to time out job %s: %w", job.ID, err)
		}
		if !ok {
			// accepted or canceled since the listing
			continue
		}

		expired++
		job.Status = domain.StatusTimedOut
		job.TranslatorID = nil
		metrics.JobsExpiredTotal.Inc()
		e.notify(ctx, domain.EventJobExpired, job)
	}

	if expired > 0 {
		e.logger.Info("Expired stale jobs",
			slog.Int("count", expired),
		)
	}

	return expired, nil
}

// transition performs a conditional status change and returns the stored result
func (e *Engine) transition(ctx context.Context, job *domain.Job, from []domain.Status, to domain.Status) (*domain.Job, error) {
	ok, err := e.store.UpdateStatus(ctx, job.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to update job status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: job %s changed concurrently", domain.ErrConflict, job.ID)
	}

	metrics.JobsTransitionedTotal.WithLabelValues(string(to)).Inc()

	return e.GetJob(ctx, job.ID)
}
