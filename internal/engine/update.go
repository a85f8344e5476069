package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/duaneandrea/digitalk-test/internal/domain"
	"github.com/duaneandrea/digitalk-test/internal/timerules"
)

// UpdateJobInput patches the mutable attributes of a job; nil fields are left alone
type UpdateJobInput struct {
	FromLanguageID *int64
	Immediate      *bool
	DueDate        *string
	DueTime        *string
	Duration       *int
}

func (in UpdateJobInput) touchesTiming() bool {
	return in.Immediate != nil || in.DueDate != nil || in.DueTime != nil
}

// UpdateJob applies a patch from the owning customer to a job that is not yet finished.
// The write only lands if the job is still in the status it was read in.
func (e *Engine) UpdateJob(ctx context.Context, jobID string, actingUserID int64, in UpdateJobInput) (*domain.Job, error) {
	job, err := e.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.CustomerID != actingUserID {
		return nil, fmt.Errorf("%w: only the booking customer can update job %s", domain.ErrForbidden, jobID)
	}
	if job.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: job is %s", domain.ErrConflict, job.Status)
	}

	if in.FromLanguageID != nil {
		if *in.FromLanguageID <= 0 {
			return nil, domain.NewValidationError("from_language_id", "all fields are required")
		}
		if *in.FromLanguageID != job.FromLanguageID && job.TranslatorID != nil {
			if err := e.checkCoverage(ctx, job, *in.FromLanguageID); err != nil {
				return nil, err
			}
		}
		job.FromLanguageID = *in.FromLanguageID
	}

	if in.Duration != nil {
		if *in.Duration < 0 {
			return nil, domain.NewValidationError("duration", "must not be negative")
		}
		job.Duration = *in.Duration
	}

	now := e.now()
	if in.touchesTiming() {
		immediate := job.Immediate
		if in.Immediate != nil {
			immediate = *in.Immediate
		}

		var dateText, timeText string
		if in.DueDate != nil {
			dateText = *in.DueDate
		}
		if in.DueTime != nil {
			timeText = *in.DueTime
		}

		if !immediate && dateText == "" {
			// keep the stored date and only move the time of day
			dateText = job.Due.In(now.Location()).Format("2/1/2006 15:04")
		}

		due, err := timerules.NormalizeDue(immediate, dateText, timeText, now)
		if err != nil {
			return nil, err
		}

		job.Immediate = immediate
		job.Due = due
		job.ExpiresAt = timerules.WillExpireAt(due, now)
	}

	job.UpdatedAt = now

	ok, err := e.store.Update(ctx, job, job.Status)
	if err != nil {
		return nil, e.translateStoreError(err, "job", jobID)
	}
	if !ok {
		return nil, fmt.Errorf("%w: job %s changed concurrently", domain.ErrConflict, jobID)
	}

	e.logger.Info("Job updated",
		slog.String("job_id", jobID),
		slog.Int64("acting_user_id", actingUserID),
		slog.Bool("timing_changed", in.touchesTiming()),
	)

	return e.GetJob(ctx, jobID)
}

// checkCoverage rejects a language change the assigned translator cannot serve
func (e *Engine) checkCoverage(ctx context.Context, job *domain.Job, languageID int64) error {
	translator, err := e.getUser(ctx, *job.TranslatorID)
	if err != nil {
		return err
	}
	if !translator.SpeaksLanguage(languageID) {
		return fmt.Errorf("%w: assigned translator %d does not cover language %d", domain.ErrConflict, translator.ID, languageID)
	}
	return nil
}
