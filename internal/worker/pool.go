package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/duaneandrea/digitalk-test/internal/worker/domain"
)

// workerLoop processes events until the channel closes or ctx is canceled
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Debug("Worker goroutine started", slog.String("worker_name", workerName))

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-w.eventsChan:
			if !ok {
				return
			}
			w.handle(ctx, workerName, msg)
		}
	}
}

// handle processes one message and settles its delivery.
// Processing is detached from ctx so a shutdown does not cut a send in half.
func (w *Worker) handle(ctx context.Context, workerName string, msg *eventMessage) {
	procCtx := context.WithoutCancel(ctx)
	if w.eventTimeout > 0 {
		var cancel context.CancelFunc
		procCtx, cancel = context.WithTimeout(procCtx, w.eventTimeout)
		defer cancel()
	}

	log := w.logger.With(
		slog.String("worker_name", workerName),
		slog.String("event", string(msg.event.Kind)),
		slog.String("job_id", msg.event.JobID),
	)

	if err := w.processor.Process(procCtx, msg.event); err != nil {
		requeue := ShouldRequeue(err)
		log.Error("Event processing failed",
			slog.Any("error", err),
			slog.Bool("requeue", requeue),
		)
		if nackErr := msg.delivery.Nack(false, requeue); nackErr != nil {
			log.Error("Failed to NACK message", slog.Any("error", nackErr))
		}
		return
	}

	if ackErr := msg.delivery.Ack(false); ackErr != nil {
		log.Error("Failed to ACK message", slog.Any("error", ackErr))
	}
}

// ShouldRequeue reports whether a failed event is worth redelivering
func ShouldRequeue(err error) bool {
	var retryable *domain.RetryableError
	return errors.As(err, &retryable)
}
