package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	booking "github.com/duaneandrea/digitalk-test/internal/domain"
	"github.com/duaneandrea/digitalk-test/internal/worker/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// setupConsumer sets QoS and returns the delivery channel
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	if err := w.source.Qos(w.prefetchCount); err != nil {
		return nil, fmt.Errorf("failed to configure consumer: %w", err)
	}

	deliveries, err := w.source.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("RabbitMQ consumer started",
		slog.Int("prefetch_count", w.prefetchCount),
	)

	return deliveries, nil
}

// decodeEvent parses a delivery body into a lifecycle event
func decodeEvent(body []byte) (booking.Event, error) {
	var event booking.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("%w: %v", domain.ErrInvalidEvent, err)
	}
	if event.Kind == "" || event.JobID == "" {
		return event, fmt.Errorf("%w: missing kind or job_id", domain.ErrInvalidEvent)
	}
	return event, nil
}

// startMessageDispatcher decodes deliveries and hands them to the worker pool
func (w *Worker) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			event, err := decodeEvent(delivery.Body)
			if err != nil {
				w.logger.Error("Dropping malformed message",
					slog.Any("error", err),
					slog.String("message_id", delivery.MessageId),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed message", slog.Any("error", nackErr))
				}
				continue
			}

			select {
			case w.eventsChan <- &eventMessage{event: event, delivery: delivery}:
				w.logger.Debug("Event dispatched to worker pool",
					slog.String("event", string(event.Kind)),
					slog.String("job_id", event.JobID),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK message on shutdown", slog.Any("error", nackErr))
				}
				return
			}
		}
	}
}
