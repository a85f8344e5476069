// Package notify delivers lifecycle events from the engine to the outside world.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/duaneandrea/digitalk-test/internal/domain"
	"github.com/duaneandrea/digitalk-test/internal/engine"
	"github.com/duaneandrea/digitalk-test/internal/metrics"
	"github.com/duaneandrea/digitalk-test/shared/rabbitmq"
	"github.com/google/uuid"
)

const (
	contentTypeJSON = "application/json"

	defaultPublishTimeout = 10 * time.Second
)

// Publisher is the broker side of the gateway
type Publisher interface {
	PublishWithRetry(ctx context.Context, msg rabbitmq.Message) error
}

// BrokerNotifier publishes lifecycle events to RabbitMQ in the background.
// Notify never waits on the broker; Close waits for in-flight publishes.
type BrokerNotifier struct {
	publisher Publisher
	logger    *slog.Logger
	clock     func() time.Time
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewBrokerNotifier creates a new BrokerNotifier instance
func NewBrokerNotifier(publisher Publisher, logger *slog.Logger, timeout time.Duration) *BrokerNotifier {
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &BrokerNotifier{
		publisher: publisher,
		logger:    logger,
		clock:     time.Now,
		timeout:   timeout,
	}
}

// Notify serialises the event and hands it to a background publish
func (n *BrokerNotifier) Notify(ctx context.Context, kind domain.EventKind, job *domain.Job) error {
	event := domain.Event{
		Kind:       kind,
		JobID:      job.ID,
		Job:        *job.Clone(),
		OccurredAt: n.clock().UTC(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		metrics.NotificationsPublishedTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := rabbitmq.Message{
		RoutingKey:  kind.RoutingKey(),
		MessageID:   uuid.New().String(),
		Type:        string(kind),
		ContentType: contentTypeJSON,
		Body:        body,
	}

	// the publish outlives the request that triggered it
	publishCtx := context.WithoutCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(publishCtx, n.timeout)
		defer cancel()

		if err := n.publisher.PublishWithRetry(ctx, msg); err != nil {
			metrics.NotificationsPublishedTotal.WithLabelValues("failed").Inc()
			n.logger.Error("Failed to publish lifecycle event",
				slog.String("event", string(kind)),
				slog.String("job_id", event.JobID),
				slog.String("routing_key", msg.RoutingKey),
				slog.Any("error", err),
			)
			return
		}

		metrics.NotificationsPublishedTotal.WithLabelValues("published").Inc()
		n.logger.Debug("Lifecycle event published",
			slog.String("event", string(kind)),
			slog.String("job_id", event.JobID),
			slog.String("message_id", msg.MessageID),
		)
	}()

	return nil
}

// Close waits for in-flight publishes or until ctx is done
func (n *BrokerNotifier) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to drain pending notifications: %w", ctx.Err())
	}
}

// LogNotifier writes lifecycle events to the log only.
// It backs the memory storage driver and local runs without a broker.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a new LogNotifier instance
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, kind domain.EventKind, job *domain.Job) error {
	n.logger.Info("Lifecycle event",
		slog.String("event", string(kind)),
		slog.String("job_id", job.ID),
		slog.String("status", string(job.Status)),
		slog.Int64("customer_id", job.CustomerID),
		slog.Bool("immediate", job.Immediate),
	)
	metrics.NotificationsPublishedTotal.WithLabelValues("logged").Inc()
	return nil
}

var (
	_ engine.Notifier = (*BrokerNotifier)(nil)
	_ engine.Notifier = (*LogNotifier)(nil)
)
