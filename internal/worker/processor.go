package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	booking "github.com/duaneandrea/digitalk-test/internal/domain"
	"github.com/duaneandrea/digitalk-test/internal/engine"
	"github.com/duaneandrea/digitalk-test/internal/metrics"
	"github.com/duaneandrea/digitalk-test/internal/worker/domain"
)

// Sender delivers a single notification
type Sender interface {
	Send(ctx context.Context, n domain.Notification) error
}

var templates = map[booking.EventKind]string{
	booking.EventJobCreated:   "Your booking %s has been received",
	booking.EventJobAccepted:  "A translator has accepted booking %s",
	booking.EventJobCanceled:  "Booking %s has been canceled",
	booking.EventJobStarted:   "The session for booking %s has started",
	booking.EventSessionEnded: "The session for booking %s has ended",
	booking.EventJobExpired:   "No translator accepted booking %s in time",
}

// Processor turns lifecycle events into notifications
type Processor struct {
	logger *slog.Logger
	users  engine.UserDirectory
	sender Sender
}

// NewProcessor creates a processor
func NewProcessor(logger *slog.Logger, users engine.UserDirectory, sender Sender) *Processor {
	return &Processor{
		logger: logger,
		users:  users,
		sender: sender,
	}
}

// Process resolves the recipients of an event and sends one notification per channel.
// Email is always sent; immediate bookings also go out by SMS when a phone is on file.
func (p *Processor) Process(ctx context.Context, event booking.Event) error {
	start := time.Now()
	defer func() {
		metrics.NotificationProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	template, ok := templates[event.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownEvent, event.Kind)
	}

	recipients, err := p.recipients(ctx, event)
	if err != nil {
		return err
	}

	text := fmt.Sprintf(template, event.JobID)
	for _, user := range recipients {
		for _, n := range p.notifications(event, user, text) {
			if err := p.sender.Send(ctx, n); err != nil {
				return domain.NewRetryableError(fmt.Errorf("failed to send %s notification to user %d: %w", n.Channel, n.Recipient, err))
			}
			metrics.NotificationsDeliveredTotal.WithLabelValues(string(n.Channel)).Inc()
		}
	}

	p.logger.Info("Event processed",
		slog.String("event", string(event.Kind)),
		slog.String("job_id", event.JobID),
		slog.Int("recipients", len(recipients)),
	)

	return nil
}

// recipients returns the customer, plus the translator when a cancellation releases one
func (p *Processor) recipients(ctx context.Context, event booking.Event) ([]*booking.User, error) {
	ids := []int64{event.Job.CustomerID}
	if event.Kind == booking.EventJobCanceled && event.Job.TranslatorID != nil {
		ids = append(ids, *event.Job.TranslatorID)
	}

	users := make([]*booking.User, 0, len(ids))
	for _, id := range ids {
		user, err := p.users.GetUser(ctx, id)
		if err != nil {
			if errors.Is(err, booking.ErrNoRecord) {
				return nil, fmt.Errorf("%w: user %d", domain.ErrRecipientNotFound, id)
			}
			return nil, domain.NewRetryableError(fmt.Errorf("failed to resolve user %d: %w", id, err))
		}
		users = append(users, user)
	}
	return users, nil
}

func (p *Processor) notifications(event booking.Event, user *booking.User, text string) []domain.Notification {
	out := []domain.Notification{{
		Channel:   domain.ChannelEmail,
		Recipient: user.ID,
		Address:   user.Email,
		Kind:      event.Kind,
		JobID:     event.JobID,
		Text:      text,
	}}

	if event.Job.Immediate && user.Phone != "" {
		out = append(out, domain.Notification{
			Channel:   domain.ChannelSMS,
			Recipient: user.ID,
			Address:   user.Phone,
			Kind:      event.Kind,
			JobID:     event.JobID,
			Text:      text,
		})
	}
	return out
}

// LogSender writes notifications to the structured log
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that only logs
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, n domain.Notification) error {
	s.logger.Info("Notification sent",
		slog.String("channel", string(n.Channel)),
		slog.Int64("recipient", n.Recipient),
		slog.String("address", n.Address),
		slog.String("event", string(n.Kind)),
		slog.String("job_id", n.JobID),
		slog.String("text", n.Text),
	)
	return nil
}
