package domain

import booking "github.com/duaneandrea/digitalk-test/internal/domain"

// Channel is a delivery medium for a notification
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Notification is one message to one recipient over one channel
type Notification struct {
	Channel   Channel
	Recipient int64
	Address   string
	Kind      booking.EventKind
	JobID     string
	Text      string
}
