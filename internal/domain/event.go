package domain

import "time"

// EventKind names a lifecycle transition handed to the notification gateway
type EventKind string

const (
	EventJobCreated   EventKind = "JobCreated"
	EventJobAccepted  EventKind = "JobAccepted"
	EventJobCanceled  EventKind = "JobCanceled"
	EventJobStarted   EventKind = "JobStarted"
	EventSessionEnded EventKind = "SessionEnded"
	EventJobExpired   EventKind = "JobExpired"
)

// RoutingKey returns the topic routing key an event is published under
func (k EventKind) RoutingKey() string {
	switch k {
	case EventJobCreated:
		return "job.created"
	case EventJobAccepted:
		return "job.accepted"
	case EventJobCanceled:
		return "job.canceled"
	case EventJobStarted:
		return "job.started"
	case EventSessionEnded:
		return "job.session_ended"
	case EventJobExpired:
		return "job.expired"
	default:
		return "job.unknown"
	}
}

// Event is the message published for every lifecycle transition
type Event struct {
	Kind       EventKind `json:"kind"`
	JobID      string    `json:"job_id"`
	Job        Job       `json:"job"`
	OccurredAt time.Time `json:"occurred_at"`
}
