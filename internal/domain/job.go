package domain

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a booking
type Status string

// Job status constants
const (
	StatusPending          Status = "pending"
	StatusAssigned         Status = "assigned"
	StatusStarted          Status = "started"
	StatusCompleted        Status = "completed"
	StatusWithdrawBefore24 Status = "withdrawbefore24"
	StatusWithdrawAfter24  Status = "withdrawafter24"
	StatusTimedOut         Status = "timedout"
)

// ActiveStatuses are the states listed as a customer's current jobs
var ActiveStatuses = []Status{StatusPending, StatusAssigned, StatusStarted}

// HistoryStatuses are the terminal states kept for history
var HistoryStatuses = []Status{StatusCompleted, StatusWithdrawBefore24, StatusWithdrawAfter24, StatusTimedOut}

// IsTerminal reports whether no further transition is possible from s
func (s Status) IsTerminal() bool {
	for _, h := range HistoryStatuses {
		if s == h {
			return true
		}
	}
	return false
}

// KeepsAssignment reports whether a job in status s still holds its translator
func (s Status) KeepsAssignment() bool {
	return s == StatusAssigned || s == StatusStarted || s == StatusCompleted
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusStarted, StatusCompleted,
		StatusWithdrawBefore24, StatusWithdrawAfter24, StatusTimedOut:
		return true
	}
	return false
}

// Category is the urgency bucket a job is listed under
type Category string

const (
	CategoryEmergency Category = "emergency"
	CategoryNormal    Category = "normal"
)

// Job is a booking linking a customer to at most one translator
type Job struct {
	ID             string    `json:"id"`
	CustomerID     int64     `json:"customer_id"`
	TranslatorID   *int64    `json:"translator_id,omitempty"`
	FromLanguageID int64     `json:"from_language_id"`
	Immediate      bool      `json:"immediate"`
	Due            time.Time `json:"due"`
	ExpiresAt      time.Time `json:"expires_at"`
	Duration       int       `json:"duration,omitempty"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// String returns a string representation of the job
func (j *Job) String() string {
	return fmt.Sprintf("Job{ID: %s, Customer: %d, Status: %s, Immediate: %t}",
		j.ID, j.CustomerID, j.Status, j.Immediate)
}

// IsAssignedTo reports whether translatorID holds the assignment
func (j *Job) IsAssignedTo(translatorID int64) bool {
	return j.TranslatorID != nil && *j.TranslatorID == translatorID
}

// Clone returns a deep copy so callers can't alias the translator pointer
func (j *Job) Clone() *Job {
	c := *j
	if j.TranslatorID != nil {
		id := *j.TranslatorID
		c.TranslatorID = &id
	}
	return &c
}

// Distance is the proximity record kept per job
type Distance struct {
	JobID     string    `json:"job_id"`
	Distance  float64   `json:"distance"`
	UpdatedAt time.Time `json:"updated_at"`
}
