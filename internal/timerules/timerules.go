// Package timerules computes due times and booking-hold deadlines.
// Everything here is pure: callers supply the current time.
package timerules

import (
	"fmt"
	"strings"
	"time"

	"github.com/duaneandrea/digitalk-test/internal/domain"
)

const (
	// ImmediateLeadTime is the dispatch window added to "now" for immediate jobs
	ImmediateLeadTime = 5 * time.Minute

	// WithdrawalWindow separates an early withdrawal from a late one
	WithdrawalWindow = 24 * time.Hour

	shortGap  = 90 * time.Minute
	mediumGap = 24 * time.Hour
	longGap   = 72 * time.Hour
)

var (
	dateTimeLayouts = []string{"2/1/2006 15:04", "2/1/2006 15:04:05", "2/1/2006"}
	timeLayouts     = []string{"15:04", "15:04:05"}
)

// NormalizeDue returns the absolute due time for a booking request.
// Immediate jobs ignore dateText and timeText.
func NormalizeDue(immediate bool, dateText, timeText string, now time.Time) (time.Time, error) {
	if immediate {
		return now.Add(ImmediateLeadTime), nil
	}

	dateText = strings.TrimSpace(dateText)
	if dateText == "" {
		return time.Time{}, fmt.Errorf("%w: due date is required for scheduled jobs", domain.ErrInvalidInput)
	}

	due, err := parseDate(dateText, now.Location())
	if err != nil {
		return time.Time{}, err
	}

	if timeText = strings.TrimSpace(timeText); timeText != "" {
		due, err = overrideTimeOfDay(due, timeText)
		if err != nil {
			return time.Time{}, err
		}
	}

	if due.Before(now) {
		return time.Time{}, fmt.Errorf("%w: due %s is in the past", domain.ErrInvalidInput, due.Format(time.DateTime))
	}

	return due, nil
}

func parseDate(text string, loc *time.Location) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: due date %q is not in d/m/Y H:i form", domain.ErrInvalidInput, text)
}

func overrideTimeOfDay(date time.Time, text string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return time.Date(date.Year(), date.Month(), date.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, date.Location()), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: due time %q is not in H:i form", domain.ErrInvalidInput, text)
}

// WillExpireAt returns when an unaccepted booking hold lapses.
// The result is never later than due.
func WillExpireAt(due, createdAt time.Time) time.Time {
	gap := due.Sub(createdAt)

	switch {
	case gap <= 0:
		return due
	case gap <= shortGap:
		return createdAt.Add(gap * 9 / 10)
	case gap <= mediumGap:
		return due.Add(-shortGap)
	case gap <= longGap:
		return due.Add(-16 * time.Hour)
	default:
		return due.Add(-48 * time.Hour)
	}
}

// WithdrawalStatus picks the terminal state for a cancellation made at now
func WithdrawalStatus(due, now time.Time) domain.Status {
	if due.Sub(now) >= WithdrawalWindow {
		return domain.StatusWithdrawBefore24
	}
	return domain.StatusWithdrawAfter24
}
