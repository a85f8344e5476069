package engine

import (
	"context"
	"time"

	"github.com/duaneandrea/digitalk-test/internal/domain"
)

// SortOrder orders query results by due time
type SortOrder string

const (
	DueAscending  SortOrder = "due_asc"
	DueDescending SortOrder = "due_desc"
)

// JobQuery selects jobs by owner and status set.
// CustomerID 0 matches every customer; PageSize 0 disables paging.
type JobQuery struct {
	CustomerID int64
	Statuses   []domain.Status
	Order      SortOrder
	Page       int
	PageSize   int
}

// JobPage is one page of a query result
type JobPage struct {
	Jobs  []*domain.Job
	Total int
	Page  int
}

// JobStore is the durable home of job records.
// Missing rows are reported with domain.ErrNoRecord.
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, id string) (*domain.Job, error)
	QueryByUserAndStatus(ctx context.Context, q JobQuery) (*JobPage, error)

	// QueryOffered returns pending, unclaimed, unexpired jobs matching the translator's languages
	QueryOffered(ctx context.Context, translatorID int64, now time.Time) ([]*domain.Job, error)
	QueryTranslatorHistory(ctx context.Context, translatorID int64, page, pageSize int) (*JobPage, error)

	// ConditionalAssign sets the translator and moves the job to assigned only if it is
	// still in expected status with no translator. It reports whether the update happened.
	ConditionalAssign(ctx context.Context, id string, translatorID int64, expected domain.Status) (bool, error)

	// UpdateStatus moves the job to `to` only if its current status is one of `from`.
	// Statuses that don't keep the assignment clear the translator.
	UpdateStatus(ctx context.Context, id string, from []domain.Status, to domain.Status) (bool, error)

	// Update persists the mutable attributes of a job only if it is still in expected status.
	// It reports whether the update happened.
	Update(ctx context.Context, job *domain.Job, expected domain.Status) (bool, error)

	ListExpiredPending(ctx context.Context, now time.Time) ([]*domain.Job, error)
}

// DistanceStore keeps one proximity record per job
type DistanceStore interface {
	UpsertDistance(ctx context.Context, d *domain.Distance) error
	GetDistance(ctx context.Context, jobID string) (*domain.Distance, error)
}

// UserDirectory resolves booking participants
type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

// Notifier is told about every lifecycle transition.
// Implementations must not block the caller on delivery.
type Notifier interface {
	Notify(ctx context.Context, kind domain.EventKind, job *domain.Job) error
}
