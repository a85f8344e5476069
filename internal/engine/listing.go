package engine

import (
	"context"
	"fmt"

	"github.com/duaneandrea/digitalk-test/internal/classifier"
	"github.com/duaneandrea/digitalk-test/internal/domain"
)

// ListedJob is a normal-bucket job with the per-user usercheck flag
type ListedJob struct {
	*domain.Job
	UserCheck bool `json:"usercheck"`
}

// Listing is a user's current jobs split by urgency
type Listing struct {
	EmergencyJobs []*domain.Job
	NormalJobs    []ListedJob
	User          *domain.User
	Role          domain.Role
}

// HistoryPage is one page of a user's finished jobs
type HistoryPage struct {
	Jobs     []*domain.Job
	User     *domain.User
	Role     domain.Role
	Total    int
	NumPages int
	Page     int
}

// ListForUser returns the current jobs for a customer or the offered jobs for a translator
func (e *Engine) ListForUser(ctx context.Context, userID int64) (*Listing, error) {
	user, err := e.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var jobs []*domain.Job
	switch user.Role {
	case domain.RoleCustomer:
		page, err := e.store.QueryByUserAndStatus(ctx, JobQuery{
			CustomerID: user.ID,
			Statuses:   domain.ActiveStatuses,
			Order:      DueAscending,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list customer jobs: %w", err)
		}
		jobs = page.Jobs

	case domain.RoleTranslator:
		jobs, err = e.store.QueryOffered(ctx, user.ID, e.now())
		if err != nil {
			return nil, fmt.Errorf("failed to list offered jobs: %w", err)
		}

	case domain.RoleAdmin, domain.RoleSuperAdmin:
		return nil, fmt.Errorf("%w: role %s has no personal job listing", domain.ErrForbidden, user.Role)

	default:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrForbidden, user.Role)
	}

	emergency, normal := classifier.PartitionAndSort(jobs)

	listed := make([]ListedJob, len(normal))
	for i, job := range normal {
		listed[i] = ListedJob{Job: job, UserCheck: classifier.UserCheck(job, user)}
	}

	return &Listing{
		EmergencyJobs: emergency,
		NormalJobs:    listed,
		User:          user,
		Role:          user.Role,
	}, nil
}

// ListAll runs the administrative query. Callers check the capability first.
func (e *Engine) ListAll(ctx context.Context, q JobQuery) (*JobPage, error) {
	if q.Order == "" {
		q.Order = DueDescending
	}

	page, err := e.store.QueryByUserAndStatus(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return page, nil
}

// ListHistoryForUser returns a page of finished jobs for the user
func (e *Engine) ListHistoryForUser(ctx context.Context, userID int64, page int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}

	user, err := e.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var result *JobPage
	switch user.Role {
	case domain.RoleCustomer:
		result, err = e.store.QueryByUserAndStatus(ctx, JobQuery{
			CustomerID: user.ID,
			Statuses:   domain.HistoryStatuses,
			Order:      DueDescending,
			Page:       page,
			PageSize:   e.historyPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list customer history: %w", err)
		}

	case domain.RoleTranslator:
		result, err = e.store.QueryTranslatorHistory(ctx, user.ID, page, e.historyPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list translator history: %w", err)
		}

	case domain.RoleAdmin, domain.RoleSuperAdmin:
		return nil, fmt.Errorf("%w: role %s has no personal job history", domain.ErrForbidden, user.Role)

	default:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrForbidden, user.Role)
	}

	return &HistoryPage{
		Jobs:     result.Jobs,
		User:     user,
		Role:     user.Role,
		Total:    result.Total,
		NumPages: numPages(result.Total, e.historyPageSize),
		Page:     page,
	}, nil
}

func numPages(total, pageSize int) int {
	if total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
