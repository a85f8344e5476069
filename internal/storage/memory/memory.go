// Package memory is a process-local implementation of the booking stores.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/duaneandrea/digitalk-test/internal/domain"
	"github.com/duaneandrea/digitalk-test/internal/engine"
)

// Storage keeps jobs, distances and users in maps guarded by one mutex
type Storage struct {
	mu        sync.RWMutex
	jobs      map[string]*domain.Job
	order     []string
	distances map[string]*domain.Distance
	users     map[int64]*domain.User
	clock     func() time.Time
}

// NewStorage creates an empty Storage
func NewStorage() *Storage {
	return &Storage{
		jobs:      make(map[string]*domain.Job),
		distances: make(map[string]*domain.Distance),
		users:     make(map[int64]*domain.User),
		clock:     time.Now,
	}
}

// WithClock sets the clock used for updated_at stamps
func (s *Storage) WithClock(clock func() time.Time) *Storage {
	s.clock = clock
	return s
}

// PutUser adds or replaces a user
func (s *Storage) PutUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *u
	c.LanguageIDs = append([]int64(nil), u.LanguageIDs...)
	s.users[u.ID] = &c
}

// GetUser implements engine.UserDirectory
func (s *Storage) GetUser(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNoRecord
	}
	c := *u
	c.LanguageIDs = append([]int64(nil), u.LanguageIDs...)
	return &c, nil
}

func (s *Storage) Create(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.ID] = job.Clone()
	s.order = append(s.order, job.ID)
	return nil
}

func (s *Storage) Get(_ context.Context, id string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNoRecord
	}
	return job.Clone(), nil
}

func (s *Storage) QueryByUserAndStatus(_ context.Context, q engine.JobQuery) (*engine.JobPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.Job
	for _, id := range s.order {
		job := s.jobs[id]
		if q.CustomerID != 0 && job.CustomerID != q.CustomerID {
			continue
		}
		if len(q.Statuses) > 0 && !hasStatus(q.Statuses, job.Status) {
			continue
		}
		matched = append(matched, job.Clone())
	}

	sortByDue(matched, q.Order)
	return paginate(matched, q.Page, q.PageSize), nil
}

func (s *Storage) QueryOffered(_ context.Context, translatorID int64, now time.Time) ([]*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	translator, ok := s.users[translatorID]
	if !ok {
		return nil, domain.ErrNoRecord
	}

	offered := make([]*domain.Job, 0)
	for _, id := range s.order {
		job := s.jobs[id]
		if job.Status != domain.StatusPending || job.TranslatorID != nil {
			continue
		}
		if !job.ExpiresAt.IsZero() && job.ExpiresAt.Before(now) {
			continue
		}
		if !translator.SpeaksLanguage(job.FromLanguageID) {
			continue
		}
		offered = append(offered, job.Clone())
	}

	sortByDue(offered, engine.DueAscending)
	return offered, nil
}

func (s *Storage) QueryTranslatorHistory(_ context.Context, translatorID int64, page, pageSize int) (*engine.JobPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.Job
	for _, id := range s.order {
		job := s.jobs[id]
		if job.IsAssignedTo(translatorID) && job.Status.IsTerminal() {
			matched = append(matched, job.Clone())
		}
	}

	sortByDue(matched, engine.DueDescending)
	return paginate(matched, page, pageSize), nil
}

func (s *Storage) ConditionalAssign(_ context.Context, id string, translatorID int64, expected domain.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return false, domain.ErrNoRecord
	}
	if job.Status != expected || job.TranslatorID != nil {
		return false, nil
	}

	tid := translatorID
	job.TranslatorID = &tid
	job.Status = domain.StatusAssigned
	job.UpdatedAt = s.clock()
	return true, nil
}

func (s *Storage) UpdateStatus(_ context.Context, id string, from []domain.Status, to domain.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return false, domain.ErrNoRecord
	}
	if !hasStatus(from, job.Status) {
		return false, nil
	}

	job.Status = to
	if !to.KeepsAssignment() {
		job.TranslatorID = nil
	}
	job.UpdatedAt = s.clock()
	return true, nil
}

func (s *Storage) Update(_ context.Context, job *domain.Job, expected domain.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.jobs[job.ID]
	if !ok {
		return false, domain.ErrNoRecord
	}
	if stored.Status != expected {
		return false, nil
	}

	stored.FromLanguageID = job.FromLanguageID
	stored.Immediate = job.Immediate
	stored.Due = job.Due
	stored.ExpiresAt = job.ExpiresAt
	stored.Duration = job.Duration
	stored.UpdatedAt = job.UpdatedAt
	return true, nil
}

func (s *Storage) ListExpiredPending(_ context.Context, now time.Time) ([]*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expired []*domain.Job
	for _, id := range s.order {
		job := s.jobs[id]
		if job.Status == domain.StatusPending && !job.ExpiresAt.IsZero() && job.ExpiresAt.Before(now) {
			expired = append(expired, job.Clone())
		}
	}
	return expired, nil
}

func (s *Storage) UpsertDistance(_ context.Context, d *domain.Distance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *d
	s.distances[d.JobID] = &c
	return nil
}

func (s *Storage) GetDistance(_ context.Context, jobID string) (*domain.Distance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.distances[jobID]
	if !ok {
		return nil, domain.ErrNoRecord
	}
	c := *d
	return &c, nil
}

func hasStatus(set []domain.Status, s domain.Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func sortByDue(jobs []*domain.Job, order engine.SortOrder) {
	sort.SliceStable(jobs, func(i, j int) bool {
		if order == engine.DueDescending {
			return jobs[i].Due.After(jobs[j].Due)
		}
		return jobs[i].Due.Before(jobs[j].Due)
	})
}

func paginate(jobs []*domain.Job, page, pageSize int) *engine.JobPage {
	if jobs == nil {
		jobs = make([]*domain.Job, 0)
	}

	total := len(jobs)
	if pageSize <= 0 {
		return &engine.JobPage{Jobs: jobs, Total: total, Page: 1}
	}

	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &engine.JobPage{Jobs: jobs[start:end], Total: total, Page: page}
}

var (
	_ engine.JobStore      = (*Storage)(nil)
	_ engine.DistanceStore = (*Storage)(nil)
	_ engine.UserDirectory = (*Storage)(nil)
)
