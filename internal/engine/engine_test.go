package engine_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/duaneandrea/digitalk-test/internal/domain"
	"github.com/duaneandrea/digitalk-test/internal/engine"
	"github.com/duaneandrea/digitalk-test/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	customerID    int64 = 1
	otherCustomer int64 = 2
	translatorA   int64 = 7
	translatorB   int64 = 8
	adminID       int64 = 99
	swedish       int64 = 3
)

type recordedEvent struct {
	kind domain.EventKind
	job  domain.Job
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, kind domain.EventKind, job *domain.Job) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{kind: kind, job: *job})
	return n.err
}

func (n *recordingNotifier) kinds() []domain.EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]domain.EventKind, len(n.events))
	for i, e := range n.events {
		kinds[i] = e.kind
	}
	return kinds
}

func (n *recordingNotifier) last() recordedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.events[len(n.events)-1]
}

type fixture struct {
	engine   *engine.Engine
	store    *memory.Storage
	notifier *recordingNotifier
	now      time.Time
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		now:      time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC),
		notifier: &recordingNotifier{},
	}
	clock := func() time.Time { return f.now }

	f.store = memory.NewStorage().WithClock(clock)
	f.store.PutUser(&domain.User{ID: customerID, Role: domain.RoleCustomer, Name: "Customer"})
	f.store.PutUser(&domain.User{ID: otherCustomer, Role: domain.RoleCustomer, Name: "Other"})
	f.store.PutUser(&domain.User{ID: translatorA, Role: domain.RoleTranslator, LanguageIDs: []int64{swedish}})
	f.store.PutUser(&domain.User{ID: translatorB, Role: domain.RoleTranslator, LanguageIDs: []int64{swedish}})
	f.store.PutUser(&domain.User{ID: adminID, Role: domain.RoleAdmin})

	f.engine = engine.NewEngine(&engine.Config{
		Logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Store:    f.store,
		Users:    f.store,
		Notifier: f.notifier,
		Clock:    clock,
		Location: time.UTC,
	})

	return f
}

func (f *fixture) createScheduled(t *testing.T, date, tm string) *domain.Job {
	t.Helper()
	job, err := f.engine.CreateJob(context.Background(), customerID, engine.CreateJobInput{
		FromLanguageID: swedish,
		DueDate:        date,
		DueTime:        tm,
	})
	require.NoError(t, err)
	return job
}

func (f *fixture) createImmediate(t *testing.T) *domain.Job {
	t.Helper()
	job, err := f.engine.CreateJob(context.Background(), customerID, engine.CreateJobInput{
		FromLanguageID: swedish,
		Immediate:      true,
	})
	require.NoError(t, err)
	return job
}

func TestCreateJob_Scheduled(t *testing.T) {
	f := newFixture(t)

	job := f.createScheduled(t, "25/12/2025", "14:30")

	assert.Equal(t, time.Date(2025, 12, 25, 14, 30, 0, 0, time.UTC), job.Due)
	assert.Equal(t, domain.StatusPending, job.Status)
	assert.Equal(t, customerID, job.CustomerID)
	assert.Nil(t, job.TranslatorID)
	assert.False(t, job.Immediate)
	assert.Equal(t, job.Due.Add(-48*time.Hour), job.ExpiresAt)
	assert.Equal(t, []domain.EventKind{domain.EventJobCreated}, f.notifier.kinds())
}

func TestCreateJob_ImmediateIgnoresSuppliedTiming(t *testing.T) {
	f := newFixture(t)

	job, err := f.engine.CreateJob(context.Background(), customerID, engine.CreateJobInput{
		FromLanguageID: swedish,
		Immediate:      true,
		DueDate:        "25/12/2025",
		DueTime:        "14:30",
	})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 1, 1, 10, 5, 0, 0, time.UTC), job.Due)
	assert.True(t, job.Immediate)
}

func TestCreateJob_Errors(t *testing.T) {
	tests := []struct {
		name      string
		userID    int64
		input     engine.CreateJobInput
		wantErr   error
		wantField string
	}{
		{
			name:      "missing language",
			userID:    customerID,
			input:     engine.CreateJobInput{Immediate: true},
			wantErr:   domain.ErrValidation,
			wantField: "from_language_id",
		},
		{
			name:      "scheduled without date",
			userID:    customerID,
			input:     engine.CreateJobInput{FromLanguageID: swedish, DueTime: "14:30"},
			wantErr:   domain.ErrValidation,
			wantField: "due_date",
		},
		{
			name:    "unparsable date",
			userID:  customerID,
			input:   engine.CreateJobInput{FromLanguageID: swedish, DueDate: "Christmas"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "date in the past",
			userID:  customerID,
			input:   engine.CreateJobInput{FromLanguageID: swedish, DueDate: "31/12/2024 23:00"},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "translators cannot book",
			userID:  translatorA,
			input:   engine.CreateJobInput{FromLanguageID: swedish, Immediate: true},
			wantErr: domain.ErrForbidden,
		},
		{
			name:    "unknown user",
			userID:  12345,
			input:   engine.CreateJobInput{FromLanguageID: swedish, Immediate: true},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			job, err := f.engine.CreateJob(context.Background(), tt.userID, tt.input)
			require.Error(t, err)
			assert.Nil(t, job)
			assert.ErrorIs(t, err, tt.wantErr)

			if tt.wantField != "" {
				var verr *domain.ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, tt.wantField, verr.Field)
			}

			assert.Empty(t, f.notifier.kinds())
		})
	}
}

func TestCreateJob_NotifierFailureDoesNotFailCreation(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("broker down")

	job := f.createImmediate(t)

	stored, err := f.engine.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
}

func TestCreateThenGet_RoundTrip(t *testing.T) {
	f := newFixture(t)

	created := f.createImmediate(t)
	fetched, err := f.engine.GetJob(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.FromLanguageID, fetched.FromLanguageID)
	assert.Equal(t, created.Immediate, fetched.Immediate)
	assert.Equal(t, f.now.Add(5*time.Minute), fetched.Due)
}

func TestGetJob_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListForUser_Customer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	late := f.createScheduled(t, "20/01/2025", "09:00")
	early := f.createScheduled(t, "10/01/2025", "09:00")
	urgent := f.createImmediate(t)
	finished := f.createScheduled(t, "15/01/2025", "09:00")
	_, err := f.engine.CancelJob(ctx, finished.ID, customerID)
	require.NoError(t, err)

	listing, err := f.engine.ListForUser(ctx, customerID)
	require.NoError(t, err)

	assert.Equal(t, domain.RoleCustomer, listing.Role)
	require.Len(t, listing.EmergencyJobs, 1)
	assert.Equal(t, urgent.ID, listing.EmergencyJobs[0].ID)

	require.Len(t, listing.NormalJobs, 2)
	assert.Equal(t, early.ID, listing.NormalJobs[0].ID)
	assert.Equal(t, late.ID, listing.NormalJobs[1].ID)
	assert.True(t, listing.NormalJobs[0].UserCheck)
}

func TestListForUser_Translator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	offered := f.createScheduled(t, "10/01/2025", "09:00")
	urgent := f.createImmediate(t)
	taken := f.createScheduled(t, "11/01/2025", "09:00")
	_, err := f.engine.AcceptJob(ctx, taken.ID, translatorB)
	require.NoError(t, err)

	_, err = f.engine.CreateJob(ctx, customerID, engine.CreateJobInput{FromLanguageID: 42, DueDate: "12/01/2025 09:00"})
	require.NoError(t, err)

	listing, err := f.engine.ListForUser(ctx, translatorA)
	require.NoError(t, err)

	assert.Equal(t, domain.RoleTranslator, listing.Role)
	require.Len(t, listing.EmergencyJobs, 1)
	assert.Equal(t, urgent.ID, listing.EmergencyJobs[0].ID)
	require.Len(t, listing.NormalJobs, 1)
	assert.Equal(t, offered.ID, listing.NormalJobs[0].ID)
	assert.True(t, listing.NormalJobs[0].UserCheck)
}

func TestListForUser_AdminHasNoPersonalListing(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.ListForUser(context.Background(), adminID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListAll(t *testing.T) {
	f := newFixture(t)
	f.createImmediate(t)
	f.createScheduled(t, "10/01/2025", "09:00")

	page, err := f.engine.ListAll(context.Background(), engine.JobQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Jobs, 2)
	assert.True(t, page.Jobs[0].Due.After(page.Jobs[1].Due))
}

func TestListHistoryForUser_Customer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 17; i++ {
		job := f.createImmediate(t)
		_, err := f.engine.CancelJob(ctx, job.ID, customerID)
		require.NoError(t, err)
	}

	first, err := f.engine.ListHistoryForUser(ctx, customerID, 1)
	require.NoError(t, err)
	assert.Equal(t, 17, first.Total)
	assert.Equal(t, 2, first.NumPages)
	assert.Len(t, first.Jobs, 15)

	second, err := f.engine.ListHistoryForUser(ctx, customerID, 2)
	require.NoError(t, err)
	assert.Len(t, second.Jobs, 2)
	assert.Equal(t, 2, second.Page)
}

func TestListHistoryForUser_Translator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.createImmediate(t)
	_, err := f.engine.AcceptJob(ctx, job.ID, translatorA)
	require.NoError(t, err)
	_, err = f.engine.CompleteJob(ctx, job.ID, translatorA)
	require.NoError(t, err)

	history, err := f.engine.ListHistoryForUser(ctx, translatorA, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, history.Page)
	assert.Equal(t, 1, history.NumPages)
	require.Len(t, history.Jobs, 1)
	assert.Equal(t, domain.StatusCompleted, history.Jobs[0].Status)

	empty, err := f.engine.ListHistoryForUser(ctx, translatorB, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.NumPages)
	assert.Empty(t, empty.Jobs)
}

func TestAcceptJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.createScheduled(t, "10/01/2025", "09:00")

	accepted, err := f.engine.AcceptJob(ctx, job.ID, translatorA)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusAssigned, accepted.Status)
	require.NotNil(t, accepted.TranslatorID)
	assert.Equal(t, translatorA, *accepted.TranslatorID)
	assert.Equal(t, []domain.EventKind{domain.EventJobCreated, domain.EventJobAccepted}, f.notifier.kinds())

	_, err = f.engine.AcceptJob(ctx, job.ID, translatorB)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.engine.AcceptJob(ctx, job.ID, translatorA)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAcceptJob_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.createScheduled(t, "10/01/2025", "09:00")

	_, err := f.engine.AcceptJob(ctx, "missing", translatorA)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.engine.AcceptJob(ctx, job.ID, otherCustomer)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	f.store.PutUser(&domain.User{ID: 50, Role: domain.RoleTranslator, LanguageIDs: []int64{42}})
	_, err = f.engine.AcceptJob(ctx, job.ID, 50)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAcceptJob_HoldExpired(t *testing.T) {
	f := newFixture(t)
	job := f.createImmediate(t)

	// immediate jobs hold for 90% of the five minute lead
	f.advance(5 * time.Minute)

	_, err := f.engine.AcceptJob(context.Background(), job.ID, translatorA)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAcceptJob_ConcurrentAcceptsHaveOneWinner(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFixture(t)
		job := f.createScheduled(t, "10/01/2025", "09:00")

		var wg sync.WaitGroup
		results := make([]error, 2)
		for i, tid := range []int64{translatorA, translatorB} {
			wg.Add(1)
			go func(i int, tid int64) {
				defer wg.Done()
				_, results[i] = f.engine.AcceptJob(context.Background(), job.ID, tid)
			}(i, tid)
		}
		wg.Wait()

		successes, conflicts := 0, 0
		winner := int64(0)
		for i, err := range results {
			switch {
			case err == nil:
				successes++
				winner = []int64{translatorA, translatorB}[i]
			case errors.Is(err, domain.ErrConflict):
				conflicts++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		require.Equal(t, 1, successes)
		require.Equal(t, 1, conflicts)

		stored, err := f.engine.GetJob(context.Background(), job.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.TranslatorID)
		assert.Equal(t, winner, *stored.TranslatorID)
	}
}

func TestCancelJob(t *testing.T) {
	tests := []struct {
		name       string
		date       string
		accept     bool
		actor      int64
		wantStatus domain.Status
	}{
		{name: "customer cancels early", date: "10/01/2025 09:00", actor: customerID, wantStatus: domain.StatusWithdrawBefore24},
		{name: "customer cancels late", date: "01/01/2025 20:00", actor: customerID, wantStatus: domain.StatusWithdrawAfter24},
		{name: "translator cancels assigned job", date: "10/01/2025 09:00", accept: true, actor: translatorA, wantStatus: domain.StatusWithdrawBefore24},
		{name: "customer cancels assigned job late", date: "01/01/2025 20:00", accept: true, actor: customerID, wantStatus: domain.StatusWithdrawAfter24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			job := f.createScheduled(t, tt.date, "")

			if tt.accept {
				_, err := f.engine.AcceptJob(ctx, job.ID, translatorA)
				require.NoError(t, err)
			}

			canceled, err := f.engine.CancelJob(ctx, job.ID, tt.actor)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, canceled.Status)
			assert.Nil(t, canceled.TranslatorID)

			event := f.notifier.last()
			assert.Equal(t, domain.EventJobCanceled, event.kind)
			assert.Equal(t, tt.wantStatus, event.job.Status)
			if tt.accept {
				require.NotNil(t, event.job.TranslatorID)
				assert.Equal(t, translatorA, *event.job.TranslatorID)
			} else {
				assert.Nil(t, event.job.TranslatorID)
			}
		})
	}
}

func TestCancelJob_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.createScheduled(t, "10/01/2025", "09:00")

	_, err := f.engine.CancelJob(ctx, "missing", customerID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.engine.CancelJob(ctx, job.ID, otherCustomer)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.engine.CancelJob(ctx, job.ID, translatorA)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.engine.CancelJob(ctx, job.ID, customerID)
	require.NoError(t, err)

	_, err = f.engine.CancelJob(ctx, job.ID, customerID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.engine.AcceptJob(ctx, job.ID, translatorA)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStartAndCompleteJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.createScheduled(t, "10/01/2025", "09:00")

	_, err := f.engine.StartJob(ctx, job.ID, translatorA)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.engine.AcceptJob(ctx, job.ID, translatorA)
	require.NoError(t, err)

	started, err := f.engine.StartJob(ctx, job.ID, translatorA)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStarted, started.Status)

	_, err = f.engine.CancelJob(ctx, job.ID, customerID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	completed, err := f.engine.CompleteJob(ctx, job.ID, customerID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, completed.Status)
	require.NotNil(t, completed.TranslatorID)
	assert.Equal(t, translatorA, *completed.TranslatorID)

	assert.Equal(t, []domain.EventKind{
		domain.EventJobCreated,
		domain.EventJobAccepted,
		domain.EventJobStarted,
		domain.EventSessionEnded,
	}, f.notifier.kinds())

	_, err = f.engine.CompleteJob(ctx, job.ID, customerID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdateJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.createScheduled(t, "10/01/2025", "09:00")

	newTime := "16:45"
	lang := int64(5)
	updated, err := f.engine.UpdateJob(ctx, job.ID, customerID, engine.UpdateJobInput{
		DueTime:        &newTime,
		FromLanguageID: &lang,
	})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 1, 10, 16, 45, 0, 0, time.UTC), updated.Due)
	assert.Equal(t, lang, updated.FromLanguageID)
	assert.Equal(t, job.ID, updated.ID)
	assert.Equal(t, job.CreatedAt, updated.CreatedAt)

	stored, err := f.engine.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Due, stored.Due)
	assert.Equal(t, updated.ExpiresAt, stored.ExpiresAt)

	immediate := true
	updated, err = f.engine.UpdateJob(ctx, job.ID, customerID, engine.UpdateJobInput{Immediate: &immediate})
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(5*time.Minute), updated.Due)
	assert.True(t, updated.Immediate)
}

func TestUpdateJob_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.createScheduled(t, "10/01/2025", "09:00")

	past := "01/12/2024 10:00"
	_, err := f.engine.UpdateJob(ctx, job.ID, customerID, engine.UpdateJobInput{DueDate: &past})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	zero := int64(0)
	_, err = f.engine.UpdateJob(ctx, job.ID, customerID, engine.UpdateJobInput{FromLanguageID: &zero})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.engine.UpdateJob(ctx, job.ID, otherCustomer, engine.UpdateJobInput{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.engine.CancelJob(ctx, job.ID, customerID)
	require.NoError(t, err)

	_, err = f.engine.UpdateJob(ctx, job.ID, customerID, engine.UpdateJobInput{})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// withdrawingStore cancels the job just before the patch is written
type withdrawingStore struct {
	*memory.Storage
}

func (s withdrawingStore) Update(ctx context.Context, job *domain.Job, expected domain.Status) (bool, error) {
	if _, err := s.UpdateStatus(ctx, job.ID, domain.ActiveStatuses, domain.StatusWithdrawBefore24); err != nil {
		return false, err
	}
	return s.Storage.Update(ctx, job, expected)
}

func TestUpdateJob_CanceledConcurrently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.createScheduled(t, "10/01/2025", "09:00")

	racing := engine.NewEngine(&engine.Config{
		Logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Store:    withdrawingStore{f.store},
		Users:    f.store,
		Clock:    func() time.Time { return f.now },
		Location: time.UTC,
	})

	lang := int64(9)
	updated, err := racing.UpdateJob(ctx, job.ID, customerID, engine.UpdateJobInput{FromLanguageID: &lang})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Nil(t, updated)

	stored, err := f.engine.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWithdrawBefore24, stored.Status)
	assert.Equal(t, swedish, stored.FromLanguageID)
	assert.Equal(t, job.Due, stored.Due)
	assert.Equal(t, job.ExpiresAt, stored.ExpiresAt)
}

func TestUpdateJob_ReturnsStoredState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := f.createScheduled(t, "10/01/2025", "09:00")

	_, err := f.engine.AcceptJob(ctx, job.ID, translatorA)
	require.NoError(t, err)

	duration := 45
	updated, err := f.engine.UpdateJob(ctx, job.ID, customerID, engine.UpdateJobInput{Duration: &duration})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusAssigned, updated.Status)
	require.NotNil(t, updated.TranslatorID)
	assert.Equal(t, translatorA, *updated.TranslatorID)
	assert.Equal(t, 45, updated.Duration)
}

func TestUpdateJob_LanguageCoverage(t *testing.T) {
	const (
		german     int64 = 5
		polyglotID int64 = 12
	)

	tests := []struct {
		name       string
		translator int64
		language   int64
		wantErr    error
	}{
		{name: "assigned translator lacks new language", translator: translatorA, language: german, wantErr: domain.ErrConflict},
		{name: "assigned translator covers new language", translator: polyglotID, language: german},
		{name: "language unchanged", translator: translatorA, language: swedish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.store.PutUser(&domain.User{ID: polyglotID, Role: domain.RoleTranslator, LanguageIDs: []int64{swedish, german}})

			job := f.createScheduled(t, "10/01/2025", "09:00")
			_, err := f.engine.AcceptJob(ctx, job.ID, tt.translator)
			require.NoError(t, err)

			lang := tt.language
			updated, err := f.engine.UpdateJob(ctx, job.ID, customerID, engine.UpdateJobInput{FromLanguageID: &lang})

			stored, getErr := f.engine.GetJob(ctx, job.ID)
			require.NoError(t, getErr)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, swedish, stored.FromLanguageID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.language, updated.FromLanguageID)
			assert.Equal(t, tt.language, stored.FromLanguageID)
		})
	}
}

func TestExpireStaleJobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	urgent := f.createImmediate(t)
	later := f.createScheduled(t, "10/01/2025", "09:00")
	accepted := f.createImmediate(t)
	_, err := f.engine.AcceptJob(ctx, accepted.ID, translatorA)
	require.NoError(t, err)

	f.advance(10 * time.Minute)

	count, err := f.engine.ExpireStaleJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := f.engine.GetJob(ctx, urgent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTimedOut, stored.Status)

	stored, err = f.engine.GetJob(ctx, later.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)

	assert.Contains(t, f.notifier.kinds(), domain.EventJobExpired)

	count, err = f.engine.ExpireStaleJobs(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
