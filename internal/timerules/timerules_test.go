package timerules

import (
	"testing"
	"time"

	"github.com/duaneandrea/digitalk-test/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDue(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		immediate bool
		dateText  string
		timeText  string
		want      time.Time
		wantErr   bool
	}{
		{
			name:      "immediate adds lead window",
			immediate: true,
			want:      time.Date(2025, 1, 1, 10, 5, 0, 0, time.UTC),
		},
		{
			name:      "immediate ignores supplied date and time",
			immediate: true,
			dateText:  "25/12/2025 09:00",
			timeText:  "14:30",
			want:      time.Date(2025, 1, 1, 10, 5, 0, 0, time.UTC),
		},
		{
			name:     "scheduled date with time of day",
			dateText: "25/12/2025 09:15",
			want:     time.Date(2025, 12, 25, 9, 15, 0, 0, time.UTC),
		},
		{
			name:     "time text overrides time of day only",
			dateText: "25/12/2025 09:15",
			timeText: "14:30",
			want:     time.Date(2025, 12, 25, 14, 30, 0, 0, time.UTC),
		},
		{
			name:     "date only with time text",
			dateText: "25/12/2025",
			timeText: "14:30",
			want:     time.Date(2025, 12, 25, 14, 30, 0, 0, time.UTC),
		},
		{
			name:     "single digit day and month",
			dateText: "3/2/2025 8:05",
			want:     time.Date(2025, 2, 3, 8, 5, 0, 0, time.UTC),
		},
		{
			name:     "equal to now is accepted",
			dateText: "01/01/2025 10:00",
			want:     now,
		},
		{
			name:     "missing date",
			wantErr:  true,
			timeText: "14:30",
		},
		{
			name:     "unparsable date",
			dateText: "2025-12-25 14:30",
			wantErr:  true,
		},
		{
			name:     "unparsable time",
			dateText: "25/12/2025",
			timeText: "half past two",
			wantErr:  true,
		},
		{
			name:     "strictly past",
			dateText: "01/01/2025 09:59",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDue(tt.immediate, tt.dateText, tt.timeText, now)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				assert.True(t, got.IsZero())
				return
			}

			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestNormalizeDue_UsesLocationOfNow(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, loc)

	got, err := NormalizeDue(false, "25/12/2025", "14:30", now)
	require.NoError(t, err)

	assert.Equal(t, loc, got.Location())
	assert.Equal(t, 14, got.Hour())
}

func TestWillExpireAt(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		gap  time.Duration
		want time.Time
	}{
		{name: "short gap keeps 90 percent", gap: 60 * time.Minute, want: created.Add(54 * time.Minute)},
		{name: "exactly 90 minutes", gap: 90 * time.Minute, want: created.Add(81 * time.Minute)},
		{name: "three hours", gap: 3 * time.Hour, want: created.Add(90 * time.Minute)},
		{name: "exactly 24 hours", gap: 24 * time.Hour, want: created.Add(22*time.Hour + 30*time.Minute)},
		{name: "two days", gap: 48 * time.Hour, want: created.Add(32 * time.Hour)},
		{name: "exactly 72 hours", gap: 72 * time.Hour, want: created.Add(56 * time.Hour)},
		{name: "a week", gap: 7 * 24 * time.Hour, want: created.Add(5 * 24 * time.Hour)},
		{name: "due before creation", gap: -time.Hour, want: created.Add(-time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WillExpireAt(created.Add(tt.gap), created)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestWillExpireAt_DueTwoHoursAheadCreatedAnHourAgo(t *testing.T) {
	now := time.Now()
	due := now.Add(2 * time.Hour)
	created := now.Add(-1 * time.Hour)

	assert.True(t, created.Add(90*time.Minute).Equal(WillExpireAt(due, created)))
}

func TestWillExpireAt_NeverAfterDue(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for gap := -2 * time.Hour; gap <= 10*24*time.Hour; gap += 17 * time.Minute {
		due := created.Add(gap)
		expires := WillExpireAt(due, created)
		assert.False(t, expires.After(due), "gap %s: expiry %s after due %s", gap, expires, due)
	}
}

func TestWithdrawalStatus(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, domain.StatusWithdrawBefore24, WithdrawalStatus(now.Add(48*time.Hour), now))
	assert.Equal(t, domain.StatusWithdrawBefore24, WithdrawalStatus(now.Add(24*time.Hour), now))
	assert.Equal(t, domain.StatusWithdrawAfter24, WithdrawalStatus(now.Add(23*time.Hour), now))
	assert.Equal(t, domain.StatusWithdrawAfter24, WithdrawalStatus(now.Add(-time.Hour), now))
}
