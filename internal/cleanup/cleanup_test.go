package cleanup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEligible(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name         string
		lastActivity time.Time
		days         int
		want         bool
	}{
		{"well past threshold", now.AddDate(0, 0, -120), 90, true},
		{"one day past threshold", now.AddDate(0, 0, -91), 90, true},
		{"exactly at threshold", now.AddDate(0, 0, -90), 90, false},
		{"recent activity", now.AddDate(0, 0, -5), 90, false},
		{"tight threshold", now.AddDate(0, 0, -10), 7, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, eligible(tc.lastActivity, now, tc.days))
		})
	}
}

func TestMemoryRunStore(t *testing.T) {
	store := NewMemoryRunStore()

	_, ok := store.LastCleanupAt()
	assert.False(t, ok, "fresh store has no recorded run")

	at := time.Date(2026, 8, 28, 3, 0, 0, 0, time.UTC)
	store.SetLastCleanupAt(at)

	got, ok := store.LastCleanupAt()
	require.True(t, ok)
	assert.Equal(t, at, got)
}

func TestNewDefaultsThreshold(t *testing.T) {
	s := New(nil, NewMemoryRunStore(), 0)
	assert.Equal(t, DefaultInactiveDays, s.inactiveDays)

	s = New(nil, NewMemoryRunStore(), 30)
	assert.Equal(t, 30, s.inactiveDays)
}

func TestDaysFromEnv(t *testing.T) {
	t.Setenv("INACTIVE_USER_DAYS", "")
	assert.Equal(t, DefaultInactiveDays, DaysFromEnv())

	t.Setenv("INACTIVE_USER_DAYS", "45")
	assert.Equal(t, 45, DaysFromEnv())

	t.Setenv("INACTIVE_USER_DAYS", "soon")
	assert.Equal(t, DefaultInactiveDays, DaysFromEnv())

	t.Setenv("INACTIVE_USER_DAYS", "-3")
	assert.Equal(t, DefaultInactiveDays, DaysFromEnv())
}
