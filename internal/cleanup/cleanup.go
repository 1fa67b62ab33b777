/*
Package cleanup deletes user accounts that have shown no activity past
a configurable age threshold. A user's last activity is the greatest
of account creation, profile update, newest recommendation, and newest
response; the snapshot comes from a single query so eligibility is
judged against one consistent view of the data.
*/
package cleanup

import (
	"context"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"

	"menupick/internal/database"
)

const DefaultInactiveDays = 90

// Service runs the inactive-user batch job.
type Service struct {
	q            *database.Queries
	store        RunStore
	inactiveDays int
}

// New builds a cleanup service. days <= 0 selects the default
// threshold.
func New(q *database.Queries, store RunStore, days int) *Service {
	if days <= 0 {
		days = DefaultInactiveDays
	}
	return &Service{q: q, store: store, inactiveDays: days}
}

// DaysFromEnv reads the INACTIVE_USER_DAYS override, falling back to
// the default when unset or unparseable.
func DaysFromEnv() int {
	raw := os.Getenv("INACTIVE_USER_DAYS")
	if raw == "" {
		return DefaultInactiveDays
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		log.Warn().Str("INACTIVE_USER_DAYS", raw).Msg("Invalid inactivity threshold, using default")
		return DefaultInactiveDays
	}
	return days
}

// Status is the answer to the admin cleanup_status query.
type Status struct {
	TotalUsers    int64      `json:"total_users"`
	InactiveDays  int        `json:"inactive_days"`
	EligibleUsers int        `json:"eligible_users"`
	LastCleanupAt *time.Time `json:"last_cleanup_at"`
}

// Result summarizes one cleanup run. UsersDeleted can be lower than
// UsersFound when individual deletions failed.
type Result struct {
	InactiveSince time.Time `json:"inactive_since"`
	UsersFound    int       `json:"users_found"`
	UsersDeleted  int       `json:"users_deleted"`
}

// eligible reports whether a last-activity timestamp is older than the
// threshold relative to now. It mirrors the cutoff the inactivity
// snapshot query applies.
func eligible(lastActivity, now time.Time, days int) bool {
	return lastActivity.Before(now.AddDate(0, 0, -days))
}

// Status reports the current totals without deleting anything.
func (s *Service) Status(ctx context.Context) (Status, error) {
	total, err := s.q.CountUsers(ctx)
	if err != nil {
		return Status{}, err
	}

	inactiveSince := time.Now().AddDate(0, 0, -s.inactiveDays)
	inactive, err := s.q.ListInactiveUsers(ctx, inactiveSince)
	if err != nil {
		return Status{}, err
	}

	st := Status{
		TotalUsers:    total,
		InactiveDays:  s.inactiveDays,
		EligibleUsers: len(inactive),
	}
	if at, ok := s.store.LastCleanupAt(); ok {
		st.LastCleanupAt = &at
	}
	return st, nil
}

// Cleanup deletes every eligible user. A failed deletion is logged and
// skipped; it never aborts the batch, so the returned counts are
// always complete.
func (s *Service) Cleanup(ctx context.Context) (Result, error) {
	inactiveSince := time.Now().AddDate(0, 0, -s.inactiveDays)

	users, err := s.q.ListInactiveUsers(ctx, inactiveSince)
	if err != nil {
		return Result{}, err
	}

	log.Info().
		Int("users_found", len(users)).
		Time("inactive_since", inactiveSince).
		Msg("Starting inactive user cleanup")

	deleted := 0
	for _, u := range users {
		if err := s.q.DeleteUserByID(ctx, u.ID); err != nil {
			log.Error().Err(err).Str("uuid", u.Uuid).Msg("Failed to delete inactive user")
			continue
		}
		log.Info().
			Str("uuid", u.Uuid).
			Time("last_activity", u.LastActivityAt.Time).
			Msg("Deleted inactive user")
		deleted++
	}

	s.store.SetLastCleanupAt(time.Now())

	log.Info().Int("users_deleted", deleted).Msg("Completed inactive user cleanup")

	return Result{
		InactiveSince: inactiveSince,
		UsersFound:    len(users),
		UsersDeleted:  deleted,
	}, nil
}

// Run executes Cleanup on the given interval until the context is
// canceled. Overlap protection is cadence-based only; intervals are
// expected to be far longer than a run.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Cleanup scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.Cleanup(ctx); err != nil {
				log.Error().Err(err).Msg("Scheduled cleanup run failed")
			}
		}
	}
}
