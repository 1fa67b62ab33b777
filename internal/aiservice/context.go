package aiservice

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"menupick/internal/database"
)

// BaseContext is the time/weather/location snapshot captured at a
// specific moment. It is embedded into prompts and stored verbatim on
// each recommendation, so these JSON keys are part of the stored
// record format.
type BaseContext struct {
	CurrentTime string `json:"current_time"`
	Weather     string `json:"weather"`
	Location    string `json:"location"`
}

// Filters are the per-field inputs of a recommendation request; each
// is a concrete registry value or the "all" sentinel.
type Filters struct {
	FoodType    string
	CuisineType string
	Situation   string
}

// recommendationContext is everything a recommendation prompt needs.
type recommendationContext struct {
	Base       BaseContext
	Filters    Filters
	Preference *database.UserPreference
	Accepted   []database.MenuRecommendation
	Declined   []database.MenuRecommendation
}

// insightsContext is everything an insights prompt needs.
type insightsContext struct {
	Base     BaseContext
	Accepted []database.MenuRecommendation
	Declined []database.MenuRecommendation
}

const (
	historyWindow = 7 * 24 * time.Hour
	historyLimit  = 10
)

// BaseContext assembles the current snapshot for a user. Weather and
// reverse geocoding run in parallel; both degrade to their sentinels
// on any failure, so this never errors.
func (s *Service) BaseContext(ctx context.Context, user database.User) BaseContext {
	base := BaseContext{
		CurrentTime: localTime(user.Timezone),
		Weather:     weatherUnavailable,
		Location:    locationUnavailable,
	}

	if !user.LocationLat.Valid || !user.LocationLng.Valid {
		return base
	}
	lat, lng := user.LocationLat.Float64, user.LocationLng.Float64

	g, grpCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		base.Weather = s.weather.Weather(grpCtx, lat, lng)
		return nil
	})
	g.Go(func() error {
		base.Location = s.weather.Location(grpCtx, lat, lng)
		return nil
	})

	_ = g.Wait() // subtasks never return errors

	return base
}

func localTime(timezone string) string {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return time.Now().In(loc).Format("2006-01-02 15:04 MST")
}

// buildRecommendationContext fans out the snapshot lookups and the
// history queries. Query failures leave the corresponding section
// empty rather than failing the request.
func (s *Service) buildRecommendationContext(ctx context.Context, user database.User, f Filters) recommendationContext {
	rc := recommendationContext{Filters: f}
	since := time.Now().Add(-historyWindow)

	g, grpCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rc.Base = s.BaseContext(grpCtx, user)
		return nil
	})

	g.Go(func() error {
		if pref, err := s.q.GetTopUserPreference(grpCtx, user.ID); err == nil {
			rc.Preference = &pref
		}
		return nil
	})

	g.Go(func() error {
		accepted, err := s.q.ListRecentMenusByOutcome(grpCtx, database.ListRecentMenusByOutcomeParams{
			UserID: user.ID, Since: since, Accepted: true, Limit: historyLimit,
		})
		if err == nil {
			rc.Accepted = accepted
		}
		return nil
	})

	g.Go(func() error {
		declined, err := s.q.ListRecentMenusByOutcome(grpCtx, database.ListRecentMenusByOutcomeParams{
			UserID: user.ID, Since: since, Accepted: false, Limit: historyLimit,
		})
		if err == nil {
			rc.Declined = declined
		}
		return nil
	})

	_ = g.Wait()

	return rc
}

func (s *Service) buildInsightsContext(ctx context.Context, user database.User) insightsContext {
	ic := insightsContext{}

	g, grpCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ic.Base = s.BaseContext(grpCtx, user)
		return nil
	})

	g.Go(func() error {
		if accepted, err := s.q.ListMenusByOutcome(grpCtx, user.ID, true); err == nil {
			ic.Accepted = accepted
		}
		return nil
	})

	g.Go(func() error {
		if declined, err := s.q.ListMenusByOutcome(grpCtx, user.ID, false); err == nil {
			ic.Declined = declined
		}
		return nil
	})

	_ = g.Wait()

	return ic
}
