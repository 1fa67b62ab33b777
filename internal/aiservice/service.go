/*
Package aiservice builds prompt context from a user's stored state,
calls the generative provider, and parses the replies into typed
results. Transport failures from the provider surface as errors;
malformed replies never do — they are absorbed into fixed fallback
payloads so callers always receive renderable content.
*/
package aiservice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"menupick/internal/database"
	"menupick/internal/weather"
)

const (
	weatherUnavailable  = weather.WeatherUnavailable
	locationUnavailable = weather.LocationUnavailable
)

// Service is the AI recommendation service. The provider is injected
// so tests can use a stub.
type Service struct {
	q        *database.Queries
	provider Provider
	weather  *weather.Client
}

func New(q *database.Queries, provider Provider, w *weather.Client) *Service {
	return &Service{q: q, provider: provider, weather: w}
}

// GenerateRecommendation produces one menu suggestion for the user and
// filters, along with the context snapshot the suggestion was made
// under (callers store the snapshot with the recommendation). A
// provider transport failure is returned as an error; a malformed
// reply is replaced with the fallback dish.
func (s *Service) GenerateRecommendation(ctx context.Context, user database.User, f Filters) (Recommendation, BaseContext, error) {
	rc := s.buildRecommendationContext(ctx, user, f)
	prompt := buildRecommendationPrompt(rc)

	text, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		return Recommendation{}, rc.Base, fmt.Errorf("provider call failed: %w", err)
	}
	s.logInteraction(ctx, user.ID, prompt, text, rc.Base)

	return parseRecommendation(text), rc.Base, nil
}

// GenerateGreeting returns a short personalized greeting. It never
// fails: provider errors and malformed replies both yield the canned
// greeting.
func (s *Service) GenerateGreeting(ctx context.Context, user database.User, f Filters) string {
	base := s.BaseContext(ctx, user)
	prompt := buildGreetingPrompt(base, f)

	text, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("Greeting generation failed, using fallback")
		return fallbackGreeting
	}
	s.logInteraction(ctx, user.ID, prompt, text, base)

	return parseGreeting(text)
}

// GenerateInsights analyzes the user's accept/decline history and
// returns 3-5 insight sentences, or the canned list when the provider
// is unavailable. Generated insights are persisted best-effort.
func (s *Service) GenerateInsights(ctx context.Context, user database.User) []string {
	ic := s.buildInsightsContext(ctx, user)
	prompt := buildInsightsPrompt(ic)

	text, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("Insights generation failed, using fallback")
		return fallbackInsights()
	}
	s.logInteraction(ctx, user.ID, prompt, text, ic.Base)

	insights := parseInsights(text)

	if data, err := json.Marshal(map[string]any{"insights": insights}); err == nil {
		err := s.q.CreateUserInsight(ctx, database.CreateUserInsightParams{
			UserID:      user.ID,
			InsightType: "food_patterns",
			InsightData: data,
			GeneratedAt: time.Now(),
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to store user insight")
		}
	}

	return insights
}

// logInteraction records the raw exchange for offline analysis. Purely
// best-effort; a failed insert never affects the request.
func (s *Service) logInteraction(ctx context.Context, userID int64, prompt, response string, base BaseContext) {
	contextData, _ := json.Marshal(base)
	err := s.q.CreateAiInteraction(ctx, database.CreateAiInteractionParams{
		UserID:      userID,
		Prompt:      prompt,
		Response:    response,
		ContextData: contextData,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to log AI interaction")
	}
}
