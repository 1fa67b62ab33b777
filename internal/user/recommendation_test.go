package user

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menupick/internal/aiservice"
)

func TestResolveFiltersDefaultsToAll(t *testing.T) {
	f, msg := resolveFilters(RecommendationRequest{})
	require.Empty(t, msg)
	assert.Equal(t, aiservice.Filters{FoodType: "all", CuisineType: "all", Situation: "all"}, f)
}

func TestResolveFiltersAcceptsRegistryValues(t *testing.T) {
	f, msg := resolveFilters(RecommendationRequest{
		FoodType:    "meal",
		CuisineType: "Korean",
		Situation:   "date",
	})
	require.Empty(t, msg)
	assert.Equal(t, "meal", f.FoodType)
	assert.Equal(t, "Korean", f.CuisineType)
	assert.Equal(t, "date", f.Situation)
}

func TestResolveFiltersRejectsUnknownValues(t *testing.T) {
	cases := []struct {
		name string
		req  RecommendationRequest
		msg  string
	}{
		{"food type", RecommendationRequest{FoodType: "dessert"}, "Invalid food_type"},
		{"cuisine type", RecommendationRequest{CuisineType: "Martian"}, "Invalid cuisine_type"},
		{"situation", RecommendationRequest{Situation: "space battle"}, "Invalid situation"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, msg := resolveFilters(tc.req)
			assert.Equal(t, tc.msg, msg)
		})
	}
}

func TestDetectedOr(t *testing.T) {
	// A pinned filter is never overridden.
	assert.Equal(t, "Korean", detectedOr("Korean", "Japanese"))
	// "all" takes the detected value when present.
	assert.Equal(t, "Japanese", detectedOr("all", "Japanese"))
	// An unresolved "all" is stored as-is.
	assert.Equal(t, "all", detectedOr("all", ""))
}

func TestMergeResponseContextPreservesOriginalKeys(t *testing.T) {
	original := []byte(`{"current_time":"2026-08-27 19:00 KST","weather":"22°C, 흐림","location":"Seoul, KR"}`)
	base := aiservice.BaseContext{
		CurrentTime: "2026-08-28 12:30 KST",
		Weather:     "25°C, 맑음",
		Location:    "Seoul, KR",
	}

	merged := mergeResponseContext(original, base)

	var got map[string]any
	require.NoError(t, json.Unmarshal(merged, &got))

	assert.Equal(t, "2026-08-27 19:00 KST", got["current_time"])
	assert.Equal(t, "22°C, 흐림", got["weather"])

	rc, ok := got["response_context"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2026-08-28 12:30 KST", rc["current_time"])
	assert.Equal(t, "25°C, 맑음", rc["weather"])
}

func TestMergeResponseContextToleratesCorruptOriginal(t *testing.T) {
	merged := mergeResponseContext([]byte("not json"), aiservice.BaseContext{CurrentTime: "now"})

	var got map[string]any
	require.NoError(t, json.Unmarshal(merged, &got))
	assert.Contains(t, got, "response_context")
}
