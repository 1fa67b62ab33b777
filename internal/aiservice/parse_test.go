package aiservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced with trailing newline", "```json\n{\"a\":1}\n```\n", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripCodeFences(tc.in))
		})
	}
}

func TestParseRecommendation(t *testing.T) {
	rec := parseRecommendation("```json\n" + `{"menu_name":"비빔밥","description":"나물과 고추장의 조화입니다.","detected_cuisine_type":"Korean"}` + "\n```")
	assert.Equal(t, "비빔밥", rec.MenuName)
	assert.Equal(t, "나물과 고추장의 조화입니다.", rec.Description)
	assert.Equal(t, "Korean", rec.DetectedCuisineType)
	assert.Empty(t, rec.DetectedFoodType)
}

func TestParseRecommendationDropsInvalidDetectedValues(t *testing.T) {
	rec := parseRecommendation(`{"menu_name":"타코","description":"멕시코 음식입니다.","detected_cuisine_type":"Atlantis","detected_food_type":"meal","detected_situation":"space battle"}`)
	assert.Equal(t, "타코", rec.MenuName)
	// Invalid detected values vanish silently; valid ones survive.
	assert.Empty(t, rec.DetectedCuisineType)
	assert.Equal(t, "meal", rec.DetectedFoodType)
	assert.Empty(t, rec.DetectedSituation)
}

func TestParseRecommendationFallbackOnMalformedJSON(t *testing.T) {
	for _, text := range []string{"not json at all", "", `{"description":"이름 없음"}`} {
		rec := parseRecommendation(text)
		assert.Equal(t, "김치찌개", rec.MenuName)
		assert.Equal(t, "따뜻하고 맛있는 한국 전통 음식입니다.", rec.Description)
	}
}

func TestParseGreeting(t *testing.T) {
	assert.Equal(t, "좋은 하루 보내세요!", parseGreeting(`{"greeting":"좋은 하루 보내세요!"}`))
	assert.Equal(t, fallbackGreeting, parseGreeting("oops"))
	assert.Equal(t, fallbackGreeting, parseGreeting(`{"greeting":""}`))
}

func TestParseInsights(t *testing.T) {
	insights := parseInsights("```json\n" + `{"insights":["매운 음식을 자주 선택하십니다.","저녁에 추천을 많이 받으셨어요."]}` + "\n```")
	assert.Len(t, insights, 2)

	assert.Equal(t, fallbackInsights(), parseInsights("garbage"))
	assert.Equal(t, fallbackInsights(), parseInsights(`{"insights":[]}`))
}
