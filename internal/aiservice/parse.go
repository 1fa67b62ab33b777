package aiservice

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"menupick/internal/menuoptions"
)

// Fixed fallback payloads, substituted whenever the model reply cannot
// be parsed. Korean because they are user-facing.
const (
	fallbackMenuName    = "김치찌개"
	fallbackDescription = "따뜻하고 맛있는 한국 전통 음식입니다."
	fallbackGreeting    = "안녕하세요! 오늘은 어떤 음식을 드시고 싶으신가요?"
)

func fallbackInsights() []string {
	return []string{
		"다양한 음식을 시도해보시는군요!",
		"한국 음식을 선호하시는 것 같습니다.",
	}
}

// Recommendation is the parsed reply of a recommendation prompt. The
// Detected* fields are only set when the model chose a value for an
// "all" field and that value passed registry validation.
type Recommendation struct {
	MenuName            string `json:"menu_name"`
	Description         string `json:"description"`
	DetectedFoodType    string `json:"detected_food_type,omitempty"`
	DetectedCuisineType string `json:"detected_cuisine_type,omitempty"`
	DetectedSituation   string `json:"detected_situation,omitempty"`
}

type greetingReply struct {
	Greeting string `json:"greeting"`
}

type insightsReply struct {
	Insights []string `json:"insights"`
}

// stripCodeFences removes Markdown code-fence wrapping from a model
// reply. Exactly two patterns are stripped: the opening "```json\n"
// marker and the closing "\n```" marker. This is a deliberate,
// narrow normalization, not a Markdown parser.
func stripCodeFences(text string) string {
	text = strings.ReplaceAll(text, "```json\n", "")
	text = strings.ReplaceAll(text, "\n```", "")
	return strings.TrimSpace(text)
}

// parseRecommendation decodes the reply, dropping detected values that
// are not in the options registry. The caller is not told about the
// drop; the original request filter silently applies instead. A
// malformed reply yields the fixed fallback dish.
func parseRecommendation(text string) Recommendation {
	cleaned := stripCodeFences(text)

	var rec Recommendation
	if err := json.Unmarshal([]byte(cleaned), &rec); err != nil || rec.MenuName == "" {
		log.Error().Err(err).Str("text", text).Msg("JSON parsing failed for recommendation")
		return Recommendation{MenuName: fallbackMenuName, Description: fallbackDescription}
	}

	if rec.DetectedFoodType != "" && !menuoptions.ValidFoodType(rec.DetectedFoodType) {
		log.Warn().Str("detected_food_type", rec.DetectedFoodType).Msg("Invalid detected_food_type")
		rec.DetectedFoodType = ""
	}
	if rec.DetectedCuisineType != "" && !menuoptions.ValidCuisineType(rec.DetectedCuisineType) {
		log.Warn().Str("detected_cuisine_type", rec.DetectedCuisineType).Msg("Invalid detected_cuisine_type")
		rec.DetectedCuisineType = ""
	}
	if rec.DetectedSituation != "" && !menuoptions.ValidSituation(rec.DetectedSituation) {
		log.Warn().Str("detected_situation", rec.DetectedSituation).Msg("Invalid detected_situation")
		rec.DetectedSituation = ""
	}

	return rec
}

func parseGreeting(text string) string {
	cleaned := stripCodeFences(text)

	var reply greetingReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil || reply.Greeting == "" {
		log.Error().Err(err).Str("text", text).Msg("JSON parsing failed for greeting")
		return fallbackGreeting
	}
	return reply.Greeting
}

func parseInsights(text string) []string {
	cleaned := stripCodeFences(text)

	var reply insightsReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil || len(reply.Insights) == 0 {
		log.Error().Err(err).Str("text", text).Msg("JSON parsing failed for insights")
		return fallbackInsights()
	}
	return reply.Insights
}
