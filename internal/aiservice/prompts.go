package aiservice

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"menupick/internal/database"
	"menupick/internal/menuoptions"
)

/* =================================================================================
                        PROMPT ENGINEERING (Korean, user-facing)
=================================================================================*/

// All prompts instruct the model to answer with JSON only; the
// response format block at the end of each prompt is the contract the
// parser expects.

var koreanLanguageRequirements = []string{
	"모든 내용을 한국어로 작성해주세요",
	"영어 단어는 사용하지 마세요",
	`외국 음식명은 한국어로 표기해주세요 (예: "Pad Thai" → "팟타이", "Fajitas" → "파히타")`,
	"외국 음식의 경우 한국어 음차 표기를 사용해주세요",
}

func buildRecommendationPrompt(rc recommendationContext) string {
	foodChoices := menuoptions.FoodTypeChoices()
	cuisineChoices := menuoptions.CuisineTypeChoices()
	situationChoices := menuoptions.SituationChoices()

	// Each field is either pinned to the requested value or opened to
	// an enumerated choice list when the caller sent "all".
	foodTypeLine := fmt.Sprintf("음식 유형: %s", rc.Filters.FoodType)
	if rc.Filters.FoodType == menuoptions.All {
		foodTypeLine = fmt.Sprintf("음식 유형: 다음 중에서 가장 적합한 것을 선택해주세요 (%s)", strings.Join(foodChoices, ", "))
	}

	cuisineLine := fmt.Sprintf("요리 종류: %s", rc.Filters.CuisineType)
	if rc.Filters.CuisineType == menuoptions.All {
		cuisineLine = fmt.Sprintf("요리 종류: 다음 중에서 가장 적합한 것을 선택해주세요 (%s)", strings.Join(cuisineChoices, ", "))
	}

	situationLine := fmt.Sprintf("상황: %s", rc.Filters.Situation)
	if rc.Filters.Situation == menuoptions.All {
		situationLine = fmt.Sprintf("상황: 다음 중에서 가장 적합한 것을 선택해주세요 (%s)", strings.Join(situationChoices, ", "))
	}

	expert := "국제 음식 추천 전문가"
	if rc.Filters.CuisineType != menuoptions.All {
		expert = fmt.Sprintf("%s 음식 추천 전문가", rc.Filters.CuisineType)
	}

	// Response format: detected_* keys only appear for fields the
	// caller left as "all".
	responseFormat := map[string]string{
		"menu_name":   "음식 이름",
		"description": "간단한 설명 (2-3문장)",
	}
	if rc.Filters.FoodType == menuoptions.All {
		responseFormat["detected_food_type"] = fmt.Sprintf("선택된 음식 유형 (%s 중 하나)", strings.Join(foodChoices, ", "))
	}
	if rc.Filters.CuisineType == menuoptions.All {
		responseFormat["detected_cuisine_type"] = fmt.Sprintf("선택된 요리 종류 (%s 중 하나)", strings.Join(cuisineChoices, ", "))
	}
	if rc.Filters.Situation == menuoptions.All {
		responseFormat["detected_situation"] = fmt.Sprintf("선택된 상황 (%s 중 하나)", strings.Join(situationChoices, ", "))
	}
	formatJSON, _ := json.Marshal(responseFormat)

	var history strings.Builder
	if accepted := formatMenuHistory(rc.Accepted); accepted != "" {
		history.WriteString("최근 7일 내에 수락한 메뉴들 (이런 스타일을 선호하지만 정확히 같은 메뉴는 추천하지 마세요):\n")
		history.WriteString(accepted)
		history.WriteString("\n")
	}
	if declined := formatMenuHistory(rc.Declined); declined != "" {
		history.WriteString("최근 7일 내에 거절한 메뉴들 (이런 것들은 제외해주세요):\n")
		history.WriteString(declined)
		history.WriteString("\n")
	}

	requirements := append(append([]string{}, koreanLanguageRequirements...),
		"최근 수락한 메뉴와 정확히 같은 이름의 음식은 추천하지 마세요 (비슷한 스타일은 괜찮습니다)",
		"최근 수락한 메뉴의 요리 종류(cuisine_type)와 정확히 같은 요리 종류는 가능한 피해주세요 (다양성을 위해)",
	)

	var b strings.Builder
	fmt.Fprintf(&b, "당신은 %s입니다. 다음 정보를 바탕으로 한 가지 음식을 추천해주세요:\n\n", expert)
	fmt.Fprintf(&b, "현재 상황:\n%s\n\n", formatContextInfo(rc.Base))
	b.WriteString("요청 정보:\n")
	b.WriteString(foodTypeLine + "\n")
	b.WriteString(cuisineLine + "\n")
	b.WriteString(situationLine + "\n")
	fmt.Fprintf(&b, "사용자 선호도: %s\n\n", formatPreference(rc.Preference))
	if h := strings.TrimSpace(history.String()); h != "" {
		b.WriteString(h + "\n\n")
	}
	b.WriteString("중요한 요구사항:\n")
	writeRequirements(&b, requirements)
	fmt.Fprintf(&b, "\n응답 형식:\n%s\n\nJSON 형태로만 응답해주세요.", formatJSON)

	return b.String()
}

func buildGreetingPrompt(base BaseContext, f Filters) string {
	requirements := append(append([]string{}, koreanLanguageRequirements...),
		"따뜻하고 친근한 톤으로 1-2문장의 인사말을 작성해주세요",
		"구체적인 음식 이름이나 메뉴를 언급하지 마세요",
		"특정 음식을 추천하거나 제안하지 마세요",
		"일반적인 인사와 식사에 대한 관심 표현만 해주세요",
	)

	var b strings.Builder
	b.WriteString("사용자에게 개인화된 식사 인사말을 한국어로 작성해주세요.\n\n")
	fmt.Fprintf(&b, "현재 상황:\n%s\n\n", formatContextInfo(base))
	b.WriteString("요청 정보:\n")
	fmt.Fprintf(&b, "- 음식 유형: %s\n", f.FoodType)
	fmt.Fprintf(&b, "- 요리 종류: %s\n", f.CuisineType)
	fmt.Fprintf(&b, "- 상황: %s\n\n", f.Situation)
	b.WriteString("중요한 요구사항:\n")
	writeRequirements(&b, requirements)
	b.WriteString("\n응답 형식:\n{\"greeting\": \"인사말 내용\"}\n\nJSON 형태로만 응답해주세요.")

	return b.String()
}

func buildInsightsPrompt(ic insightsContext) string {
	requirements := append(append([]string{}, koreanLanguageRequirements...),
		"추천 시각, 날씨, 위치 정보도 분석에 활용해주세요",
		"3-5개의 인사이트를 제공해주세요",
		"구체적인 음식 이름이나 메뉴를 언급하지 마세요",
		"특정 음식을 추천하거나 제안하지 마세요",
		"음식 선택 패턴이나 취향의 경향성만 분석해주세요",
		"일반적인 식사 습관이나 선호도에 대한 통찰만 제공해주세요",
	)

	acceptedDetail := formatMenuHistory(ic.Accepted)
	if acceptedDetail == "" {
		acceptedDetail = "없음"
	}
	declinedDetail := formatMenuHistory(ic.Declined)
	if declinedDetail == "" {
		declinedDetail = "없음"
	}

	var b strings.Builder
	b.WriteString("사용자의 음식 선택 패턴을 분석하여 개인화된 인사이트를 제공해주세요.\n\n")
	fmt.Fprintf(&b, "현재 상황:\n%s\n\n", formatContextInfo(ic.Base))
	b.WriteString("사용자 데이터:\n")
	fmt.Fprintf(&b, "- 수락한 추천: %d개\n", len(ic.Accepted))
	fmt.Fprintf(&b, "- 수락한 메뉴 상세:\n%s\n\n", acceptedDetail)
	fmt.Fprintf(&b, "- 거절한 추천: %d개\n", len(ic.Declined))
	fmt.Fprintf(&b, "- 거절한 메뉴 상세:\n%s\n\n", declinedDetail)
	fmt.Fprintf(&b, "- 선호하는 음식 유형: %s\n", formatCounts(countByField(ic.Accepted, func(r database.MenuRecommendation) string { return r.FoodType })))
	fmt.Fprintf(&b, "- 선호하는 요리 종류: %s\n", formatCounts(countByField(ic.Accepted, func(r database.MenuRecommendation) string { return r.CuisineType })))
	fmt.Fprintf(&b, "- 선호하는 상황: %s\n\n", formatCounts(countByField(ic.Accepted, func(r database.MenuRecommendation) string { return r.Situation })))
	b.WriteString("중요한 요구사항:\n")
	writeRequirements(&b, requirements)
	b.WriteString("\n응답 형식:\n{\"insights\": [\"인사이트1\", \"인사이트2\", ...]}\n\nJSON 형태로만 응답해주세요.")

	return b.String()
}

func writeRequirements(b *strings.Builder, requirements []string) {
	for _, req := range requirements {
		fmt.Fprintf(b, "- %s\n", req)
	}
}

func formatContextInfo(base BaseContext) string {
	return strings.Join([]string{
		fmt.Sprintf("현재 시간: %s", base.CurrentTime),
		fmt.Sprintf("날씨: %s", base.Weather),
		fmt.Sprintf("위치: %s", base.Location),
	}, "\n")
}

// formatMenuHistory renders one line per menu, annotated with the
// context snapshot stored at recommendation time when present.
func formatMenuHistory(recs []database.MenuRecommendation) string {
	if len(recs) == 0 {
		return ""
	}

	lines := make([]string, 0, len(recs))
	for _, r := range recs {
		annotation := ""
		if len(r.Context) > 0 {
			var snap BaseContext
			if err := json.Unmarshal(r.Context, &snap); err == nil && snap.CurrentTime != "" {
				locationPart := ""
				if snap.Location != "" {
					locationPart = fmt.Sprintf(", 위치: %s", snap.Location)
				}
				annotation = fmt.Sprintf(" (추천 시각: %s, 날씨: %s%s)", snap.CurrentTime, snap.Weather, locationPart)
			}
		}
		lines = append(lines, fmt.Sprintf("- %s (%s, %s, %s)%s",
			r.MenuName, r.CuisineType, r.FoodType, r.Situation, annotation))
	}
	return strings.Join(lines, "\n")
}

func formatPreference(pref *database.UserPreference) string {
	if pref == nil {
		return "{}"
	}
	parts := []string{}
	if pref.FoodType.Valid {
		parts = append(parts, fmt.Sprintf("음식 유형: %s", pref.FoodType.String))
	}
	if pref.CuisineType.Valid {
		parts = append(parts, fmt.Sprintf("요리 종류: %s", pref.CuisineType.String))
	}
	if pref.Situation.Valid {
		parts = append(parts, fmt.Sprintf("상황: %s", pref.Situation.String))
	}
	if len(parts) == 0 {
		return "{}"
	}
	return strings.Join(parts, ", ")
}

/* =================================================================================
                          PREFERENCE AGGREGATION
=================================================================================*/

type fieldCount struct {
	Value string
	Count int
}

// countByField tallies a field across recommendations, most frequent
// first. Ties break alphabetically so the output is stable.
func countByField(recs []database.MenuRecommendation, field func(database.MenuRecommendation) string) []fieldCount {
	counts := make(map[string]int)
	for _, r := range recs {
		counts[field(r)]++
	}

	result := make([]fieldCount, 0, len(counts))
	for v, n := range counts {
		result = append(result, fieldCount{Value: v, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Value < result[j].Value
	})
	return result
}

func formatCounts(counts []fieldCount) string {
	if len(counts) == 0 {
		return "없음"
	}
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		parts = append(parts, fmt.Sprintf("%s(%d회)", c.Value, c.Count))
	}
	return strings.Join(parts, ", ")
}
