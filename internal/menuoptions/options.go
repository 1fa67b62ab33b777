/*
Package menuoptions is the static catalog of valid food types, cuisine
types, and situations. It backs both input validation and the option
lists served to clients, so the values here are the single source of
truth for what a recommendation may contain.
*/
package menuoptions

// Option is a single selectable value with its display label resolved
// for the requested language.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// entry is the internal bilingual form of an option.
type entry struct {
	value   string
	labelKo string
	labelEn string
}

// The "all" sentinel means "let the AI choose" and must stay first in
// every list.
const All = "all"

var foodTypes = []entry{
	{"all", "전체", "All"},
	{"meal", "식사", "Meal"},
	{"dish", "요리", "Dish"},
	{"snack", "간식", "Snack"},
}

var cuisineTypes = []entry{
	{"all", "전체", "All"},
	{"Korean", "한식", "Korean"},
	{"Chinese", "중식", "Chinese"},
	{"Japanese", "일식", "Japanese"},
	{"Italian", "이탈리안", "Italian"},
	{"Asian", "아시안", "Asian"},
	{"Mexican", "멕시칸", "Mexican"},
	{"French", "프랑스", "French"},
	{"Thai", "태국", "Thai"},
	{"Indian", "인도", "Indian"},
	{"Middle_Eastern", "중동", "Middle Eastern"},
	{"American", "미국", "American"},
	{"Mediterranean", "지중해", "Mediterranean"},
}

var situations = []entry{
	{"all", "전체", "All"},
	{"solo dining", "혼자 식사", "Solo Dining"},
	{"family dinner", "가족 식사", "Family Dinner"},
	{"casual outing", "일상적 외식", "Casual Outing"},
	{"date", "데이트", "Date"},
	{"group gathering", "모임", "Group Gathering"},
}

// FoodTypes returns the ordered food type options for the given
// language ("en" selects English, anything else Korean).
func FoodTypes(lang string) []Option {
	return format(foodTypes, lang)
}

// CuisineTypes returns the ordered cuisine type options.
func CuisineTypes(lang string) []Option {
	return format(cuisineTypes, lang)
}

// Situations returns the ordered situation options.
func Situations(lang string) []Option {
	return format(situations, lang)
}

// AllOptions bundles every option list, matching the shape of the
// /menu_options response.
func AllOptions(lang string) map[string][]Option {
	return map[string][]Option{
		"food_types":    FoodTypes(lang),
		"cuisine_types": CuisineTypes(lang),
		"situations":    Situations(lang),
	}
}

func FoodTypeValues() []string    { return values(foodTypes) }
func CuisineTypeValues() []string { return values(cuisineTypes) }
func SituationValues() []string   { return values(situations) }

// FoodTypeChoices returns the concrete food types, i.e. the registry
// minus the "all" sentinel. Used when building enumerated choice lists
// for prompts.
func FoodTypeChoices() []string    { return choices(foodTypes) }
func CuisineTypeChoices() []string { return choices(cuisineTypes) }
func SituationChoices() []string   { return choices(situations) }

func ValidFoodType(v string) bool    { return contains(foodTypes, v) }
func ValidCuisineType(v string) bool { return contains(cuisineTypes, v) }
func ValidSituation(v string) bool   { return contains(situations, v) }

func format(entries []entry, lang string) []Option {
	opts := make([]Option, 0, len(entries))
	for _, e := range entries {
		label := e.labelKo
		if lang == "en" {
			label = e.labelEn
		}
		opts = append(opts, Option{Value: e.value, Label: label})
	}
	return opts
}

func values(entries []entry) []string {
	vals := make([]string, 0, len(entries))
	for _, e := range entries {
		vals = append(vals, e.value)
	}
	return vals
}

func choices(entries []entry) []string {
	vals := make([]string, 0, len(entries)-1)
	for _, e := range entries {
		if e.value == All {
			continue
		}
		vals = append(vals, e.value)
	}
	return vals
}

func contains(entries []entry, v string) bool {
	for _, e := range entries {
		if e.value == v {
			return true
		}
	}
	return false
}
