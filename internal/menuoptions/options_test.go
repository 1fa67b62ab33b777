package menuoptions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListsStartWithAllSentinel(t *testing.T) {
	for name, opts := range AllOptions("ko") {
		require.NotEmpty(t, opts, name)
		assert.Equal(t, All, opts[0].Value, name)
	}
}

func TestLabelsFollowLanguage(t *testing.T) {
	ko := CuisineTypes("ko")
	en := CuisineTypes("en")
	require.Equal(t, len(ko), len(en))

	assert.Equal(t, "한식", ko[1].Label)
	assert.Equal(t, "Korean", en[1].Label)

	// Unknown languages fall back to Korean.
	fr := FoodTypes("fr")
	assert.Equal(t, "전체", fr[0].Label)
}

func TestValidFoodType(t *testing.T) {
	for _, v := range FoodTypeValues() {
		assert.True(t, ValidFoodType(v), v)
	}
	assert.False(t, ValidFoodType("Klingon"))
	assert.False(t, ValidFoodType(""))
	assert.False(t, ValidFoodType("Meal")) // values are case sensitive
}

func TestValidCuisineType(t *testing.T) {
	for _, v := range CuisineTypeValues() {
		assert.True(t, ValidCuisineType(v), v)
	}
	assert.True(t, ValidCuisineType("Korean"))
	assert.False(t, ValidCuisineType("Klingon"))
	assert.False(t, ValidCuisineType("Atlantis"))
}

func TestValidSituation(t *testing.T) {
	for _, v := range SituationValues() {
		assert.True(t, ValidSituation(v), v)
	}
	assert.True(t, ValidSituation("solo dining"))
	assert.False(t, ValidSituation("space battle"))
}

func TestChoicesExcludeAll(t *testing.T) {
	for _, vals := range [][]string{FoodTypeChoices(), CuisineTypeChoices(), SituationChoices()} {
		require.NotEmpty(t, vals)
		assert.NotContains(t, vals, All)
	}
	assert.Len(t, FoodTypeChoices(), len(FoodTypeValues())-1)
}
