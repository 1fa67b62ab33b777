package database

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Stored JSON columns must render as JSON objects on the wire, not as
// base64 strings.
func TestMenuRecommendationMarshalsContextAsObject(t *testing.T) {
	rec := MenuRecommendation{
		ID:       1,
		MenuName: "김치찌개",
		Context:  json.RawMessage(`{"current_time":"2026-08-28 12:00 KST","weather":"18°C, 맑음","location":"Seoul, KR"}`),
	}

	out, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))

	snap, ok := decoded["context"].(map[string]any)
	require.True(t, ok, "context should decode as an object, got %T", decoded["context"])
	assert.Equal(t, "Seoul, KR", snap["location"])
}

func TestUserMarshalsPreferencesAsObject(t *testing.T) {
	u := User{
		Uuid:        "abc",
		Timezone:    "Asia/Seoul",
		Preferences: json.RawMessage(`{"spice_level":"mild"}`),
	}

	out, err := json.Marshal(u)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))

	prefs, ok := decoded["preferences"].(map[string]any)
	require.True(t, ok, "preferences should decode as an object, got %T", decoded["preferences"])
	assert.Equal(t, "mild", prefs["spice_level"])
}
