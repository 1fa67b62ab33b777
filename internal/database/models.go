package database

import (
	"encoding/json"

	"github.com/jackc/pgx/v5/pgtype"
)

// User is a device-bound account identified by an opaque uuid. The
// uuid is generated once at creation and never changes.
type User struct {
	ID          int64              `json:"id"`
	Uuid        string             `json:"uuid"`
	Timezone    string             `json:"timezone"`
	LocationLat pgtype.Float8      `json:"location_lat"`
	LocationLng pgtype.Float8      `json:"location_lng"`
	Preferences json.RawMessage    `json:"preferences"`
	IsAdmin     bool               `json:"is_admin"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

// MenuRecommendation is one AI-suggested menu tied to a user. Accepted
// and declined are mutually exclusive; both false means pending.
// Context holds the time/weather/location snapshot captured when the
// recommendation was made, later merged with a response-time snapshot.
type MenuRecommendation struct {
	ID            int64              `json:"id"`
	UserID        int64              `json:"user_id"`
	MenuName      string             `json:"menu_name"`
	Description   pgtype.Text        `json:"description"`
	FoodType      string             `json:"food_type"`
	CuisineType   string             `json:"cuisine_type"`
	Situation     string             `json:"situation"`
	Accepted      bool               `json:"accepted"`
	Declined      bool               `json:"declined"`
	RecommendedAt pgtype.Timestamptz `json:"recommended_at"`
	RespondedAt   pgtype.Timestamptz `json:"responded_at"`
	Context       json.RawMessage    `json:"context"`
}

// UserPreference records how often a user accepted a particular
// food/cuisine/situation triple. The highest-weight row is treated as
// the user's current preference when building prompts.
type UserPreference struct {
	ID               int64         `json:"id"`
	UserID           int64         `json:"user_id"`
	FoodType         pgtype.Text   `json:"food_type"`
	CuisineType      pgtype.Text   `json:"cuisine_type"`
	Situation        pgtype.Text   `json:"situation"`
	PreferenceWeight pgtype.Float8 `json:"preference_weight"`
}

// AiInteraction logs one raw prompt/response exchange with the
// generative provider.
type AiInteraction struct {
	ID          int64              `json:"id"`
	UserID      int64              `json:"user_id"`
	Prompt      pgtype.Text        `json:"prompt"`
	Response    pgtype.Text        `json:"response"`
	ContextData json.RawMessage    `json:"context_data"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

// UserInsight stores a generated insight summary.
type UserInsight struct {
	ID          int64              `json:"id"`
	UserID      int64              `json:"user_id"`
	InsightType pgtype.Text        `json:"insight_type"`
	InsightData json.RawMessage    `json:"insight_data"`
	GeneratedAt pgtype.Timestamptz `json:"generated_at"`
}

// InactiveUserRow is one user from the inactivity snapshot together
// with the derived last-activity timestamp.
type InactiveUserRow struct {
	ID             int64              `json:"id"`
	Uuid           string             `json:"uuid"`
	LastActivityAt pgtype.Timestamptz `json:"last_activity_at"`
}
