package user

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"menupick/internal/aiservice"
	"menupick/internal/database"
	"menupick/internal/menuoptions"
	"menupick/internal/utility"
)

const recommendationPageSize = 20

/* =================================================================================
                            DTOs (Data Transfer Objects)
=================================================================================*/

// RecommendationRequest carries the optional filter triple. A missing
// field means "all", i.e. the model picks.
type RecommendationRequest struct {
	FoodType    string `json:"food_type" query:"food_type"`
	CuisineType string `json:"cuisine_type" query:"cuisine_type"`
	Situation   string `json:"situation" query:"situation"`
}

// RespondRequest records the user's verdict. Accept is a pointer so a
// missing key is distinguishable from an explicit false (decline). The
// filter triple is what the client is currently asking for; on decline
// the replacement is generated from it, missing fields meaning "all".
type RespondRequest struct {
	Accept      *bool  `json:"accept"`
	FoodType    string `json:"food_type" query:"food_type"`
	CuisineType string `json:"cuisine_type" query:"cuisine_type"`
	Situation   string `json:"situation" query:"situation"`
}

/* =================================================================================
                            RECOMMENDATION HANDLERS
=================================================================================*/

// ListRecommendationsHandler returns the user's newest recommendations.
func ListRecommendationsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := queries.GetUserByUuid(ctx, c.Param("uuid"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}

	recs, err := queries.ListMenuRecommendations(ctx, u.ID, recommendationPageSize)
	if err != nil {
		return utility.InternalError(c, http.StatusInternalServerError, "Failed to fetch recommendations", err)
	}
	if recs == nil {
		recs = []database.MenuRecommendation{}
	}

	return c.JSON(http.StatusOK, recs)
}

// CreateRecommendationHandler asks the AI service for a menu and stores
// the result. Filters default to "all" and are validated against the
// options registry before any provider call.
func CreateRecommendationHandler(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := queries.GetUserByUuid(ctx, c.Param("uuid"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}

	var req RecommendationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	filters, vErr := resolveFilters(req)
	if vErr != "" {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": vErr})
	}

	row, genErr := generateAndStore(c, u, filters)
	if genErr != nil {
		return utility.InternalError(c, http.StatusInternalServerError, "Failed to generate recommendation", genErr)
	}

	return c.JSON(http.StatusCreated, row)
}

// RespondRecommendationHandler records an accept or decline. Declining
// makes the decline durable first, then generates a replacement from
// the request's own filter triple, not the declined row's values. The
// response is first-write-wins: a second respond gets 409.
func RespondRecommendationHandler(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := queries.GetUserByUuid(ctx, c.Param("uuid"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}

	recID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Recommendation not found"})
	}

	var req RespondRequest
	if err := c.Bind(&req); err != nil || req.Accept == nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "accept is required"})
	}
	accept := *req.Accept

	// Validated up front so a bad filter cannot leave a decline recorded
	// with no replacement.
	filters, vErr := resolveFilters(RecommendationRequest{
		FoodType:    req.FoodType,
		CuisineType: req.CuisineType,
		Situation:   req.Situation,
	})
	if vErr != "" {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": vErr})
	}

	rec, err := queries.GetMenuRecommendation(ctx, recID, u.ID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Recommendation not found"})
	}
	if rec.Accepted || rec.Declined {
		return c.JSON(http.StatusConflict, map[string]string{"error": "Recommendation already responded to"})
	}

	responseBase := ai.BaseContext(ctx, u)

	updated, err := queries.RespondMenuRecommendation(ctx, database.RespondMenuRecommendationParams{
		ID:          recID,
		UserID:      u.ID,
		Accepted:    accept,
		Declined:    !accept,
		RespondedAt: time.Now(),
		Context:     mergeResponseContext(rec.Context, responseBase),
	})
	if err != nil {
		if isNoRows(err) {
			// A concurrent respond won the conditional update.
			return c.JSON(http.StatusConflict, map[string]string{"error": "Recommendation already responded to"})
		}
		return utility.InternalError(c, http.StatusInternalServerError, "Failed to record response", err)
	}

	if accept {
		return c.JSON(http.StatusOK, map[string]any{
			"message":        "Response recorded",
			"recommendation": updated,
		})
	}

	// Decline is already durable; regeneration failure must not undo it.
	replacement, genErr := generateAndStore(c, u, filters)
	if genErr != nil {
		return utility.InternalError(c, http.StatusInternalServerError, "Failed to generate new recommendation", genErr)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message":        "New recommendation generated",
		"recommendation": replacement,
	})
}

// GreetingHandler returns a short contextual greeting. The AI service
// never fails here; the canned greeting covers provider outages.
func GreetingHandler(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := queries.GetUserByUuid(ctx, c.Param("uuid"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}

	var req RecommendationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	filters, vErr := resolveFilters(req)
	if vErr != "" {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": vErr})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"greeting": ai.GenerateGreeting(ctx, u, filters),
	})
}

// InsightsHandler returns 3-5 sentences about the user's food patterns.
func InsightsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := queries.GetUserByUuid(ctx, c.Param("uuid"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"insights": ai.GenerateInsights(ctx, u),
	})
}

/* =================================================================================
                                    HELPERS
=================================================================================*/

// resolveFilters defaults missing fields to "all" and validates each
// against the options registry. The returned string is the validation
// error message, empty when valid.
func resolveFilters(req RecommendationRequest) (aiservice.Filters, string) {
	f := aiservice.Filters{
		FoodType:    defaultAll(req.FoodType),
		CuisineType: defaultAll(req.CuisineType),
		Situation:   defaultAll(req.Situation),
	}

	if !menuoptions.ValidFoodType(f.FoodType) {
		return f, "Invalid food_type"
	}
	if !menuoptions.ValidCuisineType(f.CuisineType) {
		return f, "Invalid cuisine_type"
	}
	if !menuoptions.ValidSituation(f.Situation) {
		return f, "Invalid situation"
	}
	return f, ""
}

func defaultAll(v string) string {
	if v == "" {
		return menuoptions.All
	}
	return v
}

// generateAndStore runs one generation round trip and persists the
// result. Stored field values are the request filters with any "all"
// replaced by a validated detected value; an "all" the model did not
// resolve is stored as-is.
func generateAndStore(c echo.Context, u database.User, f aiservice.Filters) (database.MenuRecommendation, error) {
	ctx := c.Request().Context()

	rec, base, err := ai.GenerateRecommendation(ctx, u, f)
	if err != nil {
		return database.MenuRecommendation{}, err
	}

	contextJSON, _ := json.Marshal(base)

	row, err := queries.CreateMenuRecommendation(ctx, database.CreateMenuRecommendationParams{
		UserID:        u.ID,
		MenuName:      rec.MenuName,
		Description:   pgtype.Text{String: rec.Description, Valid: rec.Description != ""},
		FoodType:      detectedOr(f.FoodType, rec.DetectedFoodType),
		CuisineType:   detectedOr(f.CuisineType, rec.DetectedCuisineType),
		Situation:     detectedOr(f.Situation, rec.DetectedSituation),
		RecommendedAt: time.Now(),
		Context:       contextJSON,
	})
	if err != nil {
		return database.MenuRecommendation{}, err
	}

	log.Info().Str("uuid", u.Uuid).Str("menu_name", row.MenuName).Msg("Recommendation created")
	return row, nil
}

// detectedOr substitutes a detected value only for the "all" sentinel;
// a pinned filter always wins.
func detectedOr(filter, detected string) string {
	if filter == menuoptions.All && detected != "" {
		return detected
	}
	return filter
}

// mergeResponseContext adds the response-time snapshot under the
// "response_context" key, preserving every original key.
func mergeResponseContext(original []byte, base aiservice.BaseContext) []byte {
	merged := map[string]any{}
	if len(original) > 0 {
		if err := json.Unmarshal(original, &merged); err != nil {
			log.Warn().Err(err).Msg("Stored recommendation context is not valid JSON")
			merged = map[string]any{}
		}
	}
	merged["response_context"] = base

	out, _ := json.Marshal(merged)
	return out
}
