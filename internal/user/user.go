/*
Package user implements the device-account and recommendation HTTP
handlers. Accounts are identified by an opaque uuid issued at creation;
there are no credentials, the uuid is the whole identity.
*/
package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"menupick/internal/aiservice"
	"menupick/internal/database"
	"menupick/internal/utility"
)

const defaultTimezone = "Asia/Seoul"

var (
	queries *database.Queries
	ai      *aiservice.Service
)

// InitUserPackage wires the package-level dependencies, mirroring the
// other handler packages.
func InitUserPackage(q *database.Queries, svc *aiservice.Service) {
	queries = q
	ai = svc
	log.Info().Msg("User package initialized.")
}

/* =================================================================================
                            DTOs (Data Transfer Objects)
=================================================================================*/

// CreateUserRequest carries the optional initial timezone.
type CreateUserRequest struct {
	Timezone string `json:"timezone" form:"timezone"`
}

// UpdateUserRequest uses pointers so absent fields leave the stored
// value untouched (PATCH semantics).
type UpdateUserRequest struct {
	Timezone    *string         `json:"timezone"`
	LocationLat *float64        `json:"location_lat"`
	LocationLng *float64        `json:"location_lng"`
	Preferences json.RawMessage `json:"preferences"`
}

// UserResponse is the public profile shape. Preferences is the user's
// highest-weight accepted triple, or an empty object before any
// acceptance.
type UserResponse struct {
	Uuid        string         `json:"uuid"`
	Timezone    string         `json:"timezone"`
	Preferences map[string]any `json:"preferences"`
}

/* =================================================================================
                                ACCOUNT HANDLERS
=================================================================================*/

// CreateUserHandler issues a fresh account uuid. The uuid is the only
// credential the client ever holds.
func CreateUserHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateUserRequest
	_ = c.Bind(&req) // empty body is a valid request

	tz := req.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "Invalid timezone"})
	}

	u, err := queries.CreateUser(ctx, database.CreateUserParams{
		Uuid:     uuid.New().String(),
		Timezone: tz,
	})
	if err != nil {
		return utility.InternalError(c, http.StatusInternalServerError, "Failed to create user", err)
	}

	log.Info().Str("uuid", u.Uuid).Msg("User created")
	return c.JSON(http.StatusCreated, map[string]string{"uuid": u.Uuid})
}

// GetUserHandler returns the profile with the current top preference.
func GetUserHandler(c echo.Context) error {
	ctx := c.Request().Context()

	u, err := queries.GetUserByUuid(ctx, c.Param("uuid"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}

	// Absent fields are dropped rather than sent as nulls or empty
	// strings.
	prefs := map[string]any{}
	if top, err := queries.GetTopUserPreference(ctx, u.ID); err == nil {
		if v := utility.TextToString(top.FoodType); v != "" {
			prefs["food_type"] = v
		}
		if v := utility.TextToString(top.CuisineType); v != "" {
			prefs["cuisine_type"] = v
		}
		if v := utility.TextToString(top.Situation); v != "" {
			prefs["situation"] = v
		}
		if top.PreferenceWeight.Valid {
			prefs["preference_weight"] = top.PreferenceWeight.Float64
		}
	}

	return c.JSON(http.StatusOK, UserResponse{
		Uuid:        u.Uuid,
		Timezone:    u.Timezone,
		Preferences: prefs,
	})
}

// UpdateUserHandler applies a partial profile update.
func UpdateUserHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	params := database.UpdateUserParams{Uuid: c.Param("uuid")}

	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "Invalid timezone"})
		}
		params.Timezone = pgtypeText(*req.Timezone)
	}
	if req.LocationLat != nil {
		if *req.LocationLat < -90 || *req.LocationLat > 90 {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "Invalid location_lat"})
		}
		params.LocationLat = pgtypeFloat8(*req.LocationLat)
	}
	if req.LocationLng != nil {
		if *req.LocationLng < -180 || *req.LocationLng > 180 {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "Invalid location_lng"})
		}
		params.LocationLng = pgtypeFloat8(*req.LocationLng)
	}
	if req.Preferences != nil {
		if !json.Valid(req.Preferences) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "Invalid preferences"})
		}
		params.Preferences = req.Preferences
	}

	if _, err := queries.UpdateUser(ctx, params); err != nil {
		if isNoRows(err) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
		}
		return utility.InternalError(c, http.StatusInternalServerError, "Failed to update user", err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "User updated"})
}

// DeleteUserHandler removes the account and, by schema cascade, every
// recommendation, preference, interaction and insight it owns.
func DeleteUserHandler(c echo.Context) error {
	ctx := c.Request().Context()

	n, err := queries.DeleteUserByUuid(ctx, c.Param("uuid"))
	if err != nil {
		return utility.InternalError(c, http.StatusInternalServerError, "Failed to delete user", err)
	}
	if n == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}

	log.Info().Str("uuid", c.Param("uuid")).Msg("User deleted")
	return c.JSON(http.StatusOK, map[string]string{"message": "User deleted"})
}

/* =================================================================================
                                    HELPERS
=================================================================================*/

func pgtypeText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}

func pgtypeFloat8(f float64) pgtype.Float8 {
	return pgtype.Float8{Float64: f, Valid: true}
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
