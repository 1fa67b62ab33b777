package utility

import (
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// GetRealIP is a helper function to get the user's real IP address.
// It checks proxy headers first.
func GetRealIP(c echo.Context) string {
	// X-Forwarded-For can be a list: "client, proxy1, proxy2"
	xForwardedFor := c.Request().Header.Get("X-Forwarded-For")
	if xForwardedFor != "" {
		ips := strings.Split(xForwardedFor, ",")
		return strings.TrimSpace(ips[0])
	}

	xRealIP := c.Request().Header.Get("X-Real-IP")
	if xRealIP != "" {
		return xRealIP
	}

	return c.RealIP()
}

// TextToString unwraps a nullable text column, returning "" for NULL.
func TextToString(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// Float8Ptr unwraps a nullable float column to a pointer for JSON
// responses where NULL must stay null.
func Float8Ptr(f pgtype.Float8) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

// IsDevelopment reports whether the app runs with APP_ENV=development.
// Error responses only carry internal detail in development.
func IsDevelopment() bool {
	return os.Getenv("APP_ENV") == "development"
}

// InternalError logs the underlying cause and returns the uniform
// {error, details?} envelope. The details key is suppressed outside
// development.
func InternalError(c echo.Context, status int, message string, err error) error {
	log.Error().Err(err).Str("path", c.Path()).Msg(message)

	body := map[string]string{"error": message}
	if err != nil && IsDevelopment() {
		body["details"] = err.Error()
	}
	return c.JSON(status, body)
}
