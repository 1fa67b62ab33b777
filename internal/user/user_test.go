package user

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menupick/internal/aiservice"
	"menupick/internal/database"
	"menupick/internal/weather"
)

// emptyDB answers every lookup with no rows, standing in for a
// database that holds no users.
type emptyDB struct{}

type noRow struct{}

func (noRow) Scan(...any) error { return pgx.ErrNoRows }

func (emptyDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("DELETE 0"), nil
}

func (emptyDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("db unavailable")
}

func (emptyDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return noRow{}
}

type silentProvider struct{}

func (silentProvider) Generate(context.Context, string) (string, error) {
	return "", errors.New("provider disabled")
}

func setupHandlers(t *testing.T) {
	t.Helper()
	q := database.New(emptyDB{})
	InitUserPackage(q, aiservice.New(q, silentProvider{}, weather.New()))
}

func doRequest(method, target, body string, params map[string]string) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	return rec, c
}

func TestCreateUserHandlerRejectsBadTimezone(t *testing.T) {
	setupHandlers(t)

	rec, c := doRequest(http.MethodPost, "/users", `{"timezone":"Mars/Olympus"}`, nil)
	require.NoError(t, CreateUserHandler(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid timezone")
}

func TestGetUserHandlerUnknownUser(t *testing.T) {
	setupHandlers(t)

	rec, c := doRequest(http.MethodGet, "/users/nope", "", map[string]string{"uuid": "nope"})
	require.NoError(t, GetUserHandler(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "User not found")
}

func TestUpdateUserHandlerValidation(t *testing.T) {
	setupHandlers(t)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"latitude out of range", `{"location_lat":120.5}`, "Invalid location_lat"},
		{"longitude out of range", `{"location_lng":-200}`, "Invalid location_lng"},
		{"unknown timezone", `{"timezone":"Nowhere/Void"}`, "Invalid timezone"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, c := doRequest(http.MethodPatch, "/users/u", tc.body, map[string]string{"uuid": "u"})
			require.NoError(t, UpdateUserHandler(c))
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
}

func TestDeleteUserHandlerUnknownUser(t *testing.T) {
	setupHandlers(t)

	rec, c := doRequest(http.MethodDelete, "/users/ghost", "", map[string]string{"uuid": "ghost"})
	require.NoError(t, DeleteUserHandler(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRecommendationHandlerRejectsBadFilter(t *testing.T) {
	setupHandlers(t)

	// Unknown user trips first; filter validation needs an existing
	// user, so this exercises the 404 guard.
	rec, c := doRequest(http.MethodPost, "/users/u/recommendations",
		`{"food_type":"dessert"}`, map[string]string{"uuid": "u"})
	require.NoError(t, CreateRecommendationHandler(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
