package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menupick/internal/aiservice"
	"menupick/internal/database"
	"menupick/internal/weather"
)

/* =================================================================================
                                 TEST DOUBLES
=================================================================================*/

type userRow struct {
	user database.User
}

func (r userRow) Scan(dest ...any) error {
	u := r.user
	*dest[0].(*int64) = u.ID
	*dest[1].(*string) = u.Uuid
	*dest[2].(*string) = u.Timezone
	*dest[3].(*pgtype.Float8) = u.LocationLat
	*dest[4].(*pgtype.Float8) = u.LocationLng
	*dest[5].(*json.RawMessage) = u.Preferences
	*dest[6].(*bool) = u.IsAdmin
	*dest[7].(*pgtype.Timestamptz) = u.CreatedAt
	*dest[8].(*pgtype.Timestamptz) = u.UpdatedAt
	return nil
}

type recRow struct {
	rec database.MenuRecommendation
}

func (r recRow) Scan(dest ...any) error {
	m := r.rec
	*dest[0].(*int64) = m.ID
	*dest[1].(*int64) = m.UserID
	*dest[2].(*string) = m.MenuName
	*dest[3].(*pgtype.Text) = m.Description
	*dest[4].(*string) = m.FoodType
	*dest[5].(*string) = m.CuisineType
	*dest[6].(*string) = m.Situation
	*dest[7].(*bool) = m.Accepted
	*dest[8].(*bool) = m.Declined
	*dest[9].(*pgtype.Timestamptz) = m.RecommendedAt
	*dest[10].(*pgtype.Timestamptz) = m.RespondedAt
	*dest[11].(*json.RawMessage) = m.Context
	return nil
}

type prefRow struct {
	pref database.UserPreference
}

func (r prefRow) Scan(dest ...any) error {
	p := r.pref
	*dest[0].(*int64) = p.ID
	*dest[1].(*int64) = p.UserID
	*dest[2].(*pgtype.Text) = p.FoodType
	*dest[3].(*pgtype.Text) = p.CuisineType
	*dest[4].(*pgtype.Text) = p.Situation
	*dest[5].(*pgtype.Float8) = p.PreferenceWeight
	return nil
}

// scriptDB serves QueryRow answers in a fixed order, errors every list
// query (history sections degrade to empty), and counts writes.
type scriptDB struct {
	mu    sync.Mutex
	rows  []pgx.Row
	execs int
}

func (db *scriptDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.execs++
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (db *scriptDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("no list queries scripted")
}

func (db *scriptDB) QueryRow(context.Context, string, ...any) pgx.Row {
	db.mu.Lock()
	defer db.mu.Unlock()
	if len(db.rows) == 0 {
		return noRow{}
	}
	r := db.rows[0]
	db.rows = db.rows[1:]
	return r
}

func (db *scriptDB) execCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.execs
}

// emptyRows is a result set with no rows.
type emptyRows struct{}

func (emptyRows) Close()                                       {}
func (emptyRows) Err() error                                   { return nil }
func (emptyRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT 0") }
func (emptyRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (emptyRows) Next() bool                                   { return false }
func (emptyRows) Scan(...any) error                            { return pgx.ErrNoRows }
func (emptyRows) Values() ([]any, error)                       { return nil, nil }
func (emptyRows) RawValues() [][]byte                          { return nil }
func (emptyRows) Conn() *pgx.Conn                              { return nil }

// emptyListDB answers user lookups and returns empty result sets for
// every list query.
type emptyListDB struct {
	user database.User
}

func (db emptyListDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not supported in test")
}

func (db emptyListDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return emptyRows{}, nil
}

func (db emptyListDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return userRow{user: db.user}
}

// recordingProvider captures each prompt and answers with a canned
// reply.
type recordingProvider struct {
	mu      sync.Mutex
	prompts []string
	reply   string
}

func (p *recordingProvider) Generate(_ context.Context, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	return p.reply, nil
}

func (p *recordingProvider) captured() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.prompts...)
}

func testUser() database.User {
	return database.User{ID: 1, Uuid: "u-1", Timezone: "Asia/Seoul", Preferences: json.RawMessage(`{}`)}
}

func pendingRec() database.MenuRecommendation {
	return database.MenuRecommendation{
		ID: 7, UserID: 1, MenuName: "불고기",
		FoodType: "meal", CuisineType: "Korean", Situation: "date",
		Context: json.RawMessage(`{"current_time":"2026-08-27 19:00 KST"}`),
	}
}

func setupScripted(t *testing.T, db *scriptDB) *recordingProvider {
	t.Helper()
	provider := &recordingProvider{reply: `{"menu_name":"팟타이","description":"새콤달콤한 볶음면입니다."}`}
	q := database.New(db)
	InitUserPackage(q, aiservice.New(q, provider, weather.New()))
	return provider
}

/* =================================================================================
                                    TESTS
=================================================================================*/

// Declining regenerates from the filters the respond request itself
// carries, not from the declined row's stored values. An empty request
// means "all" on every field, so the prompt must open each field to
// its choice list even though the declined row was pinned to concrete
// values.
func TestRespondDeclineRegeneratesFromRequestFilters(t *testing.T) {
	responded := pendingRec()
	responded.Declined = true

	db := &scriptDB{rows: []pgx.Row{
		userRow{user: testUser()},
		recRow{rec: pendingRec()},
		recRow{rec: responded},
		noRow{}, // no stored preference
		recRow{rec: database.MenuRecommendation{ID: 8, UserID: 1, MenuName: "팟타이", FoodType: "all", CuisineType: "all", Situation: "all"}},
	}}
	provider := setupScripted(t, db)

	rec, c := doRequest(http.MethodPatch, "/users/u-1/recommendations/7/respond",
		`{"accept":false}`, map[string]string{"uuid": "u-1"})
	c.SetParamNames("uuid", "id")
	c.SetParamValues("u-1", "7")

	require.NoError(t, RespondRecommendationHandler(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "New recommendation generated")

	prompts := provider.captured()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "다음 중에서 가장 적합한 것을 선택해주세요")
	assert.Contains(t, prompts[0], "국제 음식 추천 전문가")
	assert.NotContains(t, prompts[0], "Korean 음식 추천 전문가")
}

func TestRespondDeclineHonorsPinnedRequestFilter(t *testing.T) {
	responded := pendingRec()
	responded.Declined = true

	db := &scriptDB{rows: []pgx.Row{
		userRow{user: testUser()},
		recRow{rec: pendingRec()},
		recRow{rec: responded},
		noRow{},
		recRow{rec: database.MenuRecommendation{ID: 8, UserID: 1, MenuName: "비빔밥", CuisineType: "Korean"}},
	}}
	provider := setupScripted(t, db)

	rec, c := doRequest(http.MethodPatch, "/users/u-1/recommendations/7/respond",
		`{"accept":false,"cuisine_type":"Korean"}`, map[string]string{"uuid": "u-1"})
	c.SetParamNames("uuid", "id")
	c.SetParamValues("u-1", "7")

	require.NoError(t, RespondRecommendationHandler(c))
	require.Equal(t, http.StatusOK, rec.Code)

	prompts := provider.captured()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Korean 음식 추천 전문가")
}

// Accepting only flips the row's state. No preference write, no
// generation, no other insert may happen.
func TestRespondAcceptHasNoSideEffects(t *testing.T) {
	responded := pendingRec()
	responded.Accepted = true

	db := &scriptDB{rows: []pgx.Row{
		userRow{user: testUser()},
		recRow{rec: pendingRec()},
		recRow{rec: responded},
	}}
	provider := setupScripted(t, db)

	rec, c := doRequest(http.MethodPatch, "/users/u-1/recommendations/7/respond",
		`{"accept":true}`, map[string]string{"uuid": "u-1"})
	c.SetParamNames("uuid", "id")
	c.SetParamValues("u-1", "7")

	require.NoError(t, RespondRecommendationHandler(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Response recorded")

	assert.Zero(t, db.execCount(), "accept must not write beyond the state transition")
	assert.Empty(t, provider.captured(), "accept must not trigger generation")
}

// The list endpoint returns the recommendations as a bare JSON array.
func TestListRecommendationsReturnsBareArray(t *testing.T) {
	q := database.New(emptyListDB{user: testUser()})
	InitUserPackage(q, aiservice.New(q, &recordingProvider{}, weather.New()))

	rec, c := doRequest(http.MethodGet, "/users/u-1/recommendations", "", map[string]string{"uuid": "u-1"})
	require.NoError(t, ListRecommendationsHandler(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

// Creation returns the stored record itself, not a wrapper object.
func TestCreateRecommendationReturnsBareRecord(t *testing.T) {
	db := &scriptDB{rows: []pgx.Row{
		userRow{user: testUser()},
		noRow{},
		recRow{rec: database.MenuRecommendation{ID: 9, UserID: 1, MenuName: "팟타이", FoodType: "all", CuisineType: "all", Situation: "all"}},
	}}
	setupScripted(t, db)

	rec, c := doRequest(http.MethodPost, "/users/u-1/recommendations", `{}`, map[string]string{"uuid": "u-1"})
	require.NoError(t, CreateRecommendationHandler(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "팟타이", got["menu_name"])
	assert.NotContains(t, got, "recommendation")
}

// The profile's preferences object carries only the fields the top
// preference actually has.
func TestGetUserHandlerCompactsPreferences(t *testing.T) {
	db := &scriptDB{rows: []pgx.Row{
		userRow{user: testUser()},
		prefRow{pref: database.UserPreference{
			ID: 1, UserID: 1,
			FoodType:         pgtype.Text{String: "meal", Valid: true},
			PreferenceWeight: pgtype.Float8{Float64: 3, Valid: true},
		}},
	}}
	setupScripted(t, db)

	rec, c := doRequest(http.MethodGet, "/users/u-1", "", map[string]string{"uuid": "u-1"})
	require.NoError(t, GetUserHandler(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Preferences map[string]any `json:"preferences"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "meal", got.Preferences["food_type"])
	assert.Equal(t, 3.0, got.Preferences["preference_weight"])
	assert.NotContains(t, got.Preferences, "cuisine_type")
	assert.NotContains(t, got.Preferences, "situation")
}
