package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the subset of pgx a query needs, satisfied by both
// *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries is the hand-written query layer over the menupick schema.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

/* =================================================================================
                                    USERS
=================================================================================*/

const createUser = `
INSERT INTO users (uuid, timezone, preferences)
VALUES ($1, $2, '{}'::jsonb)
RETURNING id, uuid, timezone, location_lat, location_lng, preferences, is_admin, created_at, updated_at
`

type CreateUserParams struct {
	Uuid     string
	Timezone string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.Uuid, arg.Timezone)
	return scanUser(row)
}

const getUserByUuid = `
SELECT id, uuid, timezone, location_lat, location_lng, preferences, is_admin, created_at, updated_at
FROM users
WHERE uuid = $1
`

func (q *Queries) GetUserByUuid(ctx context.Context, uuid string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByUuid, uuid)
	return scanUser(row)
}

const updateUser = `
UPDATE users
SET timezone     = COALESCE($2, timezone),
    location_lat = COALESCE($3, location_lat),
    location_lng = COALESCE($4, location_lng),
    preferences  = COALESCE($5, preferences),
    updated_at   = now()
WHERE uuid = $1
RETURNING id, uuid, timezone, location_lat, location_lng, preferences, is_admin, created_at, updated_at
`

type UpdateUserParams struct {
	Uuid        string
	Timezone    pgtype.Text
	LocationLat pgtype.Float8
	LocationLng pgtype.Float8
	Preferences []byte // nil leaves the stored blob untouched
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUser,
		arg.Uuid, arg.Timezone, arg.LocationLat, arg.LocationLng, arg.Preferences)
	return scanUser(row)
}

const deleteUserByUuid = `
DELETE FROM users WHERE uuid = $1
`

// DeleteUserByUuid removes the user; owned recommendations,
// preferences, interactions and insights cascade at the schema level.
func (q *Queries) DeleteUserByUuid(ctx context.Context, uuid string) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteUserByUuid, uuid)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteUserByID = `
DELETE FROM users WHERE id = $1
`

func (q *Queries) DeleteUserByID(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, deleteUserByID, id)
	return err
}

const countUsers = `
SELECT COUNT(*) FROM users
`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countUsers).Scan(&n)
	return n, err
}

/* =================================================================================
                             MENU RECOMMENDATIONS
=================================================================================*/

const recommendationColumns = `id, user_id, menu_name, description, food_type, cuisine_type, situation, accepted, declined, recommended_at, responded_at, context`

const createMenuRecommendation = `
INSERT INTO menu_recommendations (user_id, menu_name, description, food_type, cuisine_type, situation, recommended_at, context)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + recommendationColumns

type CreateMenuRecommendationParams struct {
	UserID        int64
	MenuName      string
	Description   pgtype.Text
	FoodType      string
	CuisineType   string
	Situation     string
	RecommendedAt time.Time
	Context       []byte
}

func (q *Queries) CreateMenuRecommendation(ctx context.Context, arg CreateMenuRecommendationParams) (MenuRecommendation, error) {
	row := q.db.QueryRow(ctx, createMenuRecommendation,
		arg.UserID, arg.MenuName, arg.Description, arg.FoodType, arg.CuisineType,
		arg.Situation, arg.RecommendedAt, arg.Context)
	return scanRecommendation(row)
}

const getMenuRecommendation = `
SELECT ` + recommendationColumns + `
FROM menu_recommendations
WHERE id = $1 AND user_id = $2
`

func (q *Queries) GetMenuRecommendation(ctx context.Context, id, userID int64) (MenuRecommendation, error) {
	row := q.db.QueryRow(ctx, getMenuRecommendation, id, userID)
	return scanRecommendation(row)
}

const listMenuRecommendations = `
SELECT ` + recommendationColumns + `
FROM menu_recommendations
WHERE user_id = $1
ORDER BY recommended_at DESC
LIMIT $2
`

func (q *Queries) ListMenuRecommendations(ctx context.Context, userID int64, limit int32) ([]MenuRecommendation, error) {
	rows, err := q.db.Query(ctx, listMenuRecommendations, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecommendations(rows)
}

const listRecentMenusByOutcome = `
SELECT ` + recommendationColumns + `
FROM menu_recommendations
WHERE user_id = $1
  AND recommended_at > $2
  AND (CASE WHEN $3 THEN accepted ELSE declined END) = TRUE
ORDER BY recommended_at DESC
LIMIT $4
`

type ListRecentMenusByOutcomeParams struct {
	UserID   int64
	Since    time.Time
	Accepted bool
	Limit    int32
}

// ListRecentMenusByOutcome returns the newest accepted (or declined)
// menus since the cutoff, used for prompt history.
func (q *Queries) ListRecentMenusByOutcome(ctx context.Context, arg ListRecentMenusByOutcomeParams) ([]MenuRecommendation, error) {
	rows, err := q.db.Query(ctx, listRecentMenusByOutcome, arg.UserID, arg.Since, arg.Accepted, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecommendations(rows)
}

const listMenusByOutcome = `
SELECT ` + recommendationColumns + `
FROM menu_recommendations
WHERE user_id = $1
  AND (CASE WHEN $2 THEN accepted ELSE declined END) = TRUE
ORDER BY recommended_at DESC
`

// ListMenusByOutcome returns every accepted (or declined)
// recommendation for a user, used for insight aggregation.
func (q *Queries) ListMenusByOutcome(ctx context.Context, userID int64, accepted bool) ([]MenuRecommendation, error) {
	rows, err := q.db.Query(ctx, listMenusByOutcome, userID, accepted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecommendations(rows)
}

const respondMenuRecommendation = `
UPDATE menu_recommendations
SET accepted     = $3,
    declined     = $4,
    responded_at = $5,
    context      = $6
WHERE id = $1 AND user_id = $2 AND accepted = FALSE AND declined = FALSE
RETURNING ` + recommendationColumns

type RespondMenuRecommendationParams struct {
	ID          int64
	UserID      int64
	Accepted    bool
	Declined    bool
	RespondedAt time.Time
	Context     []byte
}

// RespondMenuRecommendation records the accept/decline outcome. The
// WHERE clause only matches a still-pending row, so of two concurrent
// responses the first write wins and the second gets pgx.ErrNoRows.
func (q *Queries) RespondMenuRecommendation(ctx context.Context, arg RespondMenuRecommendationParams) (MenuRecommendation, error) {
	row := q.db.QueryRow(ctx, respondMenuRecommendation,
		arg.ID, arg.UserID, arg.Accepted, arg.Declined, arg.RespondedAt, arg.Context)
	return scanRecommendation(row)
}

/* =================================================================================
                               USER PREFERENCES
=================================================================================*/

const getTopUserPreference = `
SELECT id, user_id, food_type, cuisine_type, situation, preference_weight
FROM user_preferences
WHERE user_id = $1
ORDER BY preference_weight DESC
LIMIT 1
`

func (q *Queries) GetTopUserPreference(ctx context.Context, userID int64) (UserPreference, error) {
	var p UserPreference
	err := q.db.QueryRow(ctx, getTopUserPreference, userID).Scan(
		&p.ID, &p.UserID, &p.FoodType, &p.CuisineType, &p.Situation, &p.PreferenceWeight)
	return p, err
}

/* =================================================================================
                          AI INTERACTIONS & INSIGHTS
=================================================================================*/

const createAiInteraction = `
INSERT INTO ai_interactions (user_id, prompt, response, context_data)
VALUES ($1, $2, $3, $4)
`

type CreateAiInteractionParams struct {
	UserID      int64
	Prompt      string
	Response    string
	ContextData []byte
}

func (q *Queries) CreateAiInteraction(ctx context.Context, arg CreateAiInteractionParams) error {
	_, err := q.db.Exec(ctx, createAiInteraction,
		arg.UserID, arg.Prompt, arg.Response, arg.ContextData)
	return err
}

const createUserInsight = `
INSERT INTO user_insights (user_id, insight_type, insight_data, generated_at)
VALUES ($1, $2, $3, $4)
`

type CreateUserInsightParams struct {
	UserID      int64
	InsightType string
	InsightData []byte
	GeneratedAt time.Time
}

func (q *Queries) CreateUserInsight(ctx context.Context, arg CreateUserInsightParams) error {
	_, err := q.db.Exec(ctx, createUserInsight,
		arg.UserID, arg.InsightType, arg.InsightData, arg.GeneratedAt)
	return err
}

/* =================================================================================
                              INACTIVITY SNAPSHOT
=================================================================================*/

// Last activity is the greatest of account timestamps and the user's
// newest recommendation interaction. The whole snapshot comes from one
// statement so eligibility is judged against a single consistent view.
const listInactiveUsers = `
SELECT u.id, u.uuid,
       GREATEST(u.created_at, u.updated_at,
                COALESCE(MAX(m.recommended_at), u.created_at),
                COALESCE(MAX(m.responded_at),  u.created_at)) AS last_activity_at
FROM users u
LEFT JOIN menu_recommendations m ON m.user_id = u.id
GROUP BY u.id
HAVING GREATEST(u.created_at, u.updated_at,
                COALESCE(MAX(m.recommended_at), u.created_at),
                COALESCE(MAX(m.responded_at),  u.created_at)) < $1
ORDER BY last_activity_at
`

func (q *Queries) ListInactiveUsers(ctx context.Context, inactiveSince time.Time) ([]InactiveUserRow, error) {
	rows, err := q.db.Query(ctx, listInactiveUsers, inactiveSince)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InactiveUserRow
	for rows.Next() {
		var r InactiveUserRow
		if err := rows.Scan(&r.ID, &r.Uuid, &r.LastActivityAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

/* =================================================================================
                                 SCAN HELPERS
=================================================================================*/

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Uuid, &u.Timezone, &u.LocationLat, &u.LocationLng,
		&u.Preferences, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func scanRecommendation(row pgx.Row) (MenuRecommendation, error) {
	var r MenuRecommendation
	err := row.Scan(&r.ID, &r.UserID, &r.MenuName, &r.Description, &r.FoodType,
		&r.CuisineType, &r.Situation, &r.Accepted, &r.Declined,
		&r.RecommendedAt, &r.RespondedAt, &r.Context)
	return r, err
}

func scanRecommendations(rows pgx.Rows) ([]MenuRecommendation, error) {
	var items []MenuRecommendation
	for rows.Next() {
		var r MenuRecommendation
		if err := rows.Scan(&r.ID, &r.UserID, &r.MenuName, &r.Description, &r.FoodType,
			&r.CuisineType, &r.Situation, &r.Accepted, &r.Declined,
			&r.RecommendedAt, &r.RespondedAt, &r.Context); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
