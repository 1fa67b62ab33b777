package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// schemaDDL is idempotent and runs at startup. Column constraints
// mirror the application rules: uuid is unique, the accept/decline
// flags default to false, and everything a user owns cascades on
// delete.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		uuid          TEXT NOT NULL UNIQUE,
		timezone      TEXT NOT NULL,
		location_lat  DOUBLE PRECISION,
		location_lng  DOUBLE PRECISION,
		preferences   JSONB NOT NULL DEFAULT '{}'::jsonb,
		is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS menu_recommendations (
		id             BIGSERIAL PRIMARY KEY,
		user_id        BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		menu_name      TEXT NOT NULL,
		description    TEXT,
		food_type      TEXT NOT NULL,
		cuisine_type   TEXT NOT NULL,
		situation      TEXT NOT NULL,
		accepted       BOOLEAN NOT NULL DEFAULT FALSE,
		declined       BOOLEAN NOT NULL DEFAULT FALSE,
		recommended_at TIMESTAMPTZ NOT NULL,
		responded_at   TIMESTAMPTZ,
		context        JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS idx_menu_recommendations_user_recommended
		ON menu_recommendations (user_id, recommended_at)`,
	`CREATE TABLE IF NOT EXISTS user_preferences (
		id                BIGSERIAL PRIMARY KEY,
		user_id           BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		food_type         TEXT,
		cuisine_type      TEXT,
		situation         TEXT,
		preference_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
		UNIQUE (user_id, food_type, cuisine_type, situation)
	)`,
	`CREATE TABLE IF NOT EXISTS ai_interactions (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		prompt       TEXT,
		response     TEXT,
		context_data JSONB,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS user_insights (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		insight_type TEXT,
		insight_data JSONB,
		generated_at TIMESTAMPTZ
	)`,
}

// Migrate applies the schema statements in order.
func Migrate(ctx context.Context, s Service) error {
	db, ok := s.(*service)
	if !ok {
		return fmt.Errorf("unexpected database service implementation %T", s)
	}

	for i, stmt := range schemaDDL {
		if _, err := db.Dbpool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d failed: %w", i+1, err)
		}
	}

	log.Info().Int("statements", len(schemaDDL)).Msg("Database schema is up to date")
	return nil
}
