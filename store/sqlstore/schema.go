package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/hackcelestial/sports-bridge/constants"
)

// schema is written once; {{id}}, {{ts}} and {{blob}} are replaced per dialect.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id {{id}},
		full_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'USER',
		phone TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		aadhaar_encrypted {{blob}},
		aadhaar_hash TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		profile_pic_url TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sports (
		id {{id}},
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS athlete_profiles (
		user_id BIGINT PRIMARY KEY REFERENCES users(id),
		height DOUBLE PRECISION NOT NULL DEFAULT 0,
		weight DOUBLE PRECISION NOT NULL DEFAULT 0,
		is_disabled BOOLEAN NOT NULL DEFAULT FALSE,
		disability_type TEXT NOT NULL DEFAULT '',
		emergency_contact_name TEXT NOT NULL DEFAULT '',
		emergency_contact_phone TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		district TEXT NOT NULL DEFAULT '',
		sport_id BIGINT REFERENCES sports(id)
	)`,
	`CREATE TABLE IF NOT EXISTS coach_profiles (
		user_id BIGINT PRIMARY KEY REFERENCES users(id),
		authority TEXT NOT NULL DEFAULT '',
		specialization TEXT NOT NULL DEFAULT '',
		experience_years INTEGER NOT NULL DEFAULT 0,
		state TEXT NOT NULL DEFAULT '',
		district TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS sponsor_profiles (
		user_id BIGINT PRIMARY KEY REFERENCES users(id),
		company_name TEXT NOT NULL DEFAULT '',
		industry TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		budget_range TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id {{id}},
		user_id BIGINT NOT NULL REFERENCES users(id),
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		post_type TEXT NOT NULL,
		image_url TEXT NOT NULL DEFAULT '',
		like_count BIGINT NOT NULL DEFAULT 0,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS posts_created_idx ON posts (created_at)`,
	`CREATE TABLE IF NOT EXISTS likes (
		user_id BIGINT NOT NULL REFERENCES users(id),
		post_id BIGINT NOT NULL REFERENCES posts(id),
		created_at {{ts}} NOT NULL,
		PRIMARY KEY (user_id, post_id)
	)`,
	`CREATE TABLE IF NOT EXISTS invitations (
		id {{id}},
		sender_id BIGINT NOT NULL REFERENCES users(id),
		receiver_id BIGINT NOT NULL REFERENCES users(id),
		post_id BIGINT NOT NULL REFERENCES posts(id),
		message TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		sent_at {{ts}} NOT NULL,
		responded_at {{ts}}
	)`,
	`CREATE INDEX IF NOT EXISTS invitations_receiver_idx ON invitations (receiver_id, status)`,
	`CREATE TABLE IF NOT EXISTS coach_relationships (
		id {{id}},
		athlete_id BIGINT NOT NULL REFERENCES users(id),
		coach_id BIGINT NOT NULL REFERENCES users(id),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		start_date {{ts}} NOT NULL,
		end_date {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS daily_logs (
		id {{id}},
		athlete_id BIGINT NOT NULL REFERENCES users(id),
		sport_id BIGINT REFERENCES sports(id),
		training_type TEXT NOT NULL,
		training_duration_minutes INTEGER NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		current_streak INTEGER NOT NULL DEFAULT 0,
		total_lifetime_duration INTEGER NOT NULL DEFAULT 0,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS daily_logs_athlete_idx ON daily_logs (athlete_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS achievements (
		id {{id}},
		athlete_id BIGINT NOT NULL REFERENCES users(id),
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		competition_name TEXT NOT NULL DEFAULT '',
		certificate_url TEXT NOT NULL DEFAULT '',
		achievement_date {{ts}},
		rank_position INTEGER,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sponsorships (
		id {{id}},
		sponsor_id BIGINT NOT NULL REFERENCES users(id),
		athlete_id BIGINT NOT NULL REFERENCES users(id),
		amount BIGINT NOT NULL,
		currency TEXT NOT NULL,
		terms TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		contract_start_date {{ts}},
		contract_end_date {{ts}},
		created_at {{ts}} NOT NULL,
		responded_at {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id {{id}},
		recipient_id BIGINT NOT NULL REFERENCES users(id),
		message TEXT NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reports (
		id {{id}},
		reporter_id BIGINT NOT NULL REFERENCES users(id),
		reported_entity_type TEXT NOT NULL,
		reported_entity_id BIGINT NOT NULL,
		reason TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		solved BOOLEAN NOT NULL DEFAULT FALSE,
		conclusion TEXT NOT NULL DEFAULT '',
		reviewed_by BIGINT REFERENCES users(id),
		created_at {{ts}} NOT NULL,
		reviewed_at {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS chat_rooms (
		id {{id}},
		coach_id BIGINT NOT NULL REFERENCES users(id),
		athlete_id BIGINT NOT NULL REFERENCES users(id),
		created_at {{ts}} NOT NULL,
		UNIQUE (coach_id, athlete_id)
	)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id {{id}},
		room_id BIGINT NOT NULL REFERENCES chat_rooms(id),
		sender_id BIGINT NOT NULL REFERENCES users(id),
		content TEXT NOT NULL,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS chat_messages_room_idx ON chat_messages (room_id, created_at)`,
}

func dialect(driver string) *strings.Replacer {
	if driver == constants.DriverPostgres {
		return strings.NewReplacer(
			"{{id}}", "BIGSERIAL PRIMARY KEY",
			"{{ts}}", "TIMESTAMPTZ",
			"{{blob}}", "BYTEA",
		)
	}
	return strings.NewReplacer(
		"{{id}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ts}}", "TIMESTAMP",
		"{{blob}}", "BLOB",
	)
}

// Migrate creates missing tables and indexes. It is safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	r := dialect(s.driver)
	for i, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	storeLogger.Debug("Schema up to date")
	return nil
}
