package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL migrations for the socialhub schema on PostgreSQL.
func Migrate(db *sql.DB) error {
	stmts := []string{
		// Users and the follow graph
		`CREATE TABLE IF NOT EXISTS users (
			id       TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			avatar   TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS follows (
			follower_id TEXT NOT NULL REFERENCES users(id),
			followed_id TEXT NOT NULL REFERENCES users(id),
			PRIMARY KEY (follower_id, followed_id)
		)`,

		// Posts (read for enrichment)
		`CREATE TABLE IF NOT EXISTS posts (
			id        TEXT PRIMARY KEY,
			author_id TEXT NOT NULL REFERENCES users(id),
			title     TEXT NOT NULL DEFAULT '',
			thumbnail TEXT NOT NULL DEFAULT ''
		)`,

		// Stories
		`CREATE TABLE IF NOT EXISTS stories (
			id         TEXT        PRIMARY KEY,
			author_id  TEXT        NOT NULL REFERENCES users(id),
			media_url  TEXT        NOT NULL,
			media_type TEXT        NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS story_views (
			story_id  TEXT        NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
			user_id   TEXT        NOT NULL,
			viewed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (story_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS story_likes (
			story_id TEXT        NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
			user_id  TEXT        NOT NULL,
			liked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (story_id, user_id)
		)`,

		// Chats and their append-only message log
		`CREATE TABLE IF NOT EXISTS chats (
			id                   TEXT        PRIMARY KEY,
			pair_key             TEXT        NOT NULL UNIQUE,
			participant_a        TEXT        NOT NULL,
			participant_b        TEXT        NOT NULL,
			last_message_at      TIMESTAMPTZ NOT NULL,
			last_message_content TEXT        NOT NULL DEFAULT '',
			message_count        BIGINT      NOT NULL DEFAULT 0,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id         TEXT        PRIMARY KEY,
			chat_id    TEXT        NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
			seq        BIGINT      NOT NULL,
			sender_id  TEXT        NOT NULL,
			content    TEXT        NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (chat_id, seq)
		)`,

		// Notification ledger
		`CREATE TABLE IF NOT EXISTS notifications (
			id           TEXT        PRIMARY KEY,
			agg_key      TEXT        NOT NULL,
			recipient_id TEXT        NOT NULL,
			sender_id    TEXT        NOT NULL,
			type         TEXT        NOT NULL,
			entity_id    TEXT        NOT NULL DEFAULT '',
			excerpt      TEXT        NOT NULL DEFAULT '',
			metadata     JSONB       NOT NULL DEFAULT '{}'::jsonb,
			is_read      BOOLEAN     NOT NULL DEFAULT FALSE,
			created_at   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_follows_followed ON follows(followed_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_a ON chats(participant_a, last_message_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_b ON chats(participant_b, last_message_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_key ON notifications(agg_key, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(recipient_id) WHERE NOT is_read`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}
