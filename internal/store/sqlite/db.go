package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database with the given DSN.
//
// The pool is capped at one connection: every transaction is serialized, which
// is what the notification upsert and the per-chat append rely on.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL. Instants are stored as unix milliseconds.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id       TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			avatar   TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS follows (
			follower_id TEXT NOT NULL REFERENCES users(id),
			followed_id TEXT NOT NULL REFERENCES users(id),
			PRIMARY KEY (follower_id, followed_id)
		);`,
		`CREATE TABLE IF NOT EXISTS posts (
			id        TEXT PRIMARY KEY,
			author_id TEXT NOT NULL REFERENCES users(id),
			title     TEXT NOT NULL DEFAULT '',
			thumbnail TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS stories (
			id         TEXT PRIMARY KEY,
			author_id  TEXT NOT NULL REFERENCES users(id),
			media_url  TEXT NOT NULL,
			media_type TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS story_views (
			story_id  TEXT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
			user_id   TEXT NOT NULL,
			viewed_at INTEGER NOT NULL,
			PRIMARY KEY (story_id, user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS story_likes (
			story_id TEXT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
			user_id  TEXT NOT NULL,
			liked_at INTEGER NOT NULL,
			PRIMARY KEY (story_id, user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS chats (
			id                   TEXT PRIMARY KEY,
			pair_key             TEXT NOT NULL UNIQUE,
			participant_a        TEXT NOT NULL,
			participant_b        TEXT NOT NULL,
			last_message_at      INTEGER NOT NULL,
			last_message_content TEXT NOT NULL DEFAULT '',
			message_count        INTEGER NOT NULL DEFAULT 0,
			created_at           INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id         TEXT PRIMARY KEY,
			chat_id    TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
			seq        INTEGER NOT NULL,
			sender_id  TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			UNIQUE (chat_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id           TEXT PRIMARY KEY,
			agg_key      TEXT NOT NULL,
			recipient_id TEXT NOT NULL,
			sender_id    TEXT NOT NULL,
			type         TEXT NOT NULL,
			entity_id    TEXT NOT NULL DEFAULT '',
			excerpt      TEXT NOT NULL DEFAULT '',
			metadata     TEXT NOT NULL DEFAULT '{}',
			is_read      BOOLEAN NOT NULL DEFAULT 0,
			created_at   INTEGER NOT NULL,
			updated_at   INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_follows_followed ON follows(followed_id);`,
		`CREATE INDEX IF NOT EXISTS idx_chats_a ON chats(participant_a, last_message_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_chats_b ON chats(participant_b, last_message_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_key ON notifications(agg_key, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(recipient_id, is_read);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
