package domain

import (
	"context"
	"time"
)

// UserRepository reads the externally owned user documents.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	ListFollowers(ctx context.Context, userID string) ([]string, error)
	Save(ctx context.Context, u *User) error
	Follow(ctx context.Context, followerID, followedID string) error
}

// PostRepository is used for notification enrichment only.
type PostRepository interface {
	GetByID(ctx context.Context, id string) (*Post, error)
	Save(ctx context.Context, p *Post) error
}

// StoryRepository reads stories and mutates their view/like sets.
type StoryRepository interface {
	GetByID(ctx context.Context, id string) (*Story, error)
	Save(ctx context.Context, s *Story) error
	// AddView records a view once per user and reports whether it was new.
	AddView(ctx context.Context, storyID, userID string, at time.Time) (added bool, views int, err error)
	// ToggleLike flips userID's like and reports the resulting state.
	ToggleLike(ctx context.Context, storyID, userID string, at time.Time) (liked bool, likes int, err error)
}

// ChatRepository is the append-only per-conversation log.
type ChatRepository interface {
	// FindOrCreate returns the chat for the unordered pair, creating it once.
	FindOrCreate(ctx context.Context, a, b string, now time.Time) (*Chat, error)
	GetByID(ctx context.Context, id string) (*Chat, error)
	ListForUser(ctx context.Context, userID string) ([]*Chat, error)
	// Append assigns the next sequence number and persists m atomically.
	Append(ctx context.Context, m *Message) (*Chat, error)
	ListMessages(ctx context.Context, chatID string, limit int) ([]*Message, error)
}

// UpsertFunc decides what happens to the row found under an aggregation key.
// existing is nil when no row is inside the window. When write is false the
// existing row is returned unchanged.
type UpsertFunc func(existing *Notification) (next *Notification, write bool)

// NotificationRepository is the dedup/aggregation ledger.
type NotificationRepository interface {
	// Upsert runs lookup and write as one atomic step per key.
	Upsert(ctx context.Context, key string, since time.Time, apply UpsertFunc) (*Notification, error)
	ListForRecipient(ctx context.Context, recipient string, offset, limit int) ([]*Notification, error)
	CountForRecipient(ctx context.Context, recipient string) (int, error)
	CountUnread(ctx context.Context, recipient string) (int, error)
	MarkRead(ctx context.Context, recipient string, ids []string) (int64, error)
	MarkAllRead(ctx context.Context, recipient string) (int64, error)
	Delete(ctx context.Context, recipient, id string) (bool, error)
}
