package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialhub/internal/domain"
	"socialhub/internal/store/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(db))
	require.NoError(t, sqlite.Migrate(db), "migrate twice")
	return db
}

func TestChatRepo(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewChatRepo(openDB(t))
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	c1, err := repo.FindOrCreate(ctx, "b", "a", now)
	require.NoError(t, err)
	c2, err := repo.FindOrCreate(ctx, "a", "b", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, c1.ID, c2.ID)

	first := &domain.Message{ChatID: c1.ID, Sender: "a", Content: "one", Timestamp: now.Add(time.Minute)}
	_, err = repo.Append(ctx, first)
	require.NoError(t, err)

	// A clock that went backwards never moves lastMessage back.
	second := &domain.Message{ChatID: c1.ID, Sender: "b", Content: "two", Timestamp: now}
	chat, err := repo.Append(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, first.Timestamp, second.Timestamp)
	assert.Equal(t, first.Timestamp, chat.LastMessage)
	assert.Equal(t, "two", chat.LastMessageContent)
	assert.Equal(t, int64(2), chat.MessageCount)

	msgs, err := repo.ListMessages(ctx, c1.ID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Content)

	_, err = repo.Append(ctx, &domain.Message{ChatID: "missing", Sender: "a", Content: "x", Timestamp: now})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNotificationRepoUpsertWindow(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewNotificationRepo(openDB(t))
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	key := domain.AggregationKey("r", "s", domain.TypeFollow, "")

	create := func(at time.Time) domain.UpsertFunc {
		return func(existing *domain.Notification) (*domain.Notification, bool) {
			if existing != nil {
				return existing, false
			}
			return &domain.Notification{
				ID: at.Format(time.RFC3339), Recipient: "r", Sender: "s", Type: domain.TypeFollow,
				Metadata: &domain.FollowMetadata{FollowerID: "s"}, CreatedAt: at, UpdatedAt: at,
			}, true
		}
	}

	n1, err := repo.Upsert(ctx, key, now.Add(-domain.DedupWindow), create(now))
	require.NoError(t, err)

	later := now.Add(4 * time.Minute)
	n2, err := repo.Upsert(ctx, key, later.Add(-domain.DedupWindow), create(later))
	require.NoError(t, err)
	assert.Equal(t, n1.ID, n2.ID)

	after := now.Add(6 * time.Minute)
	n3, err := repo.Upsert(ctx, key, after.Add(-domain.DedupWindow), create(after))
	require.NoError(t, err)
	assert.NotEqual(t, n1.ID, n3.ID)

	total, err := repo.CountForRecipient(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	updated, err := repo.MarkRead(ctx, "someone-else", []string{n1.ID, n3.ID})
	require.NoError(t, err)
	assert.Zero(t, updated)

	updated, err = repo.MarkRead(ctx, "r", []string{n1.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)
	unread, err := repo.CountUnread(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	ok, err := repo.Delete(ctx, "someone-else", n3.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = repo.Delete(ctx, "r", n3.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := repo.ListForRecipient(ctx, "r", 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsRead)
	assert.IsType(t, &domain.FollowMetadata{}, list[0].Metadata)
}

func TestStoryRepo(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	users := sqlite.NewUserRepo(db)
	repo := sqlite.NewStoryRepo(db)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, users.Save(ctx, &domain.User{ID: "author", Username: "author"}))
	require.NoError(t, repo.Save(ctx, &domain.Story{ID: "s1", AuthorID: "author", MediaURL: "/m", MediaType: "image", CreatedAt: now, ExpiresAt: now.Add(domain.StoryTTL)}))

	added, views, err := repo.AddView(ctx, "s1", "v", now)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, views)
	added, views, err = repo.AddView(ctx, "s1", "v", now)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 1, views)

	liked, likes, err := repo.ToggleLike(ctx, "s1", "v", now)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, likes)
	liked, likes, err = repo.ToggleLike(ctx, "s1", "v", now)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Zero(t, likes)

	s, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, s.ViewsCount)
	assert.Zero(t, s.LikesCount)
}
