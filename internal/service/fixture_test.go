package service_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"socialhub/internal/domain"
	"socialhub/internal/service"
	"socialhub/internal/store/sqlite"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db            *sql.DB
	clock         *fakeClock
	users         *sqlite.UserRepo
	posts         *sqlite.PostRepo
	stories       *sqlite.StoryRepo
	chats         *sqlite.ChatRepo
	notifications *sqlite.NotificationRepo

	notif *service.NotificationService
	chat  *service.ChatService
	story *service.StoryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(db))

	f := &fixture{
		db:            db,
		clock:         newClock(),
		users:         sqlite.NewUserRepo(db),
		posts:         sqlite.NewPostRepo(db),
		stories:       sqlite.NewStoryRepo(db),
		chats:         sqlite.NewChatRepo(db),
		notifications: sqlite.NewNotificationRepo(db),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.notif = service.NewNotificationService(f.notifications, f.users, f.posts, logger, service.WithClock(f.clock.Now))
	f.chat = service.NewChatService(f.chats, f.users, 0)
	f.chat.SetClock(f.clock.Now)
	f.story = service.NewStoryService(f.stories, f.users)
	f.story.SetClock(f.clock.Now)
	return f
}

func (f *fixture) user(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, f.users.Save(context.Background(), &domain.User{ID: id, Username: "name-" + id, Avatar: id + ".png"}))
	}
}

func (f *fixture) post(t *testing.T, id, author string) {
	t.Helper()
	require.NoError(t, f.posts.Save(context.Background(), &domain.Post{ID: id, AuthorID: author, Title: "title " + id, Thumbnail: id + ".jpg"}))
}

func (f *fixture) newStory(t *testing.T, id, author string) *domain.Story {
	t.Helper()
	now := f.clock.Now()
	s := &domain.Story{ID: id, AuthorID: author, MediaURL: "/media/" + id, MediaType: "image", CreatedAt: now, ExpiresAt: now.Add(domain.StoryTTL)}
	require.NoError(t, f.stories.Save(context.Background(), s))
	return s
}
