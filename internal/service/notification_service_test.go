package service_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialhub/internal/domain"
	"socialhub/internal/service"
)

func likeUsers(t *testing.T, n *domain.Notification) *domain.Aggregation {
	t.Helper()
	agg, ok := n.Metadata.(domain.Aggregated)
	require.True(t, ok, "metadata %T is not aggregated", n.Metadata)
	return agg.Aggregate()
}

func TestNotifyLike(t *testing.T) {
	ctx := context.Background()

	t.Run("DistinctLikersAggregate", func(t *testing.T) {
		f := newFixture(t)
		f.user(t, "author", "u1", "u2")
		f.post(t, "p1", "author")

		first, outcome, err := f.notif.NotifyLike(ctx, "p1", "u1")
		require.NoError(t, err)
		assert.Equal(t, service.OutcomeCreated, outcome)

		f.clock.Advance(2 * time.Minute)
		second, outcome, err := f.notif.NotifyLike(ctx, "p1", "u2")
		require.NoError(t, err)
		assert.Equal(t, service.OutcomeMerged, outcome)
		assert.Equal(t, first.ID, second.ID)

		page, err := f.notif.List(ctx, "author", 1, 10)
		require.NoError(t, err)
		require.Len(t, page.Notifications, 1)
		n := page.Notifications[0]
		assert.Equal(t, domain.TypeLike, n.Type)
		agg := likeUsers(t, n)
		assert.Equal(t, 2, agg.Count)
		assert.ElementsMatch(t, []string{"u1", "u2"}, agg.Users)

		meta := n.Metadata.(*domain.LikeMetadata)
		assert.Equal(t, "p1", meta.PostID)
		assert.Equal(t, "title p1", meta.PostTitle)
		assert.Equal(t, "p1.jpg", meta.PostThumbnail)
	})

	t.Run("RepeatLikerDoesNotInflate", func(t *testing.T) {
		f := newFixture(t)
		f.user(t, "author", "u1")
		f.post(t, "p1", "author")

		_, _, err := f.notif.NotifyLike(ctx, "p1", "u1")
		require.NoError(t, err)
		n, outcome, err := f.notif.NotifyLike(ctx, "p1", "u1")
		require.NoError(t, err)
		assert.Equal(t, service.OutcomeSuppressed, outcome)
		assert.False(t, outcome.Pushable())

		agg := likeUsers(t, n)
		assert.Equal(t, 1, agg.Count)
		assert.Equal(t, []string{"u1"}, agg.Users)
	})

	t.Run("SelfLikeSkipped", func(t *testing.T) {
		f := newFixture(t)
		f.user(t, "author")
		f.post(t, "p1", "author")

		n, outcome, err := f.notif.NotifyLike(ctx, "p1", "author")
		require.NoError(t, err)
		assert.Nil(t, n)
		assert.Equal(t, service.OutcomeSkipped, outcome)

		count, err := f.notifications.CountForRecipient(ctx, "author")
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("UnknownPost", func(t *testing.T) {
		f := newFixture(t)
		_, _, err := f.notif.NotifyLike(ctx, "missing", "u1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("WindowExpiryStartsNewRow", func(t *testing.T) {
		f := newFixture(t)
		f.user(t, "author", "u1", "u2")
		f.post(t, "p1", "author")

		first, _, err := f.notif.NotifyLike(ctx, "p1", "u1")
		require.NoError(t, err)
		f.clock.Advance(domain.DedupWindow + time.Second)
		second, outcome, err := f.notif.NotifyLike(ctx, "p1", "u2")
		require.NoError(t, err)
		assert.Equal(t, service.OutcomeCreated, outcome)
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, 1, likeUsers(t, second).Count)
	})

	t.Run("ConcurrentLikersOneRow", func(t *testing.T) {
		const likers = 20
		f := newFixture(t)
		f.user(t, "author")
		f.post(t, "p1", "author")

		var wg sync.WaitGroup
		errs := make(chan error, likers*2)
		for i := 0; i < likers; i++ {
			for j := 0; j < 2; j++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, _, err := f.notif.NotifyLike(ctx, "p1", fmt.Sprintf("u%d", i))
					errs <- err
				}(i)
			}
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		page, err := f.notif.List(ctx, "author", 1, 50)
		require.NoError(t, err)
		require.Len(t, page.Notifications, 1)
		agg := likeUsers(t, page.Notifications[0])
		assert.Equal(t, likers, agg.Count)
		assert.Len(t, agg.Users, likers)
	})
}

func TestNotifyComment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "author", "u1")
	f.post(t, "p1", "author")

	long := strings.Repeat("é", 300)
	n, outcome, err := f.notif.NotifyComment(ctx, "p1", "u1", long)
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeCreated, outcome)
	assert.Equal(t, domain.CommentExcerptLen, len([]rune(n.Excerpt)))
	require.NotNil(t, n.SenderProfile)
	assert.Equal(t, "name-u1", n.SenderProfile.Username)

	t.Run("DuplicateSuppressed", func(t *testing.T) {
		again, outcome, err := f.notif.NotifyComment(ctx, "p1", "u1", "another")
		require.NoError(t, err)
		assert.Equal(t, service.OutcomeSuppressed, outcome)
		assert.Equal(t, n.ID, again.ID)
		assert.Equal(t, n.Excerpt, again.Excerpt)
	})

	t.Run("EmptyContent", func(t *testing.T) {
		_, _, err := f.notif.NotifyComment(ctx, "p1", "u1", "   ")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("SelfComment", func(t *testing.T) {
		n, outcome, err := f.notif.NotifyComment(ctx, "p1", "author", "mine")
		require.NoError(t, err)
		assert.Nil(t, n)
		assert.Equal(t, service.OutcomeSkipped, outcome)
	})
}

func TestNotifyMessageAndFollow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "u1", "u2")

	n, _, err := f.notif.NotifyMessage(ctx, "c1", "u1", "u2", strings.Repeat("x", 120))
	require.NoError(t, err)
	meta := n.Metadata.(*domain.MessageMetadata)
	assert.Equal(t, "c1", meta.ChatID)
	assert.Len(t, meta.MessagePreview, domain.MessagePreviewLen)

	_, outcome, err := f.notif.NotifyFollow(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeCreated, outcome)

	_, outcome, err = f.notif.NotifyFollow(ctx, "u2", "u2")
	require.NoError(t, err)
	assert.Equal(t, service.OutcomeSkipped, outcome)

	_, _, err = f.notif.NotifyFollow(ctx, "u1", "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	unread, err := f.notif.UnreadCount(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 2, unread)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, _, err := f.notif.Create(ctx, service.CreateNotificationInput{Recipient: "a", Sender: "b", Type: "poke"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = f.notif.Create(ctx, service.CreateNotificationInput{
		Recipient: "a", Sender: "b", Type: domain.TypeFollow,
		Metadata: &domain.StoryUploadMetadata{StoryID: "s1"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReadState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "owner", "other", "a", "b", "c")

	var ids []string
	for _, sender := range []string{"a", "b", "c"} {
		n, _, err := f.notif.NotifyFollow(ctx, sender, "owner")
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}
	foreign, _, err := f.notif.NotifyFollow(ctx, "a", "other")
	require.NoError(t, err)

	t.Run("EmptyIdsIsNoop", func(t *testing.T) {
		unread, err := f.notif.MarkAsRead(ctx, "owner", nil)
		require.NoError(t, err)
		assert.Equal(t, 3, unread)

		unread, err = f.notif.MarkAsRead(ctx, "owner", []string{})
		require.NoError(t, err)
		assert.Equal(t, 3, unread)
	})

	t.Run("ScopedToOwner", func(t *testing.T) {
		unread, err := f.notif.MarkAsRead(ctx, "owner", []string{ids[0], ids[0], foreign.ID})
		require.NoError(t, err)
		assert.Equal(t, 2, unread)

		otherUnread, err := f.notif.UnreadCount(ctx, "other")
		require.NoError(t, err)
		assert.Equal(t, 1, otherUnread)
	})

	t.Run("DeleteOwnerOnly", func(t *testing.T) {
		ok, err := f.notif.Delete(ctx, "owner", foreign.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = f.notif.Delete(ctx, "owner", ids[1])
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = f.notif.Delete(ctx, "owner", ids[1])
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("MarkAll", func(t *testing.T) {
		n, err := f.notif.MarkAllAsRead(ctx, "owner")
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		unread, err := f.notif.UnreadCount(ctx, "owner")
		require.NoError(t, err)
		assert.Zero(t, unread)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "owner")

	for i := 0; i < 25; i++ {
		_, _, err := f.notif.NotifyFollow(ctx, fmt.Sprintf("f%02d", i), "owner")
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}

	page, err := f.notif.List(ctx, "owner", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 25, page.UnreadCount)
	assert.True(t, page.HasMore)
	require.Len(t, page.Notifications, 10)
	assert.Equal(t, "f24", page.Notifications[0].Sender)
	assert.Equal(t, "f15", page.Notifications[9].Sender)

	page, err = f.notif.List(ctx, "owner", 3, 10)
	require.NoError(t, err)
	assert.False(t, page.HasMore)
	assert.Len(t, page.Notifications, 5)

	page, err = f.notif.List(ctx, "owner", 0, 500)
	require.NoError(t, err)
	assert.Len(t, page.Notifications, 25)
}
