package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialhub/internal/domain"
)

func TestStoryInteractions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "author", "v1", "v2")
	f.newStory(t, "s1", "author")

	t.Run("ViewOncePerUser", func(t *testing.T) {
		story, added, err := f.story.View(ctx, "s1", "v1")
		require.NoError(t, err)
		assert.True(t, added)
		assert.Equal(t, 1, story.ViewsCount)

		story, added, err = f.story.View(ctx, "s1", "v1")
		require.NoError(t, err)
		assert.False(t, added)
		assert.Equal(t, 1, story.ViewsCount)

		story, _, err = f.story.View(ctx, "s1", "v2")
		require.NoError(t, err)
		assert.Equal(t, 2, story.ViewsCount)
	})

	t.Run("LikeToggles", func(t *testing.T) {
		story, liked, err := f.story.ToggleLike(ctx, "s1", "v1")
		require.NoError(t, err)
		assert.True(t, liked)
		assert.Equal(t, 1, story.LikesCount)

		story, liked, err = f.story.ToggleLike(ctx, "s1", "v1")
		require.NoError(t, err)
		assert.False(t, liked)
		assert.Equal(t, 0, story.LikesCount)
	})

	t.Run("Expired", func(t *testing.T) {
		f.clock.Advance(domain.StoryTTL + time.Minute)
		defer f.clock.Advance(-(domain.StoryTTL + time.Minute))

		_, _, err := f.story.View(ctx, "s1", "v2")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, _, err = f.story.ToggleLike(ctx, "s1", "v2")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Followers", func(t *testing.T) {
		require.NoError(t, f.users.Follow(ctx, "v1", "author"))
		require.NoError(t, f.users.Follow(ctx, "v2", "author"))
		ids, err := f.story.Followers(ctx, "author")
		require.NoError(t, err)
		assert.Equal(t, []string{"v1", "v2"}, ids)
	})

	t.Run("StoryNotifications", func(t *testing.T) {
		story, err := f.story.Get(ctx, "s1")
		require.NoError(t, err)

		n, _, err := f.notif.NotifyStoryUpload(ctx, story, "v1")
		require.NoError(t, err)
		assert.Equal(t, domain.TypeStoryUpload, n.Type)
		assert.Equal(t, "author", n.Sender)

		_, _, err = f.notif.NotifyStoryLike(ctx, story, "v1")
		require.NoError(t, err)
		liked, _, err := f.notif.NotifyStoryLike(ctx, story, "v2")
		require.NoError(t, err)
		assert.Equal(t, 2, liked.Metadata.(*domain.StoryLikeMetadata).Count)

		self, _, err := f.notif.NotifyStoryLike(ctx, story, "author")
		require.NoError(t, err)
		assert.Nil(t, self)
	})
}
