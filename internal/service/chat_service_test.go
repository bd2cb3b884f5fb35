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
)

func TestFindOrCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "a", "b")

	first, err := f.chat.FindOrCreate(ctx, "a", "b")
	require.NoError(t, err)
	second, err := f.chat.FindOrCreate(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.ElementsMatch(t, []string{"a", "b"}, second.Participants)

	_, err = f.chat.FindOrCreate(ctx, "a", "a")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.chat.FindOrCreate(ctx, "a", "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	t.Run("IDsContainingSeparator", func(t *testing.T) {
		f.user(t, "x:y", "z", "x", "y:z")
		left, err := f.chat.FindOrCreate(ctx, "x:y", "z")
		require.NoError(t, err)
		right, err := f.chat.FindOrCreate(ctx, "x", "y:z")
		require.NoError(t, err)
		assert.NotEqual(t, left.ID, right.ID)
		assert.ElementsMatch(t, []string{"x", "y:z"}, right.Participants)
	})
}

func TestAppend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "a", "b", "c")
	chat, err := f.chat.FindOrCreate(ctx, "a", "b")
	require.NoError(t, err)

	t.Run("TrimsAndCounts", func(t *testing.T) {
		msg, updated, err := f.chat.Append(ctx, chat.ID, "a", "  hello  ")
		require.NoError(t, err)
		assert.Equal(t, "hello", msg.Content)
		assert.Equal(t, "a", msg.Sender)
		assert.EqualValues(t, 1, msg.Seq)
		assert.EqualValues(t, 1, updated.MessageCount)
		assert.Equal(t, "hello", updated.LastMessageContent)
	})

	t.Run("Rejects", func(t *testing.T) {
		_, _, err := f.chat.Append(ctx, chat.ID, "a", " \n ")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, _, err = f.chat.Append(ctx, chat.ID, "a", strings.Repeat("x", 1001))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, _, err = f.chat.Append(ctx, chat.ID, "c", "intruder")
		assert.ErrorIs(t, err, domain.ErrForbidden)

		_, _, err = f.chat.Append(ctx, "missing", "a", "hi")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		got, err := f.chat.Get(ctx, chat.ID, "a")
		require.NoError(t, err)
		assert.EqualValues(t, 1, got.MessageCount)
	})

	t.Run("LastMessageNeverMovesBack", func(t *testing.T) {
		before, err := f.chat.Get(ctx, chat.ID, "a")
		require.NoError(t, err)

		f.clock.Advance(-time.Hour)
		msg, updated, err := f.chat.Append(ctx, chat.ID, "b", "from the past")
		require.NoError(t, err)
		f.clock.Advance(time.Hour)

		assert.False(t, updated.LastMessage.Before(before.LastMessage))
		assert.False(t, msg.Timestamp.Before(before.LastMessage))
	})

	t.Run("ConcurrentAppendsAreGapless", func(t *testing.T) {
		const n = 30
		before, err := f.chat.Get(ctx, chat.ID, "a")
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				sender := []string{"a", "b"}[i%2]
				_, _, err := f.chat.Append(ctx, chat.ID, sender, fmt.Sprintf("m%d", i))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		after, err := f.chat.Get(ctx, chat.ID, "a")
		require.NoError(t, err)
		assert.Equal(t, before.MessageCount+n, after.MessageCount)

		msgs, err := f.chat.ListMessages(ctx, chat.ID, "b", 200)
		require.NoError(t, err)
		require.Len(t, msgs, int(after.MessageCount))
		for i, m := range msgs {
			assert.EqualValues(t, i+1, m.Seq)
		}
	})
}

func TestChatReadAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "a", "b", "c")
	ab, err := f.chat.FindOrCreate(ctx, "a", "b")
	require.NoError(t, err)
	ac, err := f.chat.FindOrCreate(ctx, "a", "c")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, _, err := f.chat.Append(ctx, ab.ID, "a", fmt.Sprintf("m%d", i))
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}
	_, _, err = f.chat.Append(ctx, ac.ID, "c", "latest")
	require.NoError(t, err)

	msgs, err := f.chat.ListMessages(ctx, ab.ID, "b", 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m2", msgs[0].Content)
	assert.Equal(t, "m4", msgs[2].Content)

	_, err = f.chat.ListMessages(ctx, ab.ID, "c", 10)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	chats, err := f.chat.ListChats(ctx, "a")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, ac.ID, chats[0].ID)

	chats, err = f.chat.ListChats(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, chats, 1)
}
