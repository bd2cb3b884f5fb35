package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"socialhub/internal/domain"
	"socialhub/internal/ws"
)

func (r *Router) onReauthenticate(_ context.Context, c *ws.Conn, data json.RawMessage) error {
	var p reauthenticatePayload
	if err := r.decode(data, &p); err != nil {
		r.hub.SendError(c, ws.EventError, publicError(err))
		return err
	}
	if err := r.hub.Reauthenticate(c, p.UserID); err != nil {
		r.hub.SendError(c, ws.EventError, publicError(err))
		return err
	}
	return nil
}

func (r *Router) onJoinChat(ctx context.Context, c *ws.Conn, data json.RawMessage) error {
	var p chatRefPayload
	if err := r.decode(data, &p); err != nil {
		return err
	}
	if _, err := r.chats.Get(ctx, p.ChatID, c.UserID); err != nil {
		return err
	}
	r.hub.JoinRoom(c, ChatRoom(p.ChatID))
	return nil
}

func (r *Router) onLeaveChat(_ context.Context, c *ws.Conn, data json.RawMessage) error {
	var p chatRefPayload
	if err := r.decode(data, &p); err != nil {
		return err
	}
	r.hub.LeaveRoom(c, ChatRoom(p.ChatID))
	return nil
}

// onTyping relays to the rest of the chat room. Only connections that joined
// the room may relay into it.
func (r *Router) onTyping(event string) handlerFunc {
	return func(_ context.Context, c *ws.Conn, data json.RawMessage) error {
		var p chatRefPayload
		if err := r.decode(data, &p); err != nil {
			return err
		}
		room := ChatRoom(p.ChatID)
		if !r.hub.InRoom(c, room) {
			return fmt.Errorf("%w: %s outside joined chat", domain.ErrForbidden, event)
		}
		r.hub.EmitToRoomExcept(room, c, event, TypingPayload{ChatID: p.ChatID, UserID: c.UserID})
		return nil
	}
}

// onSendMessage drops empty content silently; any other failure is reported
// to the sender as messageError carrying the client's tempId.
func (r *Router) onSendMessage(ctx context.Context, c *ws.Conn, data json.RawMessage) error {
	var p sendMessagePayload
	if err := r.decode(data, &p); err != nil {
		return err
	}
	if strings.TrimSpace(p.Content) == "" {
		return domain.Invalid("message content is empty")
	}
	if _, err := r.SendMessage(ctx, c.UserID, p.ChatID, p.Content, p.TempID); err != nil {
		_ = r.hub.Send(c, EventMessageError, MessageErrorPayload{TempID: p.TempID, Error: publicError(err)})
		return err
	}
	return nil
}

// SendMessage appends to the chat and broadcasts newMessage to the chat room.
// Append and broadcast happen under the chat's lock, so every member sees
// messages in append order. The other participants are then notified.
func (r *Router) SendMessage(ctx context.Context, senderID, chatID, content string, tempID json.RawMessage) (*NewMessagePayload, error) {
	unlock := r.chatLocks.Lock(chatID)
	msg, chat, err := r.chats.Append(ctx, chatID, senderID, content)
	if err != nil {
		unlock()
		return nil, err
	}
	out := &NewMessagePayload{ChatID: chat.ID, Message: msg, TempID: tempID}
	r.hub.EmitToRoom(ChatRoom(chat.ID), EventNewMessage, out)
	unlock()

	r.publish(ctx, chat.ID, EventNewMessage, out)
	for _, recipient := range chat.Others(senderID) {
		n, o, err := r.notifications.NotifyMessage(ctx, chat.ID, senderID, recipient, msg.Content)
		if err != nil {
			r.log.Error("message notification", "chat_id", chat.ID, "recipient", recipient, "err", err)
			continue
		}
		r.deliver(ctx, domain.TypeMessage, n, o)
	}
	return out, nil
}

func (r *Router) onPostLiked(ctx context.Context, c *ws.Conn, data json.RawMessage) error {
	var p postLikedPayload
	if err := r.decode(data, &p); err != nil {
		return err
	}
	return r.PostLiked(ctx, c.UserID, p.PostID)
}

// PostLiked notifies the post author. The author comes from the post itself.
func (r *Router) PostLiked(ctx context.Context, likerID, postID string) error {
	n, o, err := r.notifications.NotifyLike(ctx, postID, likerID)
	if err != nil {
		return err
	}
	r.deliver(ctx, domain.TypeLike, n, o)
	return nil
}

func (r *Router) onNewComment(ctx context.Context, c *ws.Conn, data json.RawMessage) error {
	var p newCommentPayload
	if err := r.decode(data, &p); err != nil {
		return err
	}
	return r.CommentAdded(ctx, c.UserID, p.PostID, p.CommentContent)
}

func (r *Router) CommentAdded(ctx context.Context, commenterID, postID, content string) error {
	n, o, err := r.notifications.NotifyComment(ctx, postID, commenterID, content)
	if err != nil {
		return err
	}
	r.deliver(ctx, domain.TypeComment, n, o)
	return nil
}

func (r *Router) onNewFollower(ctx context.Context, c *ws.Conn, data json.RawMessage) error {
	var p newFollowerPayload
	if err := r.decode(data, &p); err != nil {
		return err
	}
	return r.Followed(ctx, c.UserID, p.FollowedID)
}

func (r *Router) Followed(ctx context.Context, followerID, followedID string) error {
	n, o, err := r.notifications.NotifyFollow(ctx, followerID, followedID)
	if err != nil {
		return err
	}
	r.deliver(ctx, domain.TypeFollow, n, o)
	return nil
}

func (r *Router) onNewStory(ctx context.Context, c *ws.Conn, data json.RawMessage) error {
	var p storyRefPayload
	if err := r.decode(data, &p); err != nil {
		return err
	}
	return r.StoryPublished(ctx, c.UserID, p.StoryID)
}

// StoryPublished announces a story to everyone and notifies each follower of
// its author. Only the author may announce it.
func (r *Router) StoryPublished(ctx context.Context, authorID, storyID string) error {
	story, err := r.stories.Get(ctx, storyID)
	if err != nil {
		return err
	}
	if story.AuthorID != authorID {
		return fmt.Errorf("%w: story %s belongs to another user", domain.ErrForbidden, storyID)
	}
	followers, err := r.stories.Followers(ctx, story.AuthorID)
	if err != nil {
		return err
	}

	r.hub.EmitAll(EventStoryAdded, story)
	r.publish(ctx, story.AuthorID, EventStoryAdded, story)

	var errs []error
	for _, follower := range followers {
		n, o, err := r.notifications.NotifyStoryUpload(ctx, story, follower)
		if err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", follower, err))
			continue
		}
		r.deliver(ctx, domain.TypeStoryUpload, n, o)
	}
	return errors.Join(errs...)
}

func (r *Router) onViewStory(ctx context.Context, c *ws.Conn, data json.RawMessage) error {
	var p storyRefPayload
	if err := r.decode(data, &p); err != nil {
		return err
	}
	return r.StoryViewed(ctx, c.UserID, p.StoryID)
}

// StoryViewed records a first view and broadcasts the new count. Repeat views
// change nothing and push nothing.
func (r *Router) StoryViewed(ctx context.Context, viewerID, storyID string) error {
	story, added, err := r.stories.View(ctx, storyID, viewerID)
	if err != nil {
		return err
	}
	if !added {
		return nil
	}
	views := story.ViewsCount
	r.hub.EmitAll(EventStoryViewed, StoryCountPayload{StoryID: story.ID, ViewsCount: &views})
	return nil
}

func (r *Router) onLikeStory(ctx context.Context, c *ws.Conn, data json.RawMessage) error {
	var p storyRefPayload
	if err := r.decode(data, &p); err != nil {
		return err
	}
	return r.StoryLiked(ctx, c.UserID, p.StoryID)
}

// StoryLiked toggles the like, broadcasts the count, and notifies the author
// when the toggle produced a like.
func (r *Router) StoryLiked(ctx context.Context, likerID, storyID string) error {
	story, liked, err := r.stories.ToggleLike(ctx, storyID, likerID)
	if err != nil {
		return err
	}
	likes := story.LikesCount
	r.hub.EmitAll(EventStoryLiked, StoryCountPayload{StoryID: story.ID, LikesCount: &likes})
	if !liked {
		return nil
	}
	n, o, err := r.notifications.NotifyStoryLike(ctx, story, likerID)
	if err != nil {
		return err
	}
	r.deliver(ctx, domain.TypeStoryLike, n, o)
	return nil
}

// onMarkNotificationsRead acks to the requesting connection only.
func (r *Router) onMarkNotificationsRead(ctx context.Context, c *ws.Conn, data json.RawMessage) error {
	var p markReadPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p); err != nil {
			r.hub.SendError(c, EventNotificationError, "invalid notification ids")
			return domain.Invalid(err.Error())
		}
	}
	unread, err := r.notifications.MarkAsRead(ctx, c.UserID, p.IDs)
	if err != nil {
		r.hub.SendError(c, EventNotificationError, "could not mark notifications as read")
		return err
	}
	return r.hub.Send(c, EventUnreadCountUpdated, UnreadCountPayload{UnreadCount: unread})
}
