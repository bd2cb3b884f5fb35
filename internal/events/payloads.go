package events

import (
	"bytes"
	"encoding/json"

	"socialhub/internal/domain"
)

type chatRefPayload struct {
	ChatID string `json:"chatId" validate:"required,max=128"`
}

// UnmarshalJSON also accepts a bare chat id string.
func (p *chatRefPayload) UnmarshalJSON(b []byte) error {
	if b = bytes.TrimSpace(b); len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &p.ChatID)
	}
	type plain chatRefPayload
	return json.Unmarshal(b, (*plain)(p))
}

type sendMessagePayload struct {
	ChatID  string          `json:"chatId" validate:"required,max=128"`
	Content string          `json:"content"`
	TempID  json.RawMessage `json:"tempId,omitempty"`
}

type postLikedPayload struct {
	PostID string `json:"postId" validate:"required,max=128"`
}

type newCommentPayload struct {
	PostID         string `json:"postId" validate:"required,max=128"`
	CommentContent string `json:"commentContent" validate:"required"`
}

type newFollowerPayload struct {
	FollowedID string `json:"followedId" validate:"required,max=128"`
}

type storyRefPayload struct {
	StoryID string `json:"storyId" validate:"required,max=128"`
}

type reauthenticatePayload struct {
	UserID string `json:"userId" validate:"required"`
}

// markReadPayload accepts a bare id array or an object carrying the ids.
type markReadPayload struct {
	IDs []string
}

func (p *markReadPayload) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '[' {
		return json.Unmarshal(b, &p.IDs)
	}
	var obj struct {
		IDs             []string `json:"ids"`
		NotificationIDs []string `json:"notificationIds"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	p.IDs = append(obj.IDs, obj.NotificationIDs...)
	return nil
}

// Outbound payloads.

type NewMessagePayload struct {
	ChatID  string          `json:"chatId"`
	Message *domain.Message `json:"message"`
	TempID  json.RawMessage `json:"tempId,omitempty"`
}

type MessageErrorPayload struct {
	TempID json.RawMessage `json:"tempId,omitempty"`
	Error  string          `json:"error"`
}

type TypingPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

type UnreadCountPayload struct {
	UnreadCount int `json:"unreadCount"`
}

type StoryCountPayload struct {
	StoryID    string `json:"storyId"`
	ViewsCount *int   `json:"viewsCount,omitempty"`
	LikesCount *int   `json:"likesCount,omitempty"`
}
