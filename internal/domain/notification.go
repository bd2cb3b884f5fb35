package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

// DedupWindow is how long a notification keeps absorbing identical events.
const DedupWindow = 5 * time.Minute

// Excerpt limits.
const (
	CommentExcerptLen = 200
	MessagePreviewLen = 80
)

type NotificationType string

const (
	TypeLike        NotificationType = "like_post"
	TypeComment     NotificationType = "comment_post"
	TypeMessage     NotificationType = "new_message"
	TypeFollow      NotificationType = "new_follower"
	TypeStoryUpload NotificationType = "story_uploaded"
	TypeStoryLike   NotificationType = "story_liked"
)

func (t NotificationType) Valid() bool {
	switch t {
	case TypeLike, TypeComment, TypeMessage, TypeFollow, TypeStoryUpload, TypeStoryLike:
		return true
	}
	return false
}

// Aggregable types merge distinct senders into one row instead of suppressing them.
func (t NotificationType) Aggregable() bool {
	return t == TypeLike || t == TypeStoryLike
}

// AggregationKey identifies the row an event may merge into. Aggregable types
// drop the sender so that distinct senders collapse together.
func AggregationKey(recipient, sender string, t NotificationType, entityID string) string {
	if t.Aggregable() {
		sender = "*"
	}
	return strings.Join([]string{recipient, sender, string(t), entityID}, "|")
}

// Metadata is the typed payload of a notification. The set of implementations
// is closed: one per NotificationType.
type Metadata interface {
	NotificationType() NotificationType
}

// Aggregated is implemented by payloads of aggregable types.
type Aggregated interface {
	Metadata
	Aggregate() *Aggregation
}

// Aggregation is the contributing-sender set of an aggregable notification.
type Aggregation struct {
	Users []string `json:"users"`
	Count int      `json:"count"`
}

// Add records sender. Count only moves when sender is new.
func (a *Aggregation) Add(sender string) bool {
	if lo.Contains(a.Users, sender) {
		return false
	}
	a.Users = append(a.Users, sender)
	a.Count = len(a.Users)
	return true
}

func Seed(sender string) Aggregation {
	return Aggregation{Users: []string{sender}, Count: 1}
}

type LikeMetadata struct {
	PostID        string `json:"postId"`
	PostTitle     string `json:"postTitle,omitempty"`
	PostThumbnail string `json:"postThumbnail,omitempty"`
	Aggregation
}

func (*LikeMetadata) NotificationType() NotificationType { return TypeLike }
func (m *LikeMetadata) Aggregate() *Aggregation          { return &m.Aggregation }

type CommentMetadata struct {
	PostID        string `json:"postId"`
	PostTitle     string `json:"postTitle,omitempty"`
	PostThumbnail string `json:"postThumbnail,omitempty"`
	Comment       string `json:"comment"`
}

func (*CommentMetadata) NotificationType() NotificationType { return TypeComment }

type MessageMetadata struct {
	ChatID         string `json:"chatId"`
	MessagePreview string `json:"messagePreview"`
}

func (*MessageMetadata) NotificationType() NotificationType { return TypeMessage }

type FollowMetadata struct {
	FollowerID string `json:"followerId"`
}

func (*FollowMetadata) NotificationType() NotificationType { return TypeFollow }

type StoryUploadMetadata struct {
	StoryID string `json:"storyId"`
}

func (*StoryUploadMetadata) NotificationType() NotificationType { return TypeStoryUpload }

type StoryLikeMetadata struct {
	StoryID string `json:"storyId"`
	Aggregation
}

func (*StoryLikeMetadata) NotificationType() NotificationType { return TypeStoryLike }
func (m *StoryLikeMetadata) Aggregate() *Aggregation          { return &m.Aggregation }

// DecodeMetadata restores the typed payload stored for a notification of type t.
func DecodeMetadata(t NotificationType, raw []byte) (Metadata, error) {
	var m Metadata
	switch t {
	case TypeLike:
		m = &LikeMetadata{}
	case TypeComment:
		m = &CommentMetadata{}
	case TypeMessage:
		m = &MessageMetadata{}
	case TypeFollow:
		m = &FollowMetadata{}
	case TypeStoryUpload:
		m = &StoryUploadMetadata{}
	case TypeStoryLike:
		m = &StoryLikeMetadata{}
	default:
		return nil, fmt.Errorf("%w: notification type %q", ErrInvalidInput, t)
	}
	if len(raw) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(raw, m); err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", t, err)
	}
	return m, nil
}

// Notification is one row of the per-recipient ledger.
type Notification struct {
	ID        string           `json:"_id"`
	Key       string           `json:"-"`
	Recipient string           `json:"recipient"`
	Sender    string           `json:"sender"`
	Type      NotificationType `json:"type"`
	EntityID  string           `json:"entityId,omitempty"`
	Excerpt   string           `json:"comment,omitempty"`
	Metadata  Metadata         `json:"metadata"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`

	// SenderProfile is filled on the way out; it is never persisted.
	SenderProfile *User `json:"senderProfile,omitempty"`
}

func (n *Notification) UnmarshalJSON(b []byte) error {
	type plain Notification
	aux := struct {
		*plain
		Metadata json.RawMessage `json:"metadata"`
	}{plain: (*plain)(n)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	m, err := DecodeMetadata(n.Type, aux.Metadata)
	if err != nil {
		return err
	}
	n.Metadata = m
	return nil
}

// NotificationPage is one page of a recipient's ledger, newest first.
type NotificationPage struct {
	Notifications []*Notification `json:"notifications"`
	Total         int             `json:"total"`
	UnreadCount   int             `json:"unreadCount"`
	HasMore       bool            `json:"hasMore"`
}
