package domain

import (
	"strconv"
	"strings"
	"time"
)

// User is owned by the account service; the event core only reads it.
type User struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Post carries the fields used to enrich like and comment notifications.
type Post struct {
	ID        string `json:"_id"`
	AuthorID  string `json:"author"`
	Title     string `json:"title,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// StoryTTL is how long a story stays visible after upload.
const StoryTTL = 24 * time.Hour

type Story struct {
	ID         string    `json:"_id"`
	AuthorID   string    `json:"user"`
	MediaURL   string    `json:"mediaUrl"`
	MediaType  string    `json:"type"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	ViewsCount int       `json:"viewsCount"`
	LikesCount int       `json:"likesCount"`
}

// Expired reports whether the story is past its TTL at now.
func (s *Story) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Chat is a direct conversation between exactly two users.
type Chat struct {
	ID                 string    `json:"_id"`
	Participants       []string  `json:"participants"`
	LastMessage        time.Time `json:"lastMessage"`
	LastMessageContent string    `json:"lastMessageContent,omitempty"`
	MessageCount       int64     `json:"messageCount"`
	CreatedAt          time.Time `json:"createdAt"`
}

// HasParticipant reports whether userID belongs to the chat.
func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Others returns every participant except userID.
func (c *Chat) Others(userID string) []string {
	var res []string
	for _, p := range c.Participants {
		if p != userID {
			res = append(res, p)
		}
	}
	return res
}

// PairKey is the order-independent identity of a two-party chat. The first id
// is length-prefixed so ids containing ':' cannot collide.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return strconv.Itoa(len(a)) + ":" + a + ":" + b
}

// Message is immutable once appended. Seq is 1-based and gapless per chat.
type Message struct {
	ID        string    `json:"_id"`
	ChatID    string    `json:"chatId"`
	Seq       int64     `json:"seq"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
