package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"socialhub/internal/domain"
)

const (
	DefaultMaxMessageLength = 1000
	DefaultMessageLimit     = 50
	MaxMessageLimit         = 200
)

type ChatService struct {
	chats  domain.ChatRepository
	users  domain.UserRepository
	maxLen int
	now    func() time.Time
}

func NewChatService(chats domain.ChatRepository, users domain.UserRepository, maxLen int) *ChatService {
	if maxLen <= 0 {
		maxLen = DefaultMaxMessageLength
	}
	return &ChatService{
		chats:  chats,
		users:  users,
		maxLen: maxLen,
		now:    time.Now,
	}
}

// SetClock replaces time.Now; used by tests.
func (s *ChatService) SetClock(now func() time.Time) {
	s.now = now
}

// FindOrCreate returns the single chat shared by a and b, in either order.
func (s *ChatService) FindOrCreate(ctx context.Context, a, b string) (*domain.Chat, error) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return nil, domain.Invalid("both participants are required")
	}
	if a == b {
		return nil, domain.Invalid("cannot open a chat with yourself")
	}
	for _, id := range []string{a, b} {
		if _, err := s.users.GetByID(ctx, id); err != nil {
			return nil, fmt.Errorf("get participant %s: %w", id, err)
		}
	}

	chat, err := s.chats.FindOrCreate(ctx, a, b, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("find or create chat: %w", err)
	}
	if !chat.HasParticipant(a) || !chat.HasParticipant(b) {
		return nil, fmt.Errorf("%w: chat %s does not belong to this pair", domain.ErrConflict, chat.ID)
	}
	return chat, nil
}

// Get returns chatID if userID participates in it.
func (s *ChatService) Get(ctx context.Context, chatID, userID string) (*domain.Chat, error) {
	if strings.TrimSpace(chatID) == "" {
		return nil, domain.Invalid("chatId is required")
	}
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	if !chat.HasParticipant(userID) {
		return nil, domain.ErrForbidden
	}
	return chat, nil
}

// Append stores a message from senderID and returns it with the updated chat.
// Content is trimmed and must be non-empty.
func (s *ChatService) Append(ctx context.Context, chatID, senderID, content string) (*domain.Message, *domain.Chat, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, domain.Invalid("message content is empty")
	}
	if utf8.RuneCountInString(content) > s.maxLen {
		return nil, nil, domain.Invalid(fmt.Sprintf("message exceeds %d characters", s.maxLen))
	}
	if _, err := s.Get(ctx, chatID, senderID); err != nil {
		return nil, nil, err
	}

	msg := &domain.Message{
		ChatID:    chatID,
		Sender:    senderID,
		Content:   content,
		Timestamp: s.now().UTC(),
	}
	chat, err := s.chats.Append(ctx, msg)
	if err != nil {
		return nil, nil, fmt.Errorf("append message: %w", err)
	}
	return msg, chat, nil
}

// ListMessages returns the latest limit messages in chronological order.
func (s *ChatService) ListMessages(ctx context.Context, chatID, userID string, limit int) ([]*domain.Message, error) {
	if _, err := s.Get(ctx, chatID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}
	msgs, err := s.chats.ListMessages(ctx, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

func (s *ChatService) ListChats(ctx context.Context, userID string) ([]*domain.Chat, error) {
	chats, err := s.chats.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}
