package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"socialhub/internal/domain"
)

type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

var _ domain.ChatRepository = (*ChatRepo)(nil)

const chatColumns = `id, participant_a, participant_b, last_message_at, last_message_content, message_count, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChat(row rowScanner) (*domain.Chat, error) {
	c := &domain.Chat{}
	var a, b string
	if err := row.Scan(&c.ID, &a, &b, &c.LastMessage, &c.LastMessageContent, &c.MessageCount, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Participants = []string{a, b}
	return c, nil
}

func (r *ChatRepo) FindOrCreate(ctx context.Context, a, b string, now time.Time) (*domain.Chat, error) {
	key := domain.PairKey(a, b)
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO chats (id, pair_key, participant_a, participant_b, last_message_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (pair_key) DO NOTHING
	`, uuid.NewString(), key, a, b, now); err != nil {
		return nil, fmt.Errorf("insert chat: %w", err)
	}

	c, err := scanChat(r.db.QueryRowContext(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE pair_key = $1`, key))
	if err != nil {
		return nil, fmt.Errorf("get chat by pair: %w", err)
	}
	return c, nil
}

func (r *ChatRepo) GetByID(ctx context.Context, id string) (*domain.Chat, error) {
	c, err := scanChat(r.db.QueryRowContext(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	return c, nil
}

func (r *ChatRepo) ListForUser(ctx context.Context, userID string) ([]*domain.Chat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+chatColumns+`
		FROM chats
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY last_message_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var res []*domain.Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r *ChatRepo) Append(ctx context.Context, m *domain.Message) (*domain.Chat, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var lastAt time.Time
	var count int64
	err = tx.QueryRowContext(ctx, `
		SELECT last_message_at, message_count FROM chats WHERE id = $1 FOR UPDATE
	`, m.ChatID).Scan(&lastAt, &count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock chat: %w", err)
	}

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Seq = count + 1
	if m.Timestamp.Before(lastAt) {
		m.Timestamp = lastAt
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, seq, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.ChatID, m.Seq, m.Sender, m.Content, m.Timestamp); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	c, err := scanChat(tx.QueryRowContext(ctx, `
		UPDATE chats
		SET last_message_at = $1, last_message_content = $2, message_count = $3
		WHERE id = $4
		RETURNING `+chatColumns,
		m.Timestamp, m.Content, m.Seq, m.ChatID))
	if err != nil {
		return nil, fmt.Errorf("update chat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return c, nil
}

func (r *ChatRepo) ListMessages(ctx context.Context, chatID string, limit int) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chat_id, seq, sender_id, content, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY seq DESC
		LIMIT $2
	`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Seq, &m.Sender, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to chronological order (DB returns DESC)
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return res, nil
}
