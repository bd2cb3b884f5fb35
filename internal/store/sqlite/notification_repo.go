package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"socialhub/internal/domain"
)

type NotificationRepo struct {
	db *sql.DB
}

func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

var _ domain.NotificationRepository = (*NotificationRepo)(nil)

const notificationColumns = `id, agg_key, recipient_id, sender_id, type, entity_id, excerpt, metadata, is_read, created_at, updated_at`

func scanNotification(row rowScanner) (*domain.Notification, error) {
	n := &domain.Notification{}
	var typ, meta string
	var createdAt, updatedAt int64
	if err := row.Scan(
		&n.ID, &n.Key, &n.Recipient, &n.Sender, &typ, &n.EntityID, &n.Excerpt,
		&meta, &n.IsRead, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	n.Type = domain.NotificationType(typ)
	m, err := domain.DecodeMetadata(n.Type, []byte(meta))
	if err != nil {
		return nil, err
	}
	n.Metadata = m
	n.CreatedAt = fromMillis(createdAt)
	n.UpdatedAt = fromMillis(updatedAt)
	return n, nil
}

// Upsert relies on the single-connection pool: the transaction below cannot
// interleave with another one, so lookup and write are atomic per key.
func (r *NotificationRepo) Upsert(ctx context.Context, key string, since time.Time, apply domain.UpsertFunc) (*domain.Notification, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	existing, err := scanNotification(tx.QueryRowContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE agg_key = ? AND created_at >= ?
		ORDER BY created_at DESC
		LIMIT 1
	`, key, toMillis(since)))
	if errors.Is(err, sql.ErrNoRows) {
		existing = nil
	} else if err != nil {
		return nil, fmt.Errorf("find notification: %w", err)
	}

	next, write := apply(existing)
	switch {
	case existing == nil && next != nil:
		if err := insertNotification(ctx, tx, key, next); err != nil {
			return nil, err
		}
	case existing != nil && write:
		if err := updateNotification(ctx, tx, next); err != nil {
			return nil, err
		}
	default:
		return existing, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return next, nil
}

func insertNotification(ctx context.Context, tx *sql.Tx, key string, n *domain.Notification) error {
	meta, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	n.Key = key
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, n.ID, key, n.Recipient, n.Sender, string(n.Type), n.EntityID, n.Excerpt,
		string(meta), n.IsRead, toMillis(n.CreatedAt), toMillis(n.UpdatedAt)); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func updateNotification(ctx context.Context, tx *sql.Tx, n *domain.Notification) error {
	meta, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE notifications
		SET metadata = ?, excerpt = ?, is_read = ?, updated_at = ?
		WHERE id = ?
	`, string(meta), n.Excerpt, n.IsRead, toMillis(n.UpdatedAt), n.ID); err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) ListForRecipient(ctx context.Context, recipient string, offset, limit int) ([]*domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE recipient_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, recipient, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	res := make([]*domain.Notification, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

func (r *NotificationRepo) CountForRecipient(ctx context.Context, recipient string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE recipient_id = ?
	`, recipient).Scan(&n); err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, recipient string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND is_read = 0
	`, recipient).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, recipient string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE notifications SET is_read = 1
		WHERE recipient_id = ? AND is_read = 0 AND id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
	args := make([]any, 0, len(ids)+1)
	args = append(args, recipient)
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return res.RowsAffected()
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipient string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = 1 WHERE recipient_id = ? AND is_read = 0
	`, recipient)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return res.RowsAffected()
}

func (r *NotificationRepo) Delete(ctx context.Context, recipient, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM notifications WHERE id = ? AND recipient_id = ?
	`, id, recipient)
	if err != nil {
		return false, fmt.Errorf("delete notification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
