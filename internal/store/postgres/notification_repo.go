package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
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
	var typ string
	var meta []byte
	if err := row.Scan(
		&n.ID, &n.Key, &n.Recipient, &n.Sender, &typ, &n.EntityID, &n.Excerpt,
		&meta, &n.IsRead, &n.CreatedAt, &n.UpdatedAt,
	); err != nil {
		return nil, err
	}
	n.Type = domain.NotificationType(typ)
	m, err := domain.DecodeMetadata(n.Type, meta)
	if err != nil {
		return nil, err
	}
	n.Metadata = m
	return n, nil
}

// Upsert holds a transaction-scoped advisory lock on the aggregation key, so
// concurrent writers on the same key (from any process) are serialized.
func (r *NotificationRepo) Upsert(ctx context.Context, key string, since time.Time, apply domain.UpsertFunc) (*domain.Notification, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return nil, fmt.Errorf("lock aggregation key: %w", err)
	}

	existing, err := scanNotification(tx.QueryRowContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE agg_key = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT 1
	`, key, since))
	if errors.Is(err, sql.ErrNoRows) {
		existing = nil
	} else if err != nil {
		return nil, fmt.Errorf("find notification: %w", err)
	}

	next, write := apply(existing)
	switch {
	case existing == nil && next != nil:
		meta, err := json.Marshal(next.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		next.Key = key
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO notifications (`+notificationColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, next.ID, key, next.Recipient, next.Sender, string(next.Type), next.EntityID,
			next.Excerpt, string(meta), next.IsRead, next.CreatedAt, next.UpdatedAt); err != nil {
			return nil, fmt.Errorf("insert notification: %w", err)
		}
	case existing != nil && write:
		meta, err := json.Marshal(next.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE notifications
			SET metadata = $1, excerpt = $2, is_read = $3, updated_at = $4
			WHERE id = $5
		`, string(meta), next.Excerpt, next.IsRead, next.UpdatedAt, next.ID); err != nil {
			return nil, fmt.Errorf("update notification: %w", err)
		}
	default:
		return existing, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return next, nil
}

func (r *NotificationRepo) ListForRecipient(ctx context.Context, recipient string, offset, limit int) ([]*domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
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
		SELECT COUNT(*) FROM notifications WHERE recipient_id = $1
	`, recipient).Scan(&n); err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, recipient string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT is_read
	`, recipient).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, recipient string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE recipient_id = $1 AND NOT is_read AND id = ANY($2)
	`, recipient, ids)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return res.RowsAffected()
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipient string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND NOT is_read
	`, recipient)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return res.RowsAffected()
}

func (r *NotificationRepo) Delete(ctx context.Context, recipient, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM notifications WHERE id = $1 AND recipient_id = $2
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
