package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"socialhub/internal/domain"
)

type StoryRepo struct {
	db *sql.DB
}

func NewStoryRepo(db *sql.DB) *StoryRepo {
	return &StoryRepo{db: db}
}

var _ domain.StoryRepository = (*StoryRepo)(nil)

func (r *StoryRepo) GetByID(ctx context.Context, id string) (*domain.Story, error) {
	s := &domain.Story{}
	err := r.db.QueryRowContext(ctx, `
		SELECT s.id, s.author_id, s.media_url, s.media_type, s.created_at, s.expires_at,
		       (SELECT COUNT(*) FROM story_views v WHERE v.story_id = s.id),
		       (SELECT COUNT(*) FROM story_likes l WHERE l.story_id = s.id)
		FROM stories s
		WHERE s.id = $1
	`, id).Scan(
		&s.ID, &s.AuthorID, &s.MediaURL, &s.MediaType, &s.CreatedAt, &s.ExpiresAt,
		&s.ViewsCount, &s.LikesCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get story: %w", err)
	}
	return s, nil
}

func (r *StoryRepo) Save(ctx context.Context, s *domain.Story) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stories (id, author_id, media_url, media_type, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.AuthorID, s.MediaURL, s.MediaType, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("save story: %w", err)
	}
	return nil
}

func (r *StoryRepo) AddView(ctx context.Context, storyID, userID string, at time.Time) (bool, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO story_views (story_id, user_id, viewed_at) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, storyID, userID, at)
	if err != nil {
		return false, 0, fmt.Errorf("insert view: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, 0, fmt.Errorf("rows affected: %w", err)
	}

	var views int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM story_views WHERE story_id = $1
	`, storyID).Scan(&views); err != nil {
		return false, 0, fmt.Errorf("count views: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("commit: %w", err)
	}
	return n > 0, views, nil
}

func (r *StoryRepo) ToggleLike(ctx context.Context, storyID, userID string, at time.Time) (bool, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Serialize toggles on the same story so the delete/insert pair is not split.
	if _, err := tx.ExecContext(ctx, `SELECT 1 FROM stories WHERE id = $1 FOR UPDATE`, storyID); err != nil {
		return false, 0, fmt.Errorf("lock story: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM story_likes WHERE story_id = $1 AND user_id = $2
	`, storyID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("delete like: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, 0, fmt.Errorf("rows affected: %w", err)
	}
	if removed == 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO story_likes (story_id, user_id, liked_at) VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, storyID, userID, at); err != nil {
			return false, 0, fmt.Errorf("insert like: %w", err)
		}
	}

	var likes int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM story_likes WHERE story_id = $1
	`, storyID).Scan(&likes); err != nil {
		return false, 0, fmt.Errorf("count likes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("commit: %w", err)
	}
	return removed == 0, likes, nil
}
