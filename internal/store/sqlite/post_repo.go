package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"socialhub/internal/domain"
)

type PostRepo struct {
	db *sql.DB
}

func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{db: db}
}

var _ domain.PostRepository = (*PostRepo)(nil)

func (r *PostRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	p := &domain.Post{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, author_id, title, thumbnail FROM posts WHERE id = ?
	`, id).Scan(&p.ID, &p.AuthorID, &p.Title, &p.Thumbnail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

func (r *PostRepo) Save(ctx context.Context, p *domain.Post) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (id, author_id, title, thumbnail) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, thumbnail = excluded.thumbnail
	`, p.ID, p.AuthorID, p.Title, p.Thumbnail)
	if err != nil {
		return fmt.Errorf("save post: %w", err)
	}
	return nil
}
