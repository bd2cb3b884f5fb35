package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"socialhub/internal/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, avatar FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Username, &u.Avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) ListFollowers(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT follower_id FROM follows WHERE followed_id = ? ORDER BY follower_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	defer rows.Close()

	var res []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan follower: %w", err)
		}
		res = append(res, id)
	}
	return res, rows.Err()
}

func (r *UserRepo) Save(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, avatar) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET username = excluded.username, avatar = excluded.avatar
	`, u.ID, u.Username, u.Avatar)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *UserRepo) Follow(ctx context.Context, followerID, followedID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO follows (follower_id, followed_id) VALUES (?, ?)
		ON CONFLICT DO NOTHING
	`, followerID, followedID)
	if err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	return nil
}
