package sqlite

import (
	"context"

	"github.com/ravey/almond/internal/qrauth/domain"
)

type usersRepo struct {
	db dbtx
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	var (
		u                    domain.User
		createdAt, updatedAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, nickname, avatar_url, email, created_at, updated_at
		FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Nickname, &u.AvatarURL, &u.Email, &createdAt, &updatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

func (r *usersRepo) UpsertUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, nickname, avatar_url, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			nickname = excluded.nickname,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at
	`, u.ID, u.Nickname, u.AvatarURL, u.Email, toMillis(u.CreatedAt), toMillis(u.UpdatedAt))
	return err
}
