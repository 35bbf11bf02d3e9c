package postgres

import (
	"context"
	"database/sql"

	"iznajmi-backend/internal/domain"

	"github.com/cockroachdb/errors"
)

type userRepository struct {
	db querier
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (name, email, push_token) VALUES ($1, $2, $3) RETURNING id`
	return r.db.QueryRowContext(ctx, query, u.Name, u.Email, u.PushToken).Scan(&u.ID)
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	u := &domain.User{}
	query := `SELECT id, name, email, push_token FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.PushToken)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundf("user %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
