package users_repo

import (
	"context"
	"database/sql"
	"fmt"

	"bankcore/internal/domain"

	"github.com/lib/pq"
)

type userRepository struct{}

func NewUserRepository() UserRepository {
	return &userRepository{}
}

func (r *userRepository) CreateTx(ctx context.Context, querier domain.Querier, user *domain.User) error {
	query := `
		INSERT INTO users (full_name, email, phone, password_hash, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := querier.QueryRowContext(ctx, query,
		user.FullName, user.Email, user.Phone, user.PasswordHash, user.Role, user.IsActive, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}
	return nil
}

func (r *userRepository) GetByEmailTx(ctx context.Context, querier domain.Querier, email string) (*domain.User, error) {
	query := userSelect + ` WHERE email = $1`
	return scanOne(querier.QueryRowContext(ctx, query, email), email)
}

func (r *userRepository) GetByIDTx(ctx context.Context, querier domain.Querier, id int64) (*domain.User, error) {
	query := userSelect + ` WHERE id = $1`
	return scanOne(querier.QueryRowContext(ctx, query, id), fmt.Sprintf("%d", id))
}

const userSelect = `
	SELECT id, full_name, email, phone, password_hash, role, is_active, created_at
	FROM users`

func scanOne(row *sql.Row, key string) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", key, err)
	}
	return user, nil
}
