package users_repo

import (
	"context"

	"bankcore/internal/domain"
)

type UserRepository interface {
	// CreateTx inserts the user and fills in the generated ID.
	CreateTx(ctx context.Context, querier domain.Querier, user *domain.User) error
	GetByEmailTx(ctx context.Context, querier domain.Querier, email string) (*domain.User, error)
	GetByIDTx(ctx context.Context, querier domain.Querier, id int64) (*domain.User, error)
}
