package accounts_repo

import (
	"context"

	"bankcore/internal/domain"

	"github.com/shopspring/decimal"
)

type AccountRepository interface {
	CreateTx(ctx context.Context, querier domain.Querier, account *domain.Account) error
	GetByIDTx(ctx context.Context, querier domain.Querier, id string) (*domain.Account, error)
	GetByNumberTx(ctx context.Context, querier domain.Querier, number string) (*domain.Account, error)
	// GetForUpdateTx locks the account row for the duration of the enclosing
	// transaction.
	GetForUpdateTx(ctx context.Context, querier domain.Querier, id string) (*domain.Account, error)
	ListForOwnerTx(ctx context.Context, querier domain.Querier, ownerID int64) ([]domain.Account, error)
	SetBalanceTx(ctx context.Context, querier domain.Querier, id string, balance decimal.Decimal) error
	SetStatusTx(ctx context.Context, querier domain.Querier, id string, status domain.AccountStatus) error
}
