package ledger_repo

import (
	"context"

	"bankcore/internal/domain"
)

type LedgerRepository interface {
	CreateEntryTx(ctx context.Context, querier domain.Querier, entry *domain.LedgerEntry) error
	ListForAccountTx(ctx context.Context, querier domain.Querier, accountID string, limit int) ([]domain.LedgerEntry, error)
}
