package ledger_repo

import (
	"context"
	"fmt"

	"bankcore/internal/domain"
)

type ledgerRepository struct{}

func NewLedgerRepository() LedgerRepository {
	return &ledgerRepository{}
}

func (r *ledgerRepository) CreateEntryTx(ctx context.Context, querier domain.Querier, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, transfer_id, sender_account_id, receiver_account_id, amount, type, description, initiated_by_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := querier.ExecContext(ctx, query,
		entry.ID,
		entry.TransferID,
		entry.SenderAccountID,
		entry.ReceiverAccountID,
		entry.Amount,
		entry.Type,
		entry.Description,
		entry.InitiatedBy,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ledger entry %s: %w", entry.ID, err)
	}
	return nil
}

func (r *ledgerRepository) ListForAccountTx(ctx context.Context, querier domain.Querier, accountID string, limit int) ([]domain.LedgerEntry, error) {
	query := `
		SELECT id, transfer_id, sender_account_id, receiver_account_id, amount, type, description, initiated_by_user_id, created_at
		FROM ledger_entries
		WHERE sender_account_id = $1 OR receiver_account_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`
	rows, err := querier.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.TransferID, &e.SenderAccountID, &e.ReceiverAccountID, &e.Amount, &e.Type, &e.Description, &e.InitiatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entry rows: %w", err)
	}
	return entries, nil
}
