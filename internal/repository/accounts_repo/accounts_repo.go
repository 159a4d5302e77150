package accounts_repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bankcore/internal/domain"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type accountRepository struct{}

func NewAccountRepository() AccountRepository {
	return &accountRepository{}
}

func (r *accountRepository) CreateTx(ctx context.Context, querier domain.Querier, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, account_number, owner_id, type, balance, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := querier.ExecContext(ctx, query,
		account.ID, account.AccountNumber, account.OwnerID, account.Type,
		account.Balance, account.Status, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return domain.ErrAccountNumberTaken
		}
		return fmt.Errorf("failed to create account %s: %w", account.AccountNumber, err)
	}
	return nil
}

func (r *accountRepository) GetByIDTx(ctx context.Context, querier domain.Querier, id string) (*domain.Account, error) {
	query := accountSelect + ` WHERE id = $1`
	return r.scanOne(querier.QueryRowContext(ctx, query, id), id)
}

func (r *accountRepository) GetByNumberTx(ctx context.Context, querier domain.Querier, number string) (*domain.Account, error) {
	query := accountSelect + ` WHERE account_number = $1`
	return r.scanOne(querier.QueryRowContext(ctx, query, number), number)
}

func (r *accountRepository) GetForUpdateTx(ctx context.Context, querier domain.Querier, id string) (*domain.Account, error) {
	query := accountSelect + ` WHERE id = $1 FOR UPDATE`
	return r.scanOne(querier.QueryRowContext(ctx, query, id), id)
}

func (r *accountRepository) ListForOwnerTx(ctx context.Context, querier domain.Querier, ownerID int64) ([]domain.Account, error) {
	query := accountSelect + ` WHERE owner_id = $1 ORDER BY created_at`
	rows, err := querier.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.AccountNumber, &a.OwnerID, &a.Type, &a.Balance, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account rows: %w", err)
	}
	return accounts, nil
}

func (r *accountRepository) SetBalanceTx(ctx context.Context, querier domain.Querier, id string, balance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = $1, updated_at = $2
		WHERE id = $3
	`
	res, err := querier.ExecContext(ctx, query, balance, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update balance for account %s: %w", id, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) SetStatusTx(ctx context.Context, querier domain.Querier, id string, status domain.AccountStatus) error {
	query := `
		UPDATE accounts
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	res, err := querier.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update status for account %s: %w", id, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

const accountSelect = `
	SELECT id, account_number, owner_id, type, balance, status, created_at, updated_at
	FROM accounts`

func (r *accountRepository) scanOne(row *sql.Row, key string) (*domain.Account, error) {
	account := &domain.Account{}
	err := row.Scan(
		&account.ID,
		&account.AccountNumber,
		&account.OwnerID,
		&account.Type,
		&account.Balance,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account %s: %w", key, err)
	}
	return account, nil
}
