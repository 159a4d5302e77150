// Package postgres implements the storage boundary on PostgreSQL via
// database/sql. The transfer unit relies on row-level locks
// (SELECT ... FOR UPDATE) taken in deterministic order.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bankcore/internal/domain"
	"bankcore/internal/repository/accounts_repo"
	"bankcore/internal/repository/audit_repo"
	"bankcore/internal/repository/ledger_repo"
	"bankcore/internal/repository/users_repo"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Store struct {
	db       *sql.DB
	accounts accounts_repo.AccountRepository
	ledger   ledger_repo.LedgerRepository
	audit    audit_repo.AuditRepository
	users    users_repo.UserRepository
	logger   *zap.Logger
}

func NewStore(db *sql.DB, logger *zap.Logger) *Store {
	return &Store{
		db:       db,
		accounts: accounts_repo.NewAccountRepository(),
		ledger:   ledger_repo.NewLedgerRepository(),
		audit:    audit_repo.NewAuditRepository(),
		users:    users_repo.NewUserRepository(),
		logger:   logger,
	}
}

// ApplyTransfer runs the atomic mutation unit in a single database
// transaction: lock both account rows, re-check status and funds, update
// balances, insert the debit/credit pair, commit. Any failure rolls the
// whole unit back. Commit conflicts surface as domain.ErrTxConflict so the
// caller can retry.
func (s *Store) ApplyTransfer(ctx context.Context, t *domain.Transfer) (*domain.EntryPair, error) {
	if t.SourceAccountID == t.DestinationAccountID {
		return nil, domain.ErrSameAccount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	pair, err := s.applyTransferTx(ctx, tx, t)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to roll back transfer transaction",
				zap.String("transfer_id", t.ID), zap.Error(rbErr))
		}
		return nil, mapConflict(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, mapConflict(fmt.Errorf("failed to commit transfer: %w", err))
	}
	return pair, nil
}

func (s *Store) applyTransferTx(ctx context.Context, tx *sql.Tx, t *domain.Transfer) (*domain.EntryPair, error) {
	// Lock rows in a fixed order so two opposing transfers cannot deadlock.
	firstID, secondID := t.SourceAccountID, t.DestinationAccountID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}
	locked := make(map[string]*domain.Account, 2)
	for _, id := range []string{firstID, secondID} {
		account, err := s.accounts.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = account
	}
	src := locked[t.SourceAccountID]
	dst := locked[t.DestinationAccountID]

	if !src.IsActive() || !dst.IsActive() {
		return nil, domain.ErrInactiveAccount
	}
	if src.Balance.LessThan(t.Amount) {
		return nil, domain.ErrInsufficientFunds
	}

	if err := s.accounts.SetBalanceTx(ctx, tx, src.ID, src.Balance.Sub(t.Amount)); err != nil {
		return nil, err
	}
	if err := s.accounts.SetBalanceTx(ctx, tx, dst.ID, dst.Balance.Add(t.Amount)); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	srcID, dstID := src.ID, dst.ID
	debit := domain.LedgerEntry{
		ID:                uuid.NewString(),
		TransferID:        t.ID,
		SenderAccountID:   &srcID,
		ReceiverAccountID: &dstID,
		Amount:            t.Amount,
		Type:              domain.EntryTypeDebit,
		Description:       t.Description,
		InitiatedBy:       t.InitiatedBy,
		CreatedAt:         now,
	}
	credit := debit
	credit.ID = uuid.NewString()
	credit.Type = domain.EntryTypeCredit

	if err := s.ledger.CreateEntryTx(ctx, tx, &debit); err != nil {
		return nil, err
	}
	if err := s.ledger.CreateEntryTx(ctx, tx, &credit); err != nil {
		return nil, err
	}
	return &domain.EntryPair{Debit: debit, Credit: credit}, nil
}

// mapConflict tags retryable PostgreSQL failures (serialization failure,
// deadlock, lock timeout) with domain.ErrTxConflict.
func mapConflict(err error) error {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%w: %v", domain.ErrTxConflict, err)
		}
	}
	return err
}

func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	return s.accounts.CreateTx(ctx, s.db, account)
}

func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.accounts.GetByIDTx(ctx, s.db, id)
}

func (s *Store) GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	return s.accounts.GetByNumberTx(ctx, s.db, number)
}

func (s *Store) AccountsForOwner(ctx context.Context, ownerID int64) ([]domain.Account, error) {
	return s.accounts.ListForOwnerTx(ctx, s.db, ownerID)
}

func (s *Store) SetAccountStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	return s.accounts.SetStatusTx(ctx, s.db, id, status)
}

func (s *Store) EntriesForAccount(ctx context.Context, accountID string, limit int) ([]domain.LedgerEntry, error) {
	return s.ledger.ListForAccountTx(ctx, s.db, accountID, limit)
}

func (s *Store) AppendAuditEvent(ctx context.Context, event *domain.AuditEvent) error {
	return s.audit.CreateTx(ctx, s.db, event)
}

func (s *Store) AuditEvents(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEvent, error) {
	return s.audit.ListTx(ctx, s.db, filter)
}

func (s *Store) UnpublishedAuditEvents(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	return s.audit.GetUnpublishedTx(ctx, s.db, limit)
}

func (s *Store) MarkAuditEventPublished(ctx context.Context, id string) error {
	return s.audit.MarkPublishedTx(ctx, s.db, id)
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	return s.users.CreateTx(ctx, s.db, user)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByEmailTx(ctx, s.db, email)
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByIDTx(ctx, s.db, id)
}
