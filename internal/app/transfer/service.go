// Package transfer implements the transfer engine: it validates a transfer
// request against ownership, status and funds rules and hands the validated
// intent to the storage layer as one atomic unit.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bankcore/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store is the slice of the storage boundary the engine needs.
type Store interface {
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error)
	ApplyTransfer(ctx context.Context, t *domain.Transfer) (*domain.EntryPair, error)
	EntriesForAccount(ctx context.Context, accountID string, limit int) ([]domain.LedgerEntry, error)
}

// Recorder appends audit events. Transfer audit writes are advisory: their
// failure never undoes a committed transfer.
type Recorder interface {
	Record(ctx context.Context, action string, actorID *int64, details, origin string) error
}

type Service struct {
	store               Store
	recorder            Recorder
	suspiciousThreshold decimal.Decimal
	retryAttempts       int
	logger              *zap.Logger
}

func NewService(store Store, recorder Recorder, suspiciousThreshold decimal.Decimal, retryAttempts int, logger *zap.Logger) *Service {
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &Service{
		store:               store,
		recorder:            recorder,
		suspiciousThreshold: suspiciousThreshold,
		retryAttempts:       retryAttempts,
		logger:              logger,
	}
}

// ExecuteParams carries an already-authorized request from the web layer.
// Exactly one of DestinationAccountID (internal transfer, destination must
// also belong to the actor) or DestinationNumber (external transfer by
// account number) must be set.
type ExecuteParams struct {
	SourceAccountID      string
	DestinationAccountID string
	DestinationNumber    string
	Amount               decimal.Decimal
	Description          string
	ActorID              int64
	Origin               string
}

// Result is the committed outcome of a transfer. AuditErr is non-nil when
// the post-commit audit writes failed; funds have moved regardless.
type Result struct {
	TransferID string
	Debit      domain.LedgerEntry
	Credit     domain.LedgerEntry
	AuditErr   error
}

// Execute validates and performs a transfer. Validation checks run in a
// fixed order and the first failure wins: resolution, ownership, distinct
// accounts, active status, sufficient funds. Funds and status are re-checked
// inside the atomic unit under account locks.
func (s *Service) Execute(ctx context.Context, p ExecuteParams) (*Result, error) {
	if !p.Amount.IsPositive() || p.Amount.Exponent() < -2 {
		return nil, domain.ErrInvalidAmount
	}

	src, err := s.store.GetAccount(ctx, p.SourceAccountID)
	if err != nil {
		return nil, err
	}

	internal := p.DestinationAccountID != ""
	var dst *domain.Account
	if internal {
		dst, err = s.store.GetAccount(ctx, p.DestinationAccountID)
	} else {
		dst, err = s.store.GetAccountByNumber(ctx, strings.TrimSpace(p.DestinationNumber))
	}
	if err != nil {
		return nil, err
	}

	if src.OwnerID != p.ActorID {
		return nil, domain.ErrNotOwner
	}
	if internal && dst.OwnerID != p.ActorID {
		return nil, domain.ErrNotOwner
	}
	if src.ID == dst.ID {
		return nil, domain.ErrSameAccount
	}
	if !src.IsActive() || !dst.IsActive() {
		return nil, domain.ErrInactiveAccount
	}
	if src.Balance.LessThan(p.Amount) {
		return nil, domain.ErrInsufficientFunds
	}

	t := &domain.Transfer{
		ID:                   uuid.NewString(),
		SourceAccountID:      src.ID,
		DestinationAccountID: dst.ID,
		Amount:               p.Amount,
		Description:          p.Description,
		InitiatedBy:          p.ActorID,
	}

	pair, err := s.apply(ctx, t)
	if err != nil {
		return nil, err
	}

	result := &Result{TransferID: t.ID, Debit: pair.Debit, Credit: pair.Credit}
	result.AuditErr = s.auditTransfer(ctx, p, src, dst)
	return result, nil
}

// apply drives the atomic unit with a bounded retry on transient commit
// conflicts. Validation outcomes from the in-lock re-check pass through
// untouched; anything else rolls up to ErrTransferFailed.
func (s *Service) apply(ctx context.Context, t *domain.Transfer) (*domain.EntryPair, error) {
	var err error
	for attempt := 1; attempt <= s.retryAttempts; attempt++ {
		var pair *domain.EntryPair
		pair, err = s.store.ApplyTransfer(ctx, t)
		if err == nil {
			return pair, nil
		}
		if isValidation(err) {
			return nil, err
		}
		if errors.Is(err, domain.ErrTxConflict) {
			s.logger.Warn("transfer commit conflict, retrying",
				zap.String("transfer_id", t.ID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}
		break
	}
	s.logger.Error("transfer mutation unit failed, rolled back",
		zap.String("transfer_id", t.ID),
		zap.Error(err))
	return nil, fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
}

func (s *Service) auditTransfer(ctx context.Context, p ExecuteParams, src, dst *domain.Account) error {
	actorID := p.ActorID
	details := fmt.Sprintf("from=%s to=%s amount=%s", src.AccountNumber, dst.AccountNumber, p.Amount.StringFixed(2))
	auditErr := s.recorder.Record(ctx, domain.AuditTransferCreated, &actorID, details, p.Origin)

	if p.Amount.GreaterThanOrEqual(s.suspiciousThreshold) {
		details := fmt.Sprintf("amount=%s from=%s", p.Amount.StringFixed(2), src.AccountNumber)
		if err := s.recorder.Record(ctx, domain.AuditSuspiciousTransfer, &actorID, details, p.Origin); err != nil {
			auditErr = errors.Join(auditErr, err)
		}
	}
	if auditErr != nil {
		s.logger.Warn("transfer committed but audit write failed",
			zap.String("source_account", src.ID),
			zap.String("destination_account", dst.ID),
			zap.Error(auditErr))
	}
	return auditErr
}

// History lists ledger entries touching an account, newest first.
func (s *Service) History(ctx context.Context, accountID string, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	return s.store.EntriesForAccount(ctx, accountID, limit)
}

func isValidation(err error) bool {
	return errors.Is(err, domain.ErrAccountNotFound) ||
		errors.Is(err, domain.ErrNotOwner) ||
		errors.Is(err, domain.ErrSameAccount) ||
		errors.Is(err, domain.ErrInactiveAccount) ||
		errors.Is(err, domain.ErrInsufficientFunds) ||
		errors.Is(err, domain.ErrInvalidAmount)
}
