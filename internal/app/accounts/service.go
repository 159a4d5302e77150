// Package accounts handles account opening and status transitions.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"bankcore/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Store interface {
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	AccountsForOwner(ctx context.Context, ownerID int64) ([]domain.Account, error)
	SetAccountStatus(ctx context.Context, id string, status domain.AccountStatus) error
}

type Recorder interface {
	Record(ctx context.Context, action string, actorID *int64, details, origin string) error
}

// maxNumberAttempts bounds account-number regeneration on uniqueness
// collisions. With 10^10 candidate numbers a second collision in a row
// means something is broken, not unlucky.
const maxNumberAttempts = 10

type Service struct {
	store     Store
	recorder  Recorder
	logger    *zap.Logger
	numberGen func() string
}

func NewService(store Store, recorder Recorder, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		recorder:  recorder,
		logger:    logger,
		numberGen: GenerateAccountNumber,
	}
}

// GenerateAccountNumber returns a 10-digit account number.
func GenerateAccountNumber() string {
	return fmt.Sprintf("%010d", rand.Int63n(10_000_000_000))
}

// Open creates an account for the owner. Account-number collisions trigger
// regeneration, never a user-facing failure.
func (s *Service) Open(ctx context.Context, ownerID int64, accType domain.AccountType, openingBalance decimal.Decimal, origin string) (*domain.Account, error) {
	if accType != domain.AccountTypeChecking && accType != domain.AccountTypeSavings {
		return nil, fmt.Errorf("unsupported account type %q", accType)
	}
	if openingBalance.IsNegative() || openingBalance.Exponent() < -2 {
		return nil, domain.ErrInvalidAmount
	}

	var account *domain.Account
	for attempt := 1; ; attempt++ {
		now := time.Now().UTC()
		account = &domain.Account{
			ID:            uuid.NewString(),
			AccountNumber: s.numberGen(),
			OwnerID:       ownerID,
			Type:          accType,
			Balance:       openingBalance,
			Status:        domain.AccountStatusActive,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		err := s.store.CreateAccount(ctx, account)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrAccountNumberTaken) && attempt < maxNumberAttempts {
			s.logger.Info("account number collision, regenerating",
				zap.String("account_number", account.AccountNumber),
				zap.Int("attempt", attempt))
			continue
		}
		return nil, fmt.Errorf("failed to open account for owner %d: %w", ownerID, err)
	}

	details := fmt.Sprintf("account=%s owner=%d", account.AccountNumber, ownerID)
	if err := s.recorder.Record(ctx, domain.AuditAccountCreated, &ownerID, details, origin); err != nil {
		s.logger.Warn("account opened but audit write failed",
			zap.String("account_id", account.ID), zap.Error(err))
	}

	s.logger.Info("account opened",
		zap.String("account_id", account.ID),
		zap.String("account_number", account.AccountNumber),
		zap.Int64("owner_id", ownerID),
		zap.String("type", string(accType)))
	return account, nil
}

// SetStatus freezes or unfreezes an account. Capability checks are the
// caller's responsibility; the actor here is recorded for the audit trail.
func (s *Service) SetStatus(ctx context.Context, accountID string, status domain.AccountStatus, actorID int64, origin string) error {
	if status != domain.AccountStatusActive && status != domain.AccountStatusFrozen {
		return fmt.Errorf("unsupported account status %q", status)
	}
	if err := s.store.SetAccountStatus(ctx, accountID, status); err != nil {
		return err
	}
	details := fmt.Sprintf("account=%s status=%s", accountID, status)
	if err := s.recorder.Record(ctx, domain.AuditAccountStatusChanged, &actorID, details, origin); err != nil {
		s.logger.Warn("account status changed but audit write failed",
			zap.String("account_id", accountID), zap.Error(err))
	}
	return nil
}

func (s *Service) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.store.GetAccount(ctx, accountID)
}

func (s *Service) ForOwner(ctx context.Context, ownerID int64) ([]domain.Account, error) {
	return s.store.AccountsForOwner(ctx, ownerID)
}
