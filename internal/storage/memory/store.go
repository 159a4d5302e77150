// Package memory implements the storage boundary entirely in process
// memory. It is used by tests and by single-process embeddings that do not
// need durability.
package memory

import (
	"context"
	"sync"
	"time"

	"bankcore/internal/domain"

	"github.com/google/uuid"
)

type Store struct {
	mu           sync.Mutex
	accounts     map[string]*domain.Account
	byNumber     map[string]string
	entries      []domain.LedgerEntry
	events       []domain.AuditEvent
	users        map[int64]*domain.User
	usersByEmail map[string]int64
	nextUserID   int64

	// accountLocks serializes transfers per account. The map itself is
	// guarded by lockMu.
	lockMu       sync.Mutex
	accountLocks map[string]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]*domain.Account),
		byNumber:     make(map[string]string),
		users:        make(map[int64]*domain.User),
		usersByEmail: make(map[string]int64),
		accountLocks: make(map[string]*sync.Mutex),
	}
}

func (s *Store) accountLock(accountID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	if _, exists := s.accountLocks[accountID]; !exists {
		s.accountLocks[accountID] = &sync.Mutex{}
	}
	return s.accountLocks[accountID]
}

// ApplyTransfer is the atomic mutation unit: it re-checks status and funds
// under both account locks, then mutates both balances and appends the
// debit/credit entry pair. Locks are taken in lexicographic id order so two
// opposing transfers cannot deadlock.
func (s *Store) ApplyTransfer(ctx context.Context, t *domain.Transfer) (*domain.EntryPair, error) {
	if t.SourceAccountID == t.DestinationAccountID {
		return nil, domain.ErrSameAccount
	}
	first, second := t.SourceAccountID, t.DestinationAccountID
	if second < first {
		first, second = second, first
	}
	firstLock := s.accountLock(first)
	secondLock := s.accountLock(second)
	firstLock.Lock()
	defer firstLock.Unlock()
	secondLock.Lock()
	defer secondLock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.accounts[t.SourceAccountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	dst, ok := s.accounts[t.DestinationAccountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if !src.IsActive() || !dst.IsActive() {
		return nil, domain.ErrInactiveAccount
	}
	if src.Balance.LessThan(t.Amount) {
		return nil, domain.ErrInsufficientFunds
	}

	now := time.Now().UTC()
	src.Balance = src.Balance.Sub(t.Amount)
	src.UpdatedAt = now
	dst.Balance = dst.Balance.Add(t.Amount)
	dst.UpdatedAt = now

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

	s.entries = append(s.entries, debit, credit)
	return &domain.EntryPair{Debit: debit, Credit: credit}, nil
}

func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byNumber[account.AccountNumber]; taken {
		return domain.ErrAccountNumberTaken
	}
	stored := *account
	s.accounts[account.ID] = &stored
	s.byNumber[account.AccountNumber] = account.ID
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *Store) GetAccountByNumber(ctx context.Context, number string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byNumber[number]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copied := *s.accounts[id]
	return &copied, nil
}

func (s *Store) AccountsForOwner(ctx context.Context, ownerID int64) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var accounts []domain.Account
	for _, account := range s.accounts {
		if account.OwnerID == ownerID {
			accounts = append(accounts, *account)
		}
	}
	return accounts, nil
}

func (s *Store) SetAccountStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.Status = status
	account.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) EntriesForAccount(ctx context.Context, accountID string, limit int) ([]domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []domain.LedgerEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		touches := (e.SenderAccountID != nil && *e.SenderAccountID == accountID) ||
			(e.ReceiverAccountID != nil && *e.ReceiverAccountID == accountID)
		if !touches {
			continue
		}
		entries = append(entries, e)
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries, nil
}

func (s *Store) AppendAuditEvent(ctx context.Context, event *domain.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return nil
}

func (s *Store) AuditEvents(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var events []domain.AuditEvent
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		events = append(events, e)
		if filter.Limit > 0 && len(events) == filter.Limit {
			break
		}
	}
	return events, nil
}

func (s *Store) UnpublishedAuditEvents(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var events []domain.AuditEvent
	for _, e := range s.events {
		if e.Published {
			continue
		}
		events = append(events, e)
		if limit > 0 && len(events) == limit {
			break
		}
	}
	return events, nil
}

func (s *Store) MarkAuditEventPublished(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			s.events[i].Published = true
			return nil
		}
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.usersByEmail[user.Email]; taken {
		return domain.ErrEmailTaken
	}
	s.nextUserID++
	user.ID = s.nextUserID
	stored := *user
	s.users[user.ID] = &stored
	s.usersByEmail[user.Email] = user.ID
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *s.users[id]
	return &copied, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}
