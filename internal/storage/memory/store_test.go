package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"bankcore/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func seedAccount(t *testing.T, store *Store, number, balance string) *domain.Account {
	t.Helper()
	amount, err := decimal.NewFromString(balance)
	if err != nil {
		t.Fatalf("decimal %q: %v", balance, err)
	}
	account := &domain.Account{
		ID:            uuid.NewString(),
		AccountNumber: number,
		OwnerID:       1,
		Type:          domain.AccountTypeChecking,
		Balance:       amount,
		Status:        domain.AccountStatusActive,
	}
	if err := store.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return account
}

func balanceOf(t *testing.T, store *Store, id string) decimal.Decimal {
	t.Helper()
	account, err := store.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	return account.Balance
}

func TestApplyTransfer(t *testing.T) {
	store := NewStore()
	src := seedAccount(t, store, "1111111111", "100.00")
	dst := seedAccount(t, store, "2222222222", "0.00")

	transfer := &domain.Transfer{
		ID:                   uuid.NewString(),
		SourceAccountID:      src.ID,
		DestinationAccountID: dst.ID,
		Amount:               decimal.RequireFromString("40.00"),
		Description:          "rent",
		InitiatedBy:          1,
	}
	pair, err := store.ApplyTransfer(context.Background(), transfer)
	if err != nil {
		t.Fatalf("ApplyTransfer: %v", err)
	}

	if got := balanceOf(t, store, src.ID); !got.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("source balance = %s, want 60.00", got)
	}
	if got := balanceOf(t, store, dst.ID); !got.Equal(decimal.RequireFromString("40.00")) {
		t.Fatalf("destination balance = %s, want 40.00", got)
	}

	if pair.Debit.Type != domain.EntryTypeDebit || pair.Credit.Type != domain.EntryTypeCredit {
		t.Fatalf("entry types = %s/%s", pair.Debit.Type, pair.Credit.Type)
	}
	if pair.Debit.TransferID != transfer.ID || pair.Credit.TransferID != transfer.ID {
		t.Fatal("both entries must carry the transfer id")
	}
	if *pair.Debit.SenderAccountID != src.ID || *pair.Credit.SenderAccountID != src.ID {
		t.Fatal("both entries must name the same sender")
	}
	if *pair.Debit.ReceiverAccountID != dst.ID || *pair.Credit.ReceiverAccountID != dst.ID {
		t.Fatal("both entries must name the same receiver")
	}
	if pair.Debit.ID == pair.Credit.ID {
		t.Fatal("entry ids must differ")
	}
}

func TestApplyTransferRejections(t *testing.T) {
	store := NewStore()
	src := seedAccount(t, store, "1111111111", "10.00")
	dst := seedAccount(t, store, "2222222222", "0.00")
	frozen := seedAccount(t, store, "3333333333", "50.00")
	if err := store.SetAccountStatus(context.Background(), frozen.ID, domain.AccountStatusFrozen); err != nil {
		t.Fatalf("SetAccountStatus: %v", err)
	}

	cases := []struct {
		name     string
		transfer domain.Transfer
		want     error
	}{
		{
			name: "insufficient funds",
			transfer: domain.Transfer{
				SourceAccountID:      src.ID,
				DestinationAccountID: dst.ID,
				Amount:               decimal.RequireFromString("10.01"),
			},
			want: domain.ErrInsufficientFunds,
		},
		{
			name: "unknown source",
			transfer: domain.Transfer{
				SourceAccountID:      uuid.NewString(),
				DestinationAccountID: dst.ID,
				Amount:               decimal.RequireFromString("1.00"),
			},
			want: domain.ErrAccountNotFound,
		},
		{
			name: "unknown destination",
			transfer: domain.Transfer{
				SourceAccountID:      src.ID,
				DestinationAccountID: uuid.NewString(),
				Amount:               decimal.RequireFromString("1.00"),
			},
			want: domain.ErrAccountNotFound,
		},
		{
			name: "same account",
			transfer: domain.Transfer{
				SourceAccountID:      src.ID,
				DestinationAccountID: src.ID,
				Amount:               decimal.RequireFromString("1.00"),
			},
			want: domain.ErrSameAccount,
		},
		{
			name: "frozen source",
			transfer: domain.Transfer{
				SourceAccountID:      frozen.ID,
				DestinationAccountID: dst.ID,
				Amount:               decimal.RequireFromString("1.00"),
			},
			want: domain.ErrInactiveAccount,
		},
		{
			name: "frozen destination",
			transfer: domain.Transfer{
				SourceAccountID:      src.ID,
				DestinationAccountID: frozen.ID,
				Amount:               decimal.RequireFromString("1.00"),
			},
			want: domain.ErrInactiveAccount,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.transfer.ID = uuid.NewString()
			if _, err := store.ApplyTransfer(context.Background(), &tc.transfer); !errors.Is(err, tc.want) {
				t.Fatalf("ApplyTransfer err = %v, want %v", err, tc.want)
			}
		})
	}

	// No rejected attempt may leave a trace.
	if got := balanceOf(t, store, src.ID); !got.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("source balance = %s, want 10.00", got)
	}
	if got := balanceOf(t, store, dst.ID); !got.Equal(decimal.RequireFromString("0.00")) {
		t.Fatalf("destination balance = %s, want 0.00", got)
	}
	entries, err := store.EntriesForAccount(context.Background(), src.ID, 0)
	if err != nil {
		t.Fatalf("EntriesForAccount: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("%d entries recorded for rejected transfers, want 0", len(entries))
	}
}

func TestApplyTransferConcurrentConservation(t *testing.T) {
	store := NewStore()
	src := seedAccount(t, store, "1111111111", "100.00")
	dst := seedAccount(t, store, "2222222222", "0.00")
	amount := decimal.RequireFromString("1.00")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.ApplyTransfer(context.Background(), &domain.Transfer{
				ID:                   uuid.NewString(),
				SourceAccountID:      src.ID,
				DestinationAccountID: dst.ID,
				Amount:               amount,
			})
		}()
	}
	wg.Wait()

	srcBal := balanceOf(t, store, src.ID)
	dstBal := balanceOf(t, store, dst.ID)
	if !srcBal.Add(dstBal).Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("total = %s, want 100.00", srcBal.Add(dstBal))
	}
	if !srcBal.Equal(decimal.RequireFromString("0.00")) {
		t.Fatalf("source balance = %s, want 0.00", srcBal)
	}
}

func TestApplyTransferOpposingDirections(t *testing.T) {
	store := NewStore()
	a := seedAccount(t, store, "1111111111", "50.00")
	b := seedAccount(t, store, "2222222222", "50.00")
	amount := decimal.RequireFromString("1.00")

	// Opposing transfers take the per-account locks in id order, so this
	// must finish without deadlock.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = store.ApplyTransfer(context.Background(), &domain.Transfer{
				ID:                   uuid.NewString(),
				SourceAccountID:      a.ID,
				DestinationAccountID: b.ID,
				Amount:               amount,
			})
		}()
		go func() {
			defer wg.Done()
			_, _ = store.ApplyTransfer(context.Background(), &domain.Transfer{
				ID:                   uuid.NewString(),
				SourceAccountID:      b.ID,
				DestinationAccountID: a.ID,
				Amount:               amount,
			})
		}()
	}
	wg.Wait()

	total := balanceOf(t, store, a.ID).Add(balanceOf(t, store, b.ID))
	if !total.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("total = %s, want 100.00", total)
	}
}

func TestCreateAccountDuplicateNumber(t *testing.T) {
	store := NewStore()
	seedAccount(t, store, "1111111111", "0.00")

	dup := &domain.Account{
		ID:            uuid.NewString(),
		AccountNumber: "1111111111",
		OwnerID:       2,
		Type:          domain.AccountTypeSavings,
		Balance:       decimal.Zero,
		Status:        domain.AccountStatusActive,
	}
	if err := store.CreateAccount(context.Background(), dup); !errors.Is(err, domain.ErrAccountNumberTaken) {
		t.Fatalf("CreateAccount err = %v, want ErrAccountNumberTaken", err)
	}
}

func TestEntriesForAccountOrderAndLimit(t *testing.T) {
	store := NewStore()
	src := seedAccount(t, store, "1111111111", "100.00")
	dst := seedAccount(t, store, "2222222222", "0.00")

	var last string
	for i := 0; i < 3; i++ {
		transfer := &domain.Transfer{
			ID:                   uuid.NewString(),
			SourceAccountID:      src.ID,
			DestinationAccountID: dst.ID,
			Amount:               decimal.RequireFromString("1.00"),
			Description:          fmt.Sprintf("payment %d", i),
		}
		if _, err := store.ApplyTransfer(context.Background(), transfer); err != nil {
			t.Fatalf("ApplyTransfer: %v", err)
		}
		last = transfer.ID
	}

	entries, err := store.EntriesForAccount(context.Background(), src.ID, 0)
	if err != nil {
		t.Fatalf("EntriesForAccount: %v", err)
	}
	if len(entries) != 6 {
		t.Fatalf("len(entries) = %d, want 6", len(entries))
	}
	// Newest first.
	if entries[0].TransferID != last {
		t.Fatalf("entries[0].TransferID = %s, want %s", entries[0].TransferID, last)
	}

	capped, err := store.EntriesForAccount(context.Background(), src.ID, 2)
	if err != nil {
		t.Fatalf("EntriesForAccount: %v", err)
	}
	if len(capped) != 2 {
		t.Fatalf("len(capped) = %d, want 2", len(capped))
	}
}

func TestCopyOnRead(t *testing.T) {
	store := NewStore()
	account := seedAccount(t, store, "1111111111", "10.00")

	got, err := store.GetAccount(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	got.Balance = decimal.RequireFromString("999.00")
	got.Status = domain.AccountStatusFrozen

	again, err := store.GetAccount(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !again.Balance.Equal(decimal.RequireFromString("10.00")) || again.Status != domain.AccountStatusActive {
		t.Fatal("mutating a returned account must not change the stored one")
	}
}
