package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryTypeDebit  EntryType = "debit"
	EntryTypeCredit EntryType = "credit"
)

// LedgerEntry records one side of a fund movement. A single transfer always
// produces exactly two entries sharing the same TransferID, sender, receiver,
// amount and actor, differing only in Type. Entries are immutable once
// created.
type LedgerEntry struct {
	ID                string
	TransferID        string
	SenderAccountID   *string
	ReceiverAccountID *string
	Amount            decimal.Decimal
	Type              EntryType
	Description       string
	InitiatedBy       int64
	CreatedAt         time.Time
}

// Transfer is a fully validated intent handed to the storage layer. The
// atomic unit debits Source, credits Destination and writes the entry pair,
// all or nothing.
type Transfer struct {
	ID                   string
	SourceAccountID      string
	DestinationAccountID string
	Amount               decimal.Decimal
	Description          string
	InitiatedBy          int64
}

// EntryPair is the committed debit/credit pair of a successful transfer.
type EntryPair struct {
	Debit  LedgerEntry
	Credit LedgerEntry
}
