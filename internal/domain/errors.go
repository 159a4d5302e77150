package domain

import "errors"

// Validation failures: expected, recoverable, user-facing. Never logged as
// system errors and never retried.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrNotOwner          = errors.New("account does not belong to actor")
	ErrSameAccount       = errors.New("source and destination are the same account")
	ErrInactiveAccount   = errors.New("account is not active")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive with at most two fractional digits")
)

// Storage-level failures.
var (
	ErrAccountNumberTaken = errors.New("account number already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	// ErrTxConflict marks a transient commit conflict (serialization failure,
	// deadlock, lock timeout). Safe to retry.
	ErrTxConflict = errors.New("transaction conflict")
)

// ErrTransferFailed covers any unexpected failure of the atomic mutation
// unit after rollback. No partial state survives it.
var ErrTransferFailed = errors.New("transfer failed, no funds moved")

// Auth failures.
var (
	ErrLockedOut          = errors.New("too many failed login attempts")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
