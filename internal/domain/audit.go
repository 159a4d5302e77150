package domain

import "time"

// Audit actions emitted by the core. The action field is a free-form tag;
// these are the ones this module writes itself.
const (
	AuditTransferCreated      = "TRANSFER_CREATED"
	AuditSuspiciousTransfer   = "SUSPICIOUS_TRANSFER"
	AuditAccountCreated       = "ACCOUNT_CREATED"
	AuditAccountStatusChanged = "ACCOUNT_STATUS_CHANGED"
	AuditRegisterSuccess      = "REGISTER_SUCCESS"
	AuditLoginSuccess         = "LOGIN_SUCCESS"
	AuditLoginFailure         = "LOGIN_FAILURE"
	AuditLoginLockout         = "LOGIN_LOCKOUT"
)

// AuditEvent is an immutable, append-only record of a security- or
// ledger-relevant action. ActorID is nil for unauthenticated events.
type AuditEvent struct {
	ID            string
	ActorID       *int64
	Action        string
	Details       string
	OriginAddress string
	CreatedAt     time.Time
	// Published reports whether the event has been mirrored to the audit
	// stream. Zero value means pending.
	Published bool
}

// AuditFilter narrows audit listings.
type AuditFilter struct {
	Action string
	Limit  int
}
