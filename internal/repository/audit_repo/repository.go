package audit_repo

import (
	"context"

	"bankcore/internal/domain"
)

type AuditRepository interface {
	CreateTx(ctx context.Context, querier domain.Querier, event *domain.AuditEvent) error
	ListTx(ctx context.Context, querier domain.Querier, filter domain.AuditFilter) ([]domain.AuditEvent, error)
	// GetUnpublishedTx returns events not yet mirrored to the audit stream,
	// oldest first, so causal order survives publication.
	GetUnpublishedTx(ctx context.Context, querier domain.Querier, limit int) ([]domain.AuditEvent, error)
	MarkPublishedTx(ctx context.Context, querier domain.Querier, id string) error
}
