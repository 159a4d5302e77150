package audit_repo

import (
	"context"
	"database/sql"
	"fmt"

	"bankcore/internal/domain"
)

type auditRepository struct{}

func NewAuditRepository() AuditRepository {
	return &auditRepository{}
}

func (r *auditRepository) CreateTx(ctx context.Context, querier domain.Querier, event *domain.AuditEvent) error {
	query := `
		INSERT INTO audit_events (id, actor_id, action, details, origin_address, published, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := querier.ExecContext(ctx, query,
		event.ID, event.ActorID, event.Action, event.Details, event.OriginAddress, event.Published, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create audit event: %w", err)
	}
	return nil
}

func (r *auditRepository) ListTx(ctx context.Context, querier domain.Querier, filter domain.AuditFilter) ([]domain.AuditEvent, error) {
	query := `
		SELECT id, actor_id, action, details, origin_address, published, created_at
		FROM audit_events
	`
	args := []any{}
	if filter.Action != "" {
		query += ` WHERE action = $1`
		args = append(args, filter.Action)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d`, len(args)+1)
	args = append(args, filter.Limit)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *auditRepository) GetUnpublishedTx(ctx context.Context, querier domain.Querier, limit int) ([]domain.AuditEvent, error) {
	query := `
		SELECT id, actor_id, action, details, origin_address, published, created_at
		FROM audit_events
		WHERE published = FALSE
		ORDER BY created_at, id
		LIMIT $1
	`
	rows, err := querier.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get unpublished audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *auditRepository) MarkPublishedTx(ctx context.Context, querier domain.Querier, id string) error {
	query := `UPDATE audit_events SET published = TRUE WHERE id = $1`
	if _, err := querier.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark audit event %s published: %w", id, err)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]domain.AuditEvent, error) {
	var events []domain.AuditEvent
	for rows.Next() {
		var e domain.AuditEvent
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Details, &e.OriginAddress, &e.Published, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit event rows: %w", err)
	}
	return events, nil
}
