// Package audit appends immutable audit events and optionally mirrors them
// to a Kafka stream.
package audit

import (
	"context"
	"fmt"
	"time"

	"bankcore/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Store interface {
	AppendAuditEvent(ctx context.Context, event *domain.AuditEvent) error
	AuditEvents(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEvent, error)
}

type Recorder struct {
	store  Store
	logger *zap.Logger
}

func NewRecorder(store Store, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Record appends one event. A persistence failure is returned, not
// swallowed; the caller decides whether it is fatal (lockout bookkeeping)
// or advisory (transfer trail).
func (r *Recorder) Record(ctx context.Context, action string, actorID *int64, details, origin string) error {
	event := &domain.AuditEvent{
		ID:            uuid.NewString(),
		ActorID:       actorID,
		Action:        action,
		Details:       details,
		OriginAddress: origin,
		CreatedAt:     time.Now().UTC(),
	}
	if err := r.store.AppendAuditEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to record audit event %s: %w", action, err)
	}
	return nil
}

// Recent lists events newest first, optionally filtered by action.
func (r *Recorder) Recent(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEvent, error) {
	if filter.Limit <= 0 {
		filter.Limit = 500
	}
	return r.store.AuditEvents(ctx, filter)
}
