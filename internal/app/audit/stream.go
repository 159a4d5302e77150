package audit

import (
	"context"
	"encoding/json"
	"time"

	"bankcore/internal/domain"

	"go.uber.org/zap"
)

type StreamStore interface {
	UnpublishedAuditEvents(ctx context.Context, limit int) ([]domain.AuditEvent, error)
	MarkAuditEventPublished(ctx context.Context, id string) error
}

type Producer interface {
	Produce(ctx context.Context, key, topic string, value []byte) error
}

// StreamProcessor mirrors persisted audit events to Kafka. Events are
// polled oldest first and publication stops at the first failure so the
// stream preserves the append order of the log.
type StreamProcessor struct {
	store        StreamStore
	producer     Producer
	topic        string
	pollInterval time.Duration
	batchSize    int
	logger       *zap.Logger
}

func NewStreamProcessor(store StreamStore, producer Producer, topic string, pollInterval time.Duration, logger *zap.Logger) *StreamProcessor {
	return &StreamProcessor{
		store:        store,
		producer:     producer,
		topic:        topic,
		pollInterval: pollInterval,
		batchSize:    100,
		logger:       logger,
	}
}

type streamEvent struct {
	ID            string    `json:"id"`
	ActorID       *int64    `json:"actor_id,omitempty"`
	Action        string    `json:"action"`
	Details       string    `json:"details"`
	OriginAddress string    `json:"origin_address"`
	Timestamp     time.Time `json:"timestamp"`
}

// Start blocks until ctx is cancelled, publishing pending events on each
// tick.
func (p *StreamProcessor) Start(ctx context.Context) {
	p.logger.Info("starting audit stream processor", zap.String("topic", p.topic))
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("audit stream processor stopped")
			return
		case <-ticker.C:
			p.publishPending(ctx)
		}
	}
}

func (p *StreamProcessor) publishPending(ctx context.Context) {
	events, err := p.store.UnpublishedAuditEvents(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("failed to poll unpublished audit events", zap.Error(err))
		return
	}
	for _, event := range events {
		payload, err := json.Marshal(streamEvent{
			ID:            event.ID,
			ActorID:       event.ActorID,
			Action:        event.Action,
			Details:       event.Details,
			OriginAddress: event.OriginAddress,
			Timestamp:     event.CreatedAt,
		})
		if err != nil {
			p.logger.Error("failed to marshal audit event", zap.String("event_id", event.ID), zap.Error(err))
			return
		}
		if err := p.producer.Produce(ctx, event.ID, p.topic, payload); err != nil {
			// Leave this and all later events pending; retried next tick.
			p.logger.Error("failed to publish audit event", zap.String("event_id", event.ID), zap.Error(err))
			return
		}
		if err := p.store.MarkAuditEventPublished(ctx, event.ID); err != nil {
			p.logger.Error("failed to mark audit event published", zap.String("event_id", event.ID), zap.Error(err))
			return
		}
	}
}
