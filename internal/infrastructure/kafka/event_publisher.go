package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/wms-platform/slotting-service/internal/domain"
	"github.com/wms-platform/slotting-service/pkg/events"
	"github.com/wms-platform/slotting-service/pkg/kafka"
	"github.com/wms-platform/slotting-service/pkg/logging"
	"github.com/wms-platform/slotting-service/pkg/metrics"
)

// EventsTopic carries all replenishment domain events
const EventsTopic = "wms.replen.events"

// EventPublisher publishes domain events to the platform event bus
type EventPublisher struct {
	producer *kafka.CircuitBreakerProducer
	factory  *events.Factory
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// NewEventPublisher creates an EventPublisher
func NewEventPublisher(producer *kafka.CircuitBreakerProducer, factory *events.Factory, logger *logging.Logger, m *metrics.Metrics) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		factory:  factory,
		logger:   logger,
		metrics:  m,
	}
}

// Publish sends a single domain event
func (p *EventPublisher) Publish(ctx context.Context, warehouseID string, event domain.DomainEvent) error {
	envelope := p.factory.NewEvent(ctx, event.EventType(), warehouseID, warehouseID, event)

	start := time.Now()
	err := p.producer.PublishEvent(ctx, EventsTopic, envelope)
	duration := time.Since(start)

	p.metrics.RecordKafkaPublish(EventsTopic, event.EventType(), err == nil, duration)
	p.logger.KafkaPublish(ctx, EventsTopic, event.EventType(), err == nil, duration)

	if err != nil {
		return fmt.Errorf("publishing %s: %w", event.EventType(), err)
	}
	return nil
}

// PublishAll sends events in order, stopping at the first failure
func (p *EventPublisher) PublishAll(ctx context.Context, warehouseID string, evts []domain.DomainEvent) error {
	for _, event := range evts {
		if err := p.Publish(ctx, warehouseID, event); err != nil {
			return err
		}
	}
	return nil
}
