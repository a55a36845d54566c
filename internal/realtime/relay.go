package realtime

import (
	"context"
	"time"

	"github.com/wms-platform/slotting-service/internal/domain"
	"github.com/wms-platform/slotting-service/pkg/events"
	"github.com/wms-platform/slotting-service/pkg/kafka"
	"github.com/wms-platform/slotting-service/pkg/logging"
)

// RealtimeTopic carries hub frames between worker and API processes
const RealtimeTopic = "wms.replen.realtime"

// RelayBroadcaster implements domain.EventBroadcaster for processes that
// hold no WebSocket clients of their own. Frames are published to a relay
// topic and fanned out by the Bridge running next to a Hub. Emits are fire
// and forget; a failed publish is logged and dropped.
type RelayBroadcaster struct {
	producer *kafka.CircuitBreakerProducer
	factory  *events.Factory
	logger   *logging.Logger
	timeout  time.Duration
}

var _ domain.EventBroadcaster = (*RelayBroadcaster)(nil)

// NewRelayBroadcaster creates a RelayBroadcaster
func NewRelayBroadcaster(producer *kafka.CircuitBreakerProducer, factory *events.Factory, logger *logging.Logger) *RelayBroadcaster {
	return &RelayBroadcaster{
		producer: producer,
		factory:  factory,
		logger:   logger.WithComponent("realtime-relay"),
		timeout:  5 * time.Second,
	}
}

func (r *RelayBroadcaster) emit(warehouseID, event string, data interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	envelope := r.factory.NewEvent(ctx, event, WarehouseRoom(warehouseID), warehouseID, data)
	if err := r.producer.PublishEvent(ctx, RealtimeTopic, envelope); err != nil {
		r.logger.WithError(err).Warn("Dropping realtime frame, relay publish failed", "event", event)
	}
}

// EmitSpikeDetected implements domain.EventBroadcaster
func (r *RelayBroadcaster) EmitSpikeDetected(warehouseID string, event *domain.SpikeDetectedEvent) {
	r.emit(warehouseID, EventSpikeDetected, event)
}

// EmitMoveCompleted implements domain.EventBroadcaster
func (r *RelayBroadcaster) EmitMoveCompleted(warehouseID string, event *domain.MoveCompletedEvent) {
	r.emit(warehouseID, EventMoveCompleted, event)
}

// EmitCountdown implements domain.EventBroadcaster
func (r *RelayBroadcaster) EmitCountdown(warehouseID string, payload domain.CountdownPayload) {
	r.emit(warehouseID, EventCountdown, payload)
}
