package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/wms-platform/slotting-service/pkg/events"
	"github.com/wms-platform/slotting-service/pkg/logging"
)

// Bridge consumes relay frames published by worker processes and fans them
// out through the local Hub. Every API instance consumes the full topic, so
// the consumer group is unique per instance.
type Bridge struct {
	reader *kafkago.Reader
	hub    *Hub
	logger *logging.Logger
}

// NewBridge creates a Bridge reading the relay topic from the given brokers
func NewBridge(brokers []string, hub *Hub, logger *logging.Logger) *Bridge {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     "slotting-realtime-" + uuid.New().String(),
		Topic:       RealtimeTopic,
		MinBytes:    1,
		MaxBytes:    1 << 20,
		StartOffset: kafkago.LastOffset,
	})

	return &Bridge{
		reader: reader,
		hub:    hub,
		logger: logger.WithComponent("realtime-bridge"),
	}
}

// Run consumes until the context is cancelled
func (b *Bridge) Run(ctx context.Context) {
	for {
		msg, err := b.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.WithError(err).Warn("Relay read failed")
			continue
		}

		var envelope events.Envelope
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			b.logger.WithError(err).Warn("Dropping malformed relay frame")
			continue
		}
		if envelope.WarehouseID == "" {
			continue
		}

		b.hub.Broadcast(WarehouseRoom(envelope.WarehouseID), envelope.Type, envelope.Data)
	}
}

// Close releases the underlying reader
func (b *Bridge) Close() error {
	return b.reader.Close()
}
