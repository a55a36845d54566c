package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event type names published by the slotting service
const (
	TypeSpikeDetected = "replen.spike.detected"
	TypeMoveCompleted = "replen.move.completed"
	TypePlanPublished = "replen.plan.published"
	TypeCountdown     = "replen.countdown"
)

// Envelope is the wire format for slotting events. It follows the
// CloudEvents attribute naming used across the platform, with the
// warehouse id carried as an extension so consumers can filter
// per-warehouse without decoding the payload.
type Envelope struct {
	ID              string      `json:"id"`
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	// Extensions
	CorrelationID string `json:"correlationid,omitempty"`
	WarehouseID   string `json:"warehouseid,omitempty"`
}

// Factory creates event envelopes with a fixed source
type Factory struct {
	source string
}

// NewFactory creates a new event factory
func NewFactory(source string) *Factory {
	return &Factory{source: source}
}

// NewEvent creates an envelope for the given event type and payload
func (f *Factory) NewEvent(ctx context.Context, eventType, subject, warehouseID string, data interface{}) *Envelope {
	env := &Envelope{
		ID:              uuid.New().String(),
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		WarehouseID:     warehouseID,
	}

	if v := ctx.Value(correlationIDKey); v != nil {
		if id, ok := v.(string); ok {
			env.CorrelationID = id
		}
	}

	return env
}

type contextKey string

const correlationIDKey contextKey = "correlationId"

// ContextWithCorrelationID stores a correlation id for event stamping
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}
