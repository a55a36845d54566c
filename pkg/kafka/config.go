package kafka

import (
	"time"
)

// Config holds Kafka configuration
type Config struct {
	Brokers       []string
	ConsumerGroup string
	ClientID      string

	// Producer settings
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack

	// Bounded publish timeout; a publish that exceeds it is treated
	// as a broadcast failure by callers, never as a fatal error.
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:       []string{"localhost:9092"},
		ConsumerGroup: "slotting-service",
		ClientID:      "slotting-service",

		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1,
		WriteTimeout: 5 * time.Second,
	}
}

// Topics contains the Kafka topic names the slotting service publishes to
var Topics = struct {
	ReplenEvents string
	SpikeAlerts  string
}{
	ReplenEvents: "wms.replen.events",
	SpikeAlerts:  "wms.replen.alerts",
}
