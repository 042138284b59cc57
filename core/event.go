package core

import (
	"time"
)

// ValidationMetadata records the upstream validation decision attached to an
// event. The ingestion collaborator performs schema validation and producer
// attribution; the engine treats these as already-resolved inputs.
type ValidationMetadata struct {
	SchemaVersion string    `json:"schema_version"`
	ProducerID    string    `json:"producer_id"`
	ReceivedAt    time.Time `json:"received_at"`
}

// ValidatedEvent is a single telemetry observation after upstream schema
// validation and attribution. It is immutable once constructed and owned
// exclusively by the pipeline call that processes it.
type ValidatedEvent struct {
	EventID    string                 `json:"event_id"`
	EntityID   string                 `json:"entity_id"`
	Timestamp  time.Time              `json:"timestamp"`
	Sequence   uint64                 `json:"sequence"`
	SignalType string                 `json:"signal_type"`
	Confidence float64                `json:"confidence"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Validation ValidationMetadata     `json:"validation_metadata"`
}

// Signal is the windowed residue of an accepted event: the fields the
// correlation window and the evidence bundle need, nothing else.
type Signal struct {
	EventID    string     `json:"event_id" msgpack:"event_id"`
	Timestamp  time.Time  `json:"timestamp" msgpack:"timestamp"`
	SignalType string     `json:"signal_type" msgpack:"signal_type"`
	Confidence Confidence `json:"confidence" msgpack:"confidence"`
}

// SignalOf converts an accepted event into its windowed signal. Producer
// confidence is clamped, not rejected: out-of-range values from an attested
// producer degrade to the nearest bound rather than dropping telemetry.
func SignalOf(ev *ValidatedEvent) Signal {
	return Signal{
		EventID:    ev.EventID,
		Timestamp:  ev.Timestamp,
		SignalType: ev.SignalType,
		Confidence: ClampConfidence(ev.Confidence),
	}
}
