package eventstore

import "time"

// Well-known event types recorded in the journal.
const (
	TypeConfigReloaded  = "config.reloaded"
	TypeConfigRejected  = "config.rejected"
	TypeTriggerFired    = "trigger.fired"
	TypeBuildCompleted  = "build.completed"
	TypeBuildFailed     = "build.failed"
	TypeForcedBuild     = "build.forced"
)

// Event represents an operational event in the server's journal.
type Event interface {
	// ID returns the unique identifier for this event.
	ID() int64
	// Project returns the project this event belongs to; empty for
	// server-wide events such as configuration reloads.
	Project() string
	// Type returns the event type name.
	Type() string
	// Timestamp returns when the event occurred.
	Timestamp() time.Time
	// Payload returns the event data as bytes.
	Payload() []byte
	// Metadata returns optional event metadata.
	Metadata() map[string]string
}

// BaseEvent provides a default implementation of Event.
type BaseEvent struct {
	EventID        int64
	EventProject   string
	EventType      string
	EventTimestamp time.Time
	EventPayload   []byte
	EventMetadata  map[string]string
}

func (e *BaseEvent) ID() int64                   { return e.EventID }
func (e *BaseEvent) Project() string             { return e.EventProject }
func (e *BaseEvent) Type() string                { return e.EventType }
func (e *BaseEvent) Timestamp() time.Time        { return e.EventTimestamp }
func (e *BaseEvent) Payload() []byte             { return e.EventPayload }
func (e *BaseEvent) Metadata() map[string]string { return e.EventMetadata }
