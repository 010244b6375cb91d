// Package eventstore persists an operational journal of the server:
// configuration reloads, fired triggers, and build outcomes.
package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving journal events.
type Store interface {
	// Append adds a new event to the journal.
	Append(ctx context.Context, project, eventType string, payload []byte, metadata map[string]string) error

	// GetByProject retrieves all events for a specific project.
	GetByProject(ctx context.Context, project string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}

// NopStore discards events; used when no journal path is configured.
type NopStore struct{}

func (NopStore) Append(context.Context, string, string, []byte, map[string]string) error {
	return nil
}
func (NopStore) GetByProject(context.Context, string) ([]Event, error)     { return nil, nil }
func (NopStore) GetRange(context.Context, time.Time, time.Time) ([]Event, error) { return nil, nil }
func (NopStore) Close() error                                              { return nil }
