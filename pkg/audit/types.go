package audit

import (
	"context"
	"time"
)

// EventType classifies audit events emitted by the engine.
type EventType string

const (
	EventMembershipCreate EventType = "membership.create"
	EventMembershipUpdate EventType = "membership.update"
	EventRoleCreate       EventType = "role.create"
	EventRoleUpdate       EventType = "role.update"
)

// Event is a single audit record. Metadata carries event-specific
// details (assigned role, previous role, drift outcome).
type Event struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Type          EventType         `json:"type"`
	UserID        string            `json:"user_id,omitempty"`
	ReferenceType string            `json:"reference_type,omitempty"`
	ReferenceID   string            `json:"reference_id,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Logger records audit events. Implementations own durability and
// retention; recording failures are surfaced to the caller, which
// decides whether they are fatal.
type Logger interface {
	Record(ctx context.Context, e Event) error
}

// NopLogger discards all events.
type NopLogger struct{}

// Record implements Logger.
func (NopLogger) Record(context.Context, Event) error { return nil }
