package event

import (
	"context"
	"time"
)

// DomainEvent is a fact recorded by an aggregate.
type DomainEvent interface {
	// EventType returns the dotted event name, e.g. "user.banned"
	EventType() string

	// AggregateID returns the ID of the aggregate that emitted the event
	AggregateID() string

	// AggregateType returns the aggregate kind, e.g. "User"
	AggregateType() string

	// OccurredAt returns when the event happened
	OccurredAt() time.Time

	// Version returns the aggregate version after the event
	Version() int

	// Metadata returns the event metadata
	Metadata() Metadata
}

// Bus publishes domain events.
type Bus interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// Handler consumes a published event.
type Handler func(ctx context.Context, event DomainEvent) error
