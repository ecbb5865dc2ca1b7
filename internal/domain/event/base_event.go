package event

import "time"

// BaseEvent carries the fields every DomainEvent shares. Concrete events embed it.
type BaseEvent struct {
	eventType     string
	aggregateID   string
	aggregateType string
	occurredAt    time.Time
	version       int
	metadata      Metadata
}

// NewBaseEvent creates a BaseEvent that occurred at occurredAt.
func NewBaseEvent(
	eventType, aggregateID, aggregateType string,
	version int,
	occurredAt time.Time,
	metadata Metadata,
) BaseEvent {
	return BaseEvent{
		eventType:     eventType,
		aggregateID:   aggregateID,
		aggregateType: aggregateType,
		occurredAt:    occurredAt,
		version:       version,
		metadata:      metadata,
	}
}

func (e BaseEvent) EventType() string     { return e.eventType }
func (e BaseEvent) AggregateID() string   { return e.aggregateID }
func (e BaseEvent) AggregateType() string { return e.aggregateType }
func (e BaseEvent) OccurredAt() time.Time { return e.occurredAt }
func (e BaseEvent) Version() int          { return e.version }
func (e BaseEvent) Metadata() Metadata    { return e.metadata }
