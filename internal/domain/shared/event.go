package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact recorded by a pricing aggregate or domain service
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// AggregateRef identifies the aggregate an event was raised for.
// Calculation events use the calculation ID and a nil tenant.
type AggregateRef struct {
	ID       uuid.UUID `json:"id"`
	Type     string    `json:"type"`
	TenantID uuid.UUID `json:"tenant_id"`
}

// BaseDomainEvent is the envelope embedded by every pricing event
type BaseDomainEvent struct {
	ID        uuid.UUID    `json:"event_id"`
	Type      string       `json:"event_type"`
	At        time.Time    `json:"occurred_at"`
	Aggregate AggregateRef `json:"aggregate"`
}

// NewBaseDomainEvent builds an envelope stamped with the current time
func NewBaseDomainEvent(eventType, aggType string, aggID, tenantID uuid.UUID) BaseDomainEvent {
	return NewBaseDomainEventAt(eventType, AggregateRef{ID: aggID, Type: aggType, TenantID: tenantID}, time.Now())
}

// NewBaseDomainEventAt builds an envelope for an event that occurred at a known instant
func NewBaseDomainEventAt(eventType string, ref AggregateRef, at time.Time) BaseDomainEvent {
	return BaseDomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		At:        at,
		Aggregate: ref,
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.At }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.Aggregate.ID }
func (e *BaseDomainEvent) AggregateType() string  { return e.Aggregate.Type }
func (e *BaseDomainEvent) TenantID() uuid.UUID    { return e.Aggregate.TenantID }
