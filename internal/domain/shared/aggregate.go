package shared

import (
	"slices"

	"github.com/google/uuid"
)

// BaseAggregateRoot tracks the optimistic-lock version of an aggregate and
// the events it has recorded since it was created or loaded.
// Events are published by the application layer after a successful save.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
	pending []DomainEvent
}

// NewBaseAggregateRoot starts a new aggregate at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

// IncrementVersion is called by repositories once a save has been committed
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent records an event for later publication
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// GetDomainEvents returns a copy of the recorded events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return slices.Clone(a.pending)
}

// ClearDomainEvents drops the recorded events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.pending = nil
}

// PullDomainEvents returns the recorded events and clears them
func (a *BaseAggregateRoot) PullDomainEvents() []DomainEvent {
	events := a.pending
	a.pending = nil
	return events
}

// TenantAggregateRoot is an aggregate owned by a tenant. The creating user
// is kept for audit when the request was authenticated.
type TenantAggregateRoot struct {
	BaseAggregateRoot
	TenantID  uuid.UUID
	createdBy *uuid.UUID
}

// NewTenantAggregateRoot starts a new aggregate owned by tenantID
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		TenantID:          tenantID,
	}
}

// SetCreatedBy records the creating user. uuid.Nil clears it.
func (t *TenantAggregateRoot) SetCreatedBy(userID uuid.UUID) {
	if userID == uuid.Nil {
		t.createdBy = nil
		return
	}
	t.createdBy = &userID
}

// CreatedBy returns the creating user, or nil when unknown
func (t *TenantAggregateRoot) CreatedBy() *uuid.UUID {
	if t.createdBy == nil {
		return nil
	}
	id := *t.createdBy
	return &id
}
