package models

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel holds the identity and audit columns every pricing table has
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AggregateModel adds the version column checked by optimistic locking
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

func newAggregateModel(id uuid.UUID, version int, createdAt, updatedAt time.Time) AggregateModel {
	return AggregateModel{
		BaseModel: BaseModel{ID: id, CreatedAt: createdAt, UpdatedAt: updatedAt},
		Version:   version,
	}
}

// TenantAggregateModel scopes a row to its tenant and records who created it
type TenantAggregateModel struct {
	AggregateModel
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid;index"`
}
