package types

import (
	"context"
	"time"
)

// Status is a type for the lifecycle status of a stored resource
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDeleted  Status = "deleted"
)

// BaseModel is a base model for all domain models that need to be persisted
type BaseModel struct {
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	UpdatedBy string    `db:"updated_by" json:"updated_by"`
}

func GetDefaultBaseModel(ctx context.Context) BaseModel {
	now := time.Now().UTC()
	return BaseModel{
		TenantID:  GetTenantID(ctx),
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: GetUserID(ctx),
		UpdatedBy: GetUserID(ctx),
	}
}

// Metadata represents a JSONB style field for storing key-value pairs
type Metadata map[string]string
