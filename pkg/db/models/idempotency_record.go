package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord caches the outcome of one (tenant, operation, key)
// command. A row with CompletedAt nil is an in-flight claim.
type IdempotencyRecord struct {
	TenantID       uuid.UUID       `gorm:"column:tenant_id;type:uuid;primaryKey"`
	Operation      string          `gorm:"column:operation;type:text;primaryKey"`
	IdempotencyKey string          `gorm:"column:idempotency_key;type:text;primaryKey"`
	RequestHash    string          `gorm:"column:request_hash;type:text;not null"`
	EntityID       *uuid.UUID      `gorm:"column:entity_id;type:uuid"`
	StatusCode     int             `gorm:"column:status_code;not null;default:0"`
	Response       json.RawMessage `gorm:"column:response;type:jsonb"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	CompletedAt    *time.Time      `gorm:"column:completed_at"`
}
