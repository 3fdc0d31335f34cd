package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/opsdesk/reservations-backend/pkg/enums"
)

// AuditEntry is an append-only record of who changed what.
type AuditEntry struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	TenantID   uuid.UUID         `gorm:"column:tenant_id;type:uuid;not null;index"`
	Actor      string            `gorm:"column:actor;type:text;not null"`
	Action     enums.AuditAction `gorm:"column:action;type:text;not null"`
	EntityType string            `gorm:"column:entity_type;type:text;not null"`
	EntityID   uuid.UUID         `gorm:"column:entity_id;type:uuid;not null;index"`
	Metadata   json.RawMessage   `gorm:"column:metadata;type:jsonb"`
	CreatedAt  time.Time         `gorm:"column:created_at"`
}
