package models

import (
	"time"

	"github.com/google/uuid"
)

// Resource is a bookable unit (room, staff member, asset). Owned by resource
// management; the reservation engine only reads it.
type Resource struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TenantID  uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index"`
	Type      string    `gorm:"column:type;type:text;not null"`
	Name      string    `gorm:"column:name;type:text;not null"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
