package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/opsdesk/reservations-backend/pkg/enums"
)

// Notification is the read model written by the booking events consumer.
// EventID is unique so a redelivered event cannot produce a second row.
type Notification struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	TenantID      uuid.UUID              `gorm:"column:tenant_id;type:uuid;not null;index"`
	EventID       uuid.UUID              `gorm:"column:event_id;type:uuid;not null;uniqueIndex"`
	ReservationID uuid.UUID              `gorm:"column:reservation_id;type:uuid;not null"`
	Type          enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title         string                 `gorm:"column:title;type:text;not null"`
	Message       string                 `gorm:"column:message;type:text;not null"`
	ReadAt        *time.Time             `gorm:"column:read_at"`
	CreatedAt     time.Time              `gorm:"column:created_at"`
}
