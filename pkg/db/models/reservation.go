package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/opsdesk/reservations-backend/pkg/enums"
)

// Reservation is either a hold or a booking over a half-open interval
// [StartAt, EndAt) across one or more resources.
type Reservation struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	TenantID       uuid.UUID               `gorm:"column:tenant_id;type:uuid;not null;index"`
	Kind           enums.ReservationKind   `gorm:"column:kind;type:text;not null"`
	Status         enums.ReservationStatus `gorm:"column:status;type:text;not null"`
	StartAt        time.Time               `gorm:"column:start_at;not null"`
	EndAt          time.Time               `gorm:"column:end_at;not null"`
	ExpiresAt      *time.Time              `gorm:"column:expires_at"`
	IdempotencyKey string                  `gorm:"column:idempotency_key;type:text;not null"`
	Actor          string                  `gorm:"column:actor;type:text;not null"`
	CancelReason   *string                 `gorm:"column:cancel_reason;type:text"`
	Version        int                     `gorm:"column:version;not null;default:1"`
	ConfirmedAt    *time.Time              `gorm:"column:confirmed_at"`
	CancelledAt    *time.Time              `gorm:"column:cancelled_at"`
	CreatedAt      time.Time               `gorm:"column:created_at"`
	UpdatedAt      time.Time               `gorm:"column:updated_at"`

	Resources []ReservationResource `gorm:"foreignKey:ReservationID;references:ID"`
}

// ReservationResource links a reservation to each resource it occupies.
type ReservationResource struct {
	ReservationID uuid.UUID `gorm:"column:reservation_id;type:uuid;primaryKey"`
	ResourceID    uuid.UUID `gorm:"column:resource_id;type:uuid;primaryKey;index"`
	TenantID      uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index"`
}

// ResourceIDs returns the linked resource ids in stored order.
func (r Reservation) ResourceIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Resources))
	for _, link := range r.Resources {
		ids = append(ids, link.ResourceID)
	}
	return ids
}
