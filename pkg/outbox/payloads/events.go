package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/opsdesk/reservations-backend/pkg/enums"
)

// BookingEvent is the common payload of every booking.* event.
type BookingEvent struct {
	ReservationID uuid.UUID               `json:"reservation_id"`
	Kind          enums.ReservationKind   `json:"kind"`
	Status        enums.ReservationStatus `json:"status"`
	ResourceIDs   []uuid.UUID             `json:"resource_ids"`
	StartAt       time.Time               `json:"start_at"`
	EndAt         time.Time               `json:"end_at"`
	ExpiresAt     *time.Time              `json:"expires_at,omitempty"`
	Version       int                     `json:"version"`
}

// BookingRescheduledEvent carries the interval that was replaced.
type BookingRescheduledEvent struct {
	BookingEvent
	PreviousStartAt time.Time `json:"previous_start_at"`
	PreviousEndAt   time.Time `json:"previous_end_at"`
}

// BookingCancelledEvent carries the caller supplied reason.
type BookingCancelledEvent struct {
	BookingEvent
	Reason string `json:"reason,omitempty"`
}
