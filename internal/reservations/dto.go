package reservations

import (
	"time"

	"github.com/google/uuid"

	"github.com/opsdesk/reservations-backend/pkg/db/models"
	"github.com/opsdesk/reservations-backend/pkg/enums"
)

// Operation names namespace idempotency keys.
const (
	OpCreateBooking     = "create_booking"
	OpCreateHold        = "create_hold"
	OpConfirmHold       = "confirm_hold"
	OpExtendHold        = "extend_hold"
	OpReleaseHold       = "release_hold"
	OpRescheduleBooking = "reschedule_booking"
	OpCancelBooking     = "cancel_booking"
)

// CommandMeta is resolved by the transport layer, never from the request body.
type CommandMeta struct {
	TenantID       uuid.UUID `json:"-"`
	Actor          string    `json:"-"`
	IdempotencyKey string    `json:"-"`
}

type CreateBooking struct {
	CommandMeta
	ResourceIDs []uuid.UUID `json:"resource_ids"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
}

type CreateHold struct {
	CommandMeta
	ResourceIDs []uuid.UUID `json:"resource_ids"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	TTLSeconds  int         `json:"ttl_seconds"`
}

type ConfirmHold struct {
	CommandMeta
	HoldID uuid.UUID `json:"hold_id"`
}

type ExtendHold struct {
	CommandMeta
	HoldID     uuid.UUID `json:"hold_id"`
	TTLSeconds int       `json:"ttl_seconds"`
}

type ReleaseHold struct {
	CommandMeta
	HoldID uuid.UUID `json:"hold_id"`
}

type RescheduleBooking struct {
	CommandMeta
	BookingID uuid.UUID `json:"booking_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

type CancelBooking struct {
	CommandMeta
	BookingID uuid.UUID `json:"booking_id"`
	Reason    string    `json:"reason"`
}

// Result is what a command returns and what its idempotency record caches.
type Result struct {
	StatusCode  int  `json:"status_code"`
	Reservation View `json:"reservation"`
	// Replayed is set when the result came from the idempotency store.
	Replayed bool `json:"-"`
}

// View is the external representation of a reservation.
type View struct {
	ID           uuid.UUID               `json:"id"`
	TenantID     uuid.UUID               `json:"tenant_id"`
	Kind         enums.ReservationKind   `json:"kind"`
	Status       enums.ReservationStatus `json:"status"`
	ResourceIDs  []uuid.UUID             `json:"resource_ids"`
	Start        time.Time               `json:"start"`
	End          time.Time               `json:"end"`
	ExpiresAt    *time.Time              `json:"expires_at,omitempty"`
	Version      int                     `json:"version"`
	CancelReason *string                 `json:"cancel_reason,omitempty"`
	ConfirmedAt  *time.Time              `json:"confirmed_at,omitempty"`
	CancelledAt  *time.Time              `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// Availability answers whether an interval is free on every resource.
type Availability struct {
	Available      bool        `json:"available"`
	ConflictingIDs []uuid.UUID `json:"conflicting_ids"`
}

// EffectiveStatus derives the readable status. An active hold whose TTL has
// passed reads as expired; nothing ever stores that state.
func EffectiveStatus(res *models.Reservation, now time.Time) enums.ReservationStatus {
	if res.Kind == enums.ReservationKindHold &&
		res.Status == enums.ReservationStatusActive &&
		res.ExpiresAt != nil &&
		!res.ExpiresAt.After(now) {
		return enums.ReservationStatusExpired
	}
	return res.Status
}

func toView(res *models.Reservation, now time.Time) View {
	ids := res.ResourceIDs()
	sortIDs(ids)
	return View{
		ID:           res.ID,
		TenantID:     res.TenantID,
		Kind:         res.Kind,
		Status:       EffectiveStatus(res, now),
		ResourceIDs:  ids,
		Start:        res.StartAt.UTC(),
		End:          res.EndAt.UTC(),
		ExpiresAt:    utcPtr(res.ExpiresAt),
		Version:      res.Version,
		CancelReason: res.CancelReason,
		ConfirmedAt:  utcPtr(res.ConfirmedAt),
		CancelledAt:  utcPtr(res.CancelledAt),
		CreatedAt:    res.CreatedAt.UTC(),
		UpdatedAt:    res.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
