package enums

import "fmt"

// ReservationKind discriminates holds from bookings.
type ReservationKind string

const (
	ReservationKindHold    ReservationKind = "hold"
	ReservationKindBooking ReservationKind = "booking"
)

var validReservationKinds = []ReservationKind{
	ReservationKindHold,
	ReservationKindBooking,
}

// IsValid reports whether the value matches the reservation_kind enum.
func (k ReservationKind) IsValid() bool {
	for _, candidate := range validReservationKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseReservationKind converts raw input into ReservationKind.
func ParseReservationKind(value string) (ReservationKind, error) {
	for _, candidate := range validReservationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation kind %q", value)
}

// ReservationStatus is the persisted lifecycle state. Expired is never stored:
// an active hold whose expires_at has passed reads as ReservationStatusExpired.
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
)

var storedReservationStatuses = []ReservationStatus{
	ReservationStatusActive,
	ReservationStatusConfirmed,
	ReservationStatusCancelled,
}

// IsValid reports whether the status may be persisted.
func (s ReservationStatus) IsValid() bool {
	for _, candidate := range storedReservationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseReservationStatus accepts any readable status, including expired.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	if value == string(ReservationStatusExpired) {
		return ReservationStatusExpired, nil
	}
	for _, candidate := range storedReservationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation status %q", value)
}
