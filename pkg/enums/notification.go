package enums

import "fmt"

// NotificationType classifies tenant notifications derived from booking events.
type NotificationType string

const (
	NotificationTypeBookingUpdate NotificationType = "booking_update"
	NotificationTypeHoldUpdate    NotificationType = "hold_update"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeBookingUpdate,
	NotificationTypeHoldUpdate,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
