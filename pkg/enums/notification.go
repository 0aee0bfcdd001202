package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationLowStock           NotificationType = "low_stock"
	NotificationOutOfStock         NotificationType = "out_of_stock"
	NotificationCriticalStock      NotificationType = "critical_stock"
	NotificationReservationExpired NotificationType = "reservation_expired"
)

var validNotificationTypes = []NotificationType{
	NotificationLowStock,
	NotificationOutOfStock,
	NotificationCriticalStock,
	NotificationReservationExpired,
}

// IsValid reports whether the value matches the canonical notification type enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
