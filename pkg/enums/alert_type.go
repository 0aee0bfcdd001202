package enums

import "fmt"

// AlertType maps to the alert_type_enum enum in Postgres.
type AlertType string

const (
	AlertTypeLowStock   AlertType = "low_stock"
	AlertTypeCritical   AlertType = "critical"
	AlertTypeOutOfStock AlertType = "out_of_stock"
)

var validAlertTypes = []AlertType{
	AlertTypeLowStock,
	AlertTypeCritical,
	AlertTypeOutOfStock,
}

// IsValid reports whether the value matches the canonical alert type enum.
func (a AlertType) IsValid() bool {
	for _, candidate := range validAlertTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// Severity orders alert types from least to most urgent.
func (a AlertType) Severity() int {
	switch a {
	case AlertTypeLowStock:
		return 1
	case AlertTypeCritical:
		return 2
	case AlertTypeOutOfStock:
		return 3
	}
	return 0
}

// ParseAlertType converts raw input into AlertType.
func ParseAlertType(value string) (AlertType, error) {
	for _, candidate := range validAlertTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid alert type %q", value)
}
