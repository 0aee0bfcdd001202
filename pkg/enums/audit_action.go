package enums

import "fmt"

// AuditAction maps to the audit_action_enum enum in Postgres.
type AuditAction string

const (
	AuditActionInitialize      AuditAction = "initialize"
	AuditActionStockAdjusted   AuditAction = "stock_adjusted"
	AuditActionThresholdChange AuditAction = "threshold_changed"
	AuditActionRetire          AuditAction = "retire"
)

var validAuditActions = []AuditAction{
	AuditActionInitialize,
	AuditActionStockAdjusted,
	AuditActionThresholdChange,
	AuditActionRetire,
}

// IsValid reports whether the value matches the canonical audit action enum.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}
