package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimarket/inventory-engine/pkg/enums"
)

// InventoryAuditLog captures who changed a product's ledger and what the
// value looked like before and after. Append-only.
type InventoryAuditLog struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index"`
	UserID    uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	Action    enums.AuditAction `gorm:"column:action;type:audit_action_enum;not null"`
	OldValue  string            `gorm:"column:old_value;type:text;not null"`
	NewValue  string            `gorm:"column:new_value;type:text;not null"`
	Reason    *string           `gorm:"column:reason;type:text"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (l *InventoryAuditLog) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
