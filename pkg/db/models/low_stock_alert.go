package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimarket/inventory-engine/pkg/enums"
)

// LowStockAlert is raised when a product's available stock crosses its
// minimum threshold. One open alert per product at a time; the snapshot
// columns are refreshed while the alert stays inside its cooldown window.
type LowStockAlert struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	SellerID        uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index"`
	Type            enums.AlertType `gorm:"column:type;type:alert_type_enum;not null"`
	CurrentStock    int             `gorm:"column:current_stock;not null"`
	ReservedStock   int             `gorm:"column:reserved_stock;not null"`
	AvailableStock  int             `gorm:"column:available_stock;not null"`
	Threshold       int             `gorm:"column:threshold;not null"`
	ReorderQuantity int             `gorm:"column:reorder_quantity;not null"`
	Acknowledged    bool            `gorm:"column:acknowledged;not null;default:false"`
	AcknowledgedAt  *time.Time      `gorm:"column:acknowledged_at"`
	AcknowledgedBy  *uuid.UUID      `gorm:"column:acknowledged_by;type:uuid"`
	LastTriggeredAt time.Time       `gorm:"column:last_triggered_at;not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *LowStockAlert) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
