package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agrimarket/inventory-engine/pkg/enums"
)

// StockLedgerEntry tracks on-hand and reserved counts per product along with
// the alerting and forecasting knobs for that product.
type StockLedgerEntry struct {
	ProductID           uuid.UUID            `gorm:"column:product_id;type:uuid;primaryKey"`
	SellerID            uuid.UUID            `gorm:"column:seller_id;type:uuid;not null;index"`
	SKU                 string               `gorm:"column:sku;type:text;not null"`
	CurrentStock        int                  `gorm:"column:current_stock;not null;default:0"`
	ReservedStock       int                  `gorm:"column:reserved_stock;not null;default:0"`
	MinimumThreshold    int                  `gorm:"column:minimum_threshold;not null;default:0"`
	ReorderQuantity     int                  `gorm:"column:reorder_quantity;not null;default:0"`
	AlertFrequencyHours int                  `gorm:"column:alert_frequency_hours;not null;default:24"`
	ForecastMethod      enums.ForecastMethod `gorm:"column:forecast_method;type:forecast_method_enum;not null;default:moving_average"`
	LastRestockedAt     *time.Time           `gorm:"column:last_restocked_at"`
	CreatedAt           time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// Available returns sellable stock. Never negative as long as the reserved
// invariant holds.
func (e StockLedgerEntry) Available() int {
	return e.CurrentStock - e.ReservedStock
}
