package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agrimarket/inventory-engine/pkg/enums"
)

// InventoryForecast projects stock and sales for a product on a future date.
// Each estimator run replaces the product's rows for the horizon it covers.
type InventoryForecast struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ProductID      uuid.UUID            `gorm:"column:product_id;type:uuid;not null;index"`
	ForecastDate   time.Time            `gorm:"column:forecast_date;not null"`
	ProjectedStock decimal.Decimal      `gorm:"column:projected_stock;type:numeric(12,4);not null"`
	ProjectedSales decimal.Decimal      `gorm:"column:projected_sales;type:numeric(12,4);not null"`
	Method         enums.ForecastMethod `gorm:"column:method;type:forecast_method_enum;not null"`
	Confidence     decimal.Decimal      `gorm:"column:confidence;type:numeric(5,2);not null"`
	WindowDays     int                  `gorm:"column:window_days;not null"`
	GeneratedAt    time.Time            `gorm:"column:generated_at;not null"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
}

func (f *InventoryForecast) BeforeCreate(_ *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
