package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimarket/inventory-engine/pkg/enums"
)

// StockReservation is a hold against a product's available stock. Active
// reservations count into the ledger's reserved_stock column.
type StockReservation struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	ProductID      uuid.UUID               `gorm:"column:product_id;type:uuid;not null;index"`
	OrderID        uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	Quantity       int                     `gorm:"column:quantity;not null"`
	Status         enums.ReservationStatus `gorm:"column:status;type:reservation_status_enum;not null;default:active"`
	IdempotencyKey *string                 `gorm:"column:idempotency_key;type:text;uniqueIndex"`
	ExpiresAt      time.Time               `gorm:"column:expires_at;not null"`
	ReleasedAt     *time.Time              `gorm:"column:released_at"`
	CommittedAt    *time.Time              `gorm:"column:committed_at"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *StockReservation) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
