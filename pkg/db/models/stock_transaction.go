package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimarket/inventory-engine/pkg/enums"
)

// StockTransaction records an immutable stock movement tied to a product.
// Rows are append-only and fold back to the ledger's current stock.
type StockTransaction struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	ProductID     uuid.UUID             `gorm:"column:product_id;type:uuid;not null;index"`
	Type          enums.TransactionType `gorm:"column:type;type:transaction_type_enum;not null"`
	Quantity      int                   `gorm:"column:quantity;not null"`
	PreviousStock int                   `gorm:"column:previous_stock;not null"`
	NewStock      int                   `gorm:"column:new_stock;not null"`
	ReferenceID   *uuid.UUID            `gorm:"column:reference_id;type:uuid"`
	ActorID       *uuid.UUID            `gorm:"column:actor_id;type:uuid"`
	Note          *string               `gorm:"column:note;type:text"`
	Metadata      json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (t *StockTransaction) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
