package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/agrimarket/inventory-engine/pkg/enums"
	"github.com/agrimarket/inventory-engine/pkg/pagination"
)

// InitializeInput creates a ledger entry for a product entering stock tracking.
type InitializeInput struct {
	ProductID           uuid.UUID
	SellerID            uuid.UUID
	SKU                 string
	InitialStock        int
	MinimumThreshold    int
	ReorderQuantity     int
	AlertFrequencyHours int
	ForecastMethod      enums.ForecastMethod
	ActorID             *uuid.UUID
}

// AdjustStockInput applies a direct on-hand change outside the reservation flow.
type AdjustStockInput struct {
	ProductID   uuid.UUID
	Delta       int
	Type        enums.TransactionType
	Reason      *string
	ReferenceID *uuid.UUID
	ActorID     *uuid.UUID
}

// UpdateThresholdsInput changes a product's alerting configuration.
type UpdateThresholdsInput struct {
	ProductID           uuid.UUID
	MinimumThreshold    *int
	ReorderQuantity     *int
	AlertFrequencyHours *int
	ForecastMethod      *enums.ForecastMethod
	Reason              *string
	ActorID             uuid.UUID
}

// ListTransactionsInput filters the transaction log for reporting reads.
type ListTransactionsInput struct {
	ProductID uuid.UUID
	From      *time.Time
	To        *time.Time
	Params    pagination.Params
}

// LedgerVerification reports whether the transaction fold matches the ledger.
type LedgerVerification struct {
	ProductID    uuid.UUID `json:"product_id"`
	CurrentStock int       `json:"current_stock"`
	FoldedStock  int       `json:"folded_stock"`
	Consistent   bool      `json:"consistent"`
}
