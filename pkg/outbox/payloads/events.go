package payloads

import (
	"time"

	"github.com/agrimarket/inventory-engine/pkg/enums"
	"github.com/google/uuid"
)

// AlertRaisedEvent is emitted when a product first crosses its threshold.
type AlertRaisedEvent struct {
	AlertID         uuid.UUID       `json:"alert_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	SellerID        uuid.UUID       `json:"seller_id"`
	AlertType       enums.AlertType `json:"alert_type"`
	CurrentStock    int             `json:"current_stock"`
	ReservedStock   int             `json:"reserved_stock"`
	AvailableStock  int             `json:"available_stock"`
	Threshold       int             `json:"threshold"`
	ReorderQuantity int             `json:"reorder_quantity"`
}

// AlertRefreshedEvent is emitted when an open alert escalates to a more
// severe type while still inside its cooldown window.
type AlertRefreshedEvent struct {
	AlertID        uuid.UUID       `json:"alert_id"`
	ProductID      uuid.UUID       `json:"product_id"`
	SellerID       uuid.UUID       `json:"seller_id"`
	AlertType      enums.AlertType `json:"alert_type"`
	PreviousType   enums.AlertType `json:"previous_type"`
	AvailableStock int             `json:"available_stock"`
	Threshold      int             `json:"threshold"`
}

// StockAdjustedEvent surfaces large stock movements to downstream systems.
type StockAdjustedEvent struct {
	ProductID     uuid.UUID             `json:"product_id"`
	SellerID      uuid.UUID             `json:"seller_id"`
	Type          enums.TransactionType `json:"type"`
	Quantity      int                   `json:"quantity"`
	PreviousStock int                   `json:"previous_stock"`
	NewStock      int                   `json:"new_stock"`
}

// ReservationExpiredEvent is emitted when the TTL sweep releases a stale hold.
type ReservationExpiredEvent struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	ProductID     uuid.UUID `json:"product_id"`
	SellerID      uuid.UUID `json:"seller_id"`
	OrderID       uuid.UUID `json:"order_id"`
	Quantity      int       `json:"quantity"`
	ExpiredAt     time.Time `json:"expired_at"`
}
