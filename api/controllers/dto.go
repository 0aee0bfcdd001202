package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agrimarket/inventory-engine/pkg/db/models"
	"github.com/agrimarket/inventory-engine/pkg/enums"
)

type ledgerEntryResponse struct {
	ProductID           uuid.UUID            `json:"product_id"`
	SellerID            uuid.UUID            `json:"seller_id"`
	SKU                 string               `json:"sku"`
	CurrentStock        int                  `json:"current_stock"`
	ReservedStock       int                  `json:"reserved_stock"`
	AvailableStock      int                  `json:"available_stock"`
	MinimumThreshold    int                  `json:"minimum_threshold"`
	ReorderQuantity     int                  `json:"reorder_quantity"`
	AlertFrequencyHours int                  `json:"alert_frequency_hours"`
	ForecastMethod      enums.ForecastMethod `json:"forecast_method"`
	LastRestockedAt     *time.Time           `json:"last_restocked_at,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

func toLedgerEntryResponse(m models.StockLedgerEntry) ledgerEntryResponse {
	return ledgerEntryResponse{
		ProductID:           m.ProductID,
		SellerID:            m.SellerID,
		SKU:                 m.SKU,
		CurrentStock:        m.CurrentStock,
		ReservedStock:       m.ReservedStock,
		AvailableStock:      m.Available(),
		MinimumThreshold:    m.MinimumThreshold,
		ReorderQuantity:     m.ReorderQuantity,
		AlertFrequencyHours: m.AlertFrequencyHours,
		ForecastMethod:      m.ForecastMethod,
		LastRestockedAt:     m.LastRestockedAt,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

type transactionResponse struct {
	ID            uuid.UUID             `json:"id"`
	ProductID     uuid.UUID             `json:"product_id"`
	Type          enums.TransactionType `json:"type"`
	Quantity      int                   `json:"quantity"`
	PreviousStock int                   `json:"previous_stock"`
	NewStock      int                   `json:"new_stock"`
	ReferenceID   *uuid.UUID            `json:"reference_id,omitempty"`
	ActorID       *uuid.UUID            `json:"actor_id,omitempty"`
	Note          *string               `json:"note,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

func toTransactionResponse(m models.StockTransaction) transactionResponse {
	return transactionResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		Type:          m.Type,
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		ReferenceID:   m.ReferenceID,
		ActorID:       m.ActorID,
		Note:          m.Note,
		CreatedAt:     m.CreatedAt,
	}
}

type reservationResponse struct {
	ID          uuid.UUID               `json:"id"`
	ProductID   uuid.UUID               `json:"product_id"`
	OrderID     uuid.UUID               `json:"order_id"`
	Quantity    int                     `json:"quantity"`
	Status      enums.ReservationStatus `json:"status"`
	ExpiresAt   time.Time               `json:"expires_at"`
	ReleasedAt  *time.Time              `json:"released_at,omitempty"`
	CommittedAt *time.Time              `json:"committed_at,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

func toReservationResponse(m models.StockReservation) reservationResponse {
	return reservationResponse{
		ID:          m.ID,
		ProductID:   m.ProductID,
		OrderID:     m.OrderID,
		Quantity:    m.Quantity,
		Status:      m.Status,
		ExpiresAt:   m.ExpiresAt,
		ReleasedAt:  m.ReleasedAt,
		CommittedAt: m.CommittedAt,
		CreatedAt:   m.CreatedAt,
	}
}

type alertResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	SellerID        uuid.UUID       `json:"seller_id"`
	Type            enums.AlertType `json:"type"`
	CurrentStock    int             `json:"current_stock"`
	ReservedStock   int             `json:"reserved_stock"`
	AvailableStock  int             `json:"available_stock"`
	Threshold       int             `json:"threshold"`
	ReorderQuantity int             `json:"reorder_quantity"`
	Acknowledged    bool            `json:"acknowledged"`
	AcknowledgedAt  *time.Time      `json:"acknowledged_at,omitempty"`
	AcknowledgedBy  *uuid.UUID      `json:"acknowledged_by,omitempty"`
	LastTriggeredAt time.Time       `json:"last_triggered_at"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toAlertResponse(m models.LowStockAlert) alertResponse {
	return alertResponse{
		ID:              m.ID,
		ProductID:       m.ProductID,
		SellerID:        m.SellerID,
		Type:            m.Type,
		CurrentStock:    m.CurrentStock,
		ReservedStock:   m.ReservedStock,
		AvailableStock:  m.AvailableStock,
		Threshold:       m.Threshold,
		ReorderQuantity: m.ReorderQuantity,
		Acknowledged:    m.Acknowledged,
		AcknowledgedAt:  m.AcknowledgedAt,
		AcknowledgedBy:  m.AcknowledgedBy,
		LastTriggeredAt: m.LastTriggeredAt,
		CreatedAt:       m.CreatedAt,
	}
}

type forecastResponse struct {
	ID             uuid.UUID            `json:"id"`
	ProductID      uuid.UUID            `json:"product_id"`
	ForecastDate   time.Time            `json:"forecast_date"`
	ProjectedStock decimal.Decimal      `json:"projected_stock"`
	ProjectedSales decimal.Decimal      `json:"projected_sales"`
	Method         enums.ForecastMethod `json:"method"`
	Confidence     decimal.Decimal      `json:"confidence"`
	WindowDays     int                  `json:"window_days"`
	GeneratedAt    time.Time            `json:"generated_at"`
}

func toForecastResponse(m models.InventoryForecast) forecastResponse {
	return forecastResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		ForecastDate:   m.ForecastDate,
		ProjectedStock: m.ProjectedStock,
		ProjectedSales: m.ProjectedSales,
		Method:         m.Method,
		Confidence:     m.Confidence,
		WindowDays:     m.WindowDays,
		GeneratedAt:    m.GeneratedAt,
	}
}

type auditEntryResponse struct {
	ID        uuid.UUID         `json:"id"`
	ProductID uuid.UUID         `json:"product_id"`
	UserID    uuid.UUID         `json:"user_id"`
	Action    enums.AuditAction `json:"action"`
	OldValue  string            `json:"old_value"`
	NewValue  string            `json:"new_value"`
	Reason    *string           `json:"reason,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func toAuditEntryResponse(m models.InventoryAuditLog) auditEntryResponse {
	return auditEntryResponse{
		ID:        m.ID,
		ProductID: m.ProductID,
		UserID:    m.UserID,
		Action:    m.Action,
		OldValue:  m.OldValue,
		NewValue:  m.NewValue,
		Reason:    m.Reason,
		CreatedAt: m.CreatedAt,
	}
}
