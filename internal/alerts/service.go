package alerts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimarket/inventory-engine/pkg/db/models"
	"github.com/agrimarket/inventory-engine/pkg/enums"
	apperrors "github.com/agrimarket/inventory-engine/pkg/errors"
	"github.com/agrimarket/inventory-engine/pkg/logger"
	"github.com/agrimarket/inventory-engine/pkg/metrics"
	"github.com/agrimarket/inventory-engine/pkg/outbox"
	"github.com/agrimarket/inventory-engine/pkg/outbox/payloads"
	"github.com/agrimarket/inventory-engine/pkg/pagination"
)

// Service evaluates ledger state against thresholds and manages alert rows.
//
// Evaluation happens inside the same transaction as the triggering stock
// mutation so threshold crossings are never missed. Delivery is decoupled:
// raised and refreshed alerts emit outbox events that a publisher relays to
// the notification topic best-effort.
type Service interface {
	EvaluateTx(ctx context.Context, tx *gorm.DB, entry *models.StockLedgerEntry, now time.Time) error
	Acknowledge(ctx context.Context, alertID, byUserID uuid.UUID) (*models.LowStockAlert, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, onlyOpen bool, params pagination.Params) ([]models.LowStockAlert, error)
}

type service struct {
	repo    Repository
	outbox  *outbox.Service
	logg    *logger.Logger
	metrics *metrics.InventoryMetrics
}

// NewService wires the alert engine with its repository and outbox emitter.
func NewService(repo Repository, ob *outbox.Service, logg *logger.Logger, m *metrics.InventoryMetrics) (Service, error) {
	if repo == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "alert repository required")
	}
	return &service{repo: repo, outbox: ob, logg: logg, metrics: m}, nil
}

// Classify maps available stock to an alert type. Returns false when stock
// sits at or above the threshold and no alert applies.
func Classify(available, threshold int) (enums.AlertType, bool) {
	if threshold <= 0 {
		return "", false
	}
	switch {
	case available <= 0:
		return enums.AlertTypeOutOfStock, true
	case available*2 <= threshold:
		return enums.AlertTypeCritical, true
	case available < threshold:
		return enums.AlertTypeLowStock, true
	}
	return "", false
}

func (s *service) EvaluateTx(ctx context.Context, tx *gorm.DB, entry *models.StockLedgerEntry, now time.Time) error {
	if tx == nil {
		return apperrors.New(apperrors.CodeInternal, "transaction required")
	}
	if entry == nil {
		return apperrors.New(apperrors.CodeInternal, "ledger entry required")
	}

	alertType, triggered := Classify(entry.Available(), entry.MinimumThreshold)
	if !triggered {
		// Recovery above threshold is implicit: no record is written.
		return nil
	}

	repo := s.repo.WithTx(tx)
	latest, err := repo.LatestByProductID(ctx, entry.ProductID)
	if err != nil {
		return err
	}

	cooldown := time.Duration(entry.AlertFrequencyHours) * time.Hour
	inCooldown := latest != nil && now.Sub(latest.LastTriggeredAt) < cooldown

	switch {
	case latest == nil || !inCooldown:
		return s.raise(ctx, tx, repo, entry, alertType, now)

	case !latest.Acknowledged:
		return s.refresh(ctx, tx, repo, entry, latest, alertType, now)

	default:
		// Acknowledged and still cooling down: suppress.
		if s.metrics != nil {
			s.metrics.IncAlertSuppressed()
		}
		return nil
	}
}

func (s *service) raise(ctx context.Context, tx *gorm.DB, repo Repository, entry *models.StockLedgerEntry, alertType enums.AlertType, now time.Time) error {
	// The ID is assigned up front because the outbox row references the
	// alert within the same database transaction.
	alert := &models.LowStockAlert{
		ID:              uuid.New(),
		ProductID:       entry.ProductID,
		SellerID:        entry.SellerID,
		Type:            alertType,
		CurrentStock:    entry.CurrentStock,
		ReservedStock:   entry.ReservedStock,
		AvailableStock:  entry.Available(),
		Threshold:       entry.MinimumThreshold,
		ReorderQuantity: entry.ReorderQuantity,
		LastTriggeredAt: now,
	}
	if err := repo.Create(ctx, alert); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.IncAlert(string(alertType))
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"product_id": entry.ProductID.String(),
			"alert_type": alertType,
			"available":  entry.Available(),
			"threshold":  entry.MinimumThreshold,
		})
		s.logg.Warn(logCtx, "low stock alert raised")
	}
	if s.outbox == nil {
		return nil
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventAlertRaised,
		AggregateType: enums.AggregateStockAlert,
		AggregateID:   alert.ID,
		Version:       1,
		OccurredAt:    now,
		Data: payloads.AlertRaisedEvent{
			AlertID:         alert.ID,
			ProductID:       entry.ProductID,
			SellerID:        entry.SellerID,
			AlertType:       alertType,
			CurrentStock:    entry.CurrentStock,
			ReservedStock:   entry.ReservedStock,
			AvailableStock:  entry.Available(),
			Threshold:       entry.MinimumThreshold,
			ReorderQuantity: entry.ReorderQuantity,
		},
	})
}

func (s *service) refresh(ctx context.Context, tx *gorm.DB, repo Repository, entry *models.StockLedgerEntry, alert *models.LowStockAlert, alertType enums.AlertType, now time.Time) error {
	previousType := alert.Type
	escalated := alertType.Severity() > previousType.Severity()

	alert.Type = alertType
	alert.CurrentStock = entry.CurrentStock
	alert.ReservedStock = entry.ReservedStock
	alert.AvailableStock = entry.Available()
	alert.Threshold = entry.MinimumThreshold
	alert.ReorderQuantity = entry.ReorderQuantity
	alert.LastTriggeredAt = now
	if err := repo.Save(ctx, alert); err != nil {
		return err
	}

	if !escalated {
		if s.metrics != nil {
			s.metrics.IncAlertSuppressed()
		}
		return nil
	}
	if s.metrics != nil {
		s.metrics.IncAlert(string(alertType))
	}
	if s.outbox == nil {
		return nil
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventAlertRefreshed,
		AggregateType: enums.AggregateStockAlert,
		AggregateID:   alert.ID,
		Version:       1,
		OccurredAt:    now,
		Data: payloads.AlertRefreshedEvent{
			AlertID:        alert.ID,
			ProductID:      entry.ProductID,
			SellerID:       entry.SellerID,
			AlertType:      alertType,
			PreviousType:   previousType,
			AvailableStock: entry.Available(),
			Threshold:      entry.MinimumThreshold,
		},
	})
}

func (s *service) Acknowledge(ctx context.Context, alertID, byUserID uuid.UUID) (*models.LowStockAlert, error) {
	if alertID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "alert id is required")
	}
	if byUserID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}

	alert, err := s.repo.FindByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "alert not found")
	}
	if alert.Acknowledged {
		return nil, apperrors.New(apperrors.CodeStateConflict, "alert already acknowledged")
	}

	now := time.Now()
	alert.Acknowledged = true
	alert.AcknowledgedAt = &now
	alert.AcknowledgedBy = &byUserID
	if err := s.repo.Save(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID, onlyOpen bool, params pagination.Params) ([]models.LowStockAlert, error) {
	if sellerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "seller id is required")
	}
	return s.repo.ListBySeller(ctx, sellerID, onlyOpen, params)
}
