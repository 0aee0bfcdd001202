package inventory

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimarket/inventory-engine/internal/alerts"
	"github.com/agrimarket/inventory-engine/internal/audit"
	"github.com/agrimarket/inventory-engine/pkg/config"
	dbpkg "github.com/agrimarket/inventory-engine/pkg/db"
	"github.com/agrimarket/inventory-engine/pkg/db/models"
	"github.com/agrimarket/inventory-engine/pkg/enums"
	apperrors "github.com/agrimarket/inventory-engine/pkg/errors"
	"github.com/agrimarket/inventory-engine/pkg/logger"
	"github.com/agrimarket/inventory-engine/pkg/metrics"
	"github.com/agrimarket/inventory-engine/pkg/outbox"
	"github.com/agrimarket/inventory-engine/pkg/outbox/payloads"
	"github.com/agrimarket/inventory-engine/pkg/pagination"
)

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the stock ledger. All on-hand mutation flows through
// AdjustStock or the reservation engine; there is no public setter.
type Service interface {
	Initialize(ctx context.Context, input InitializeInput) (*models.StockLedgerEntry, error)
	GetStock(ctx context.Context, productID uuid.UUID) (*models.StockLedgerEntry, error)
	AdjustStock(ctx context.Context, input AdjustStockInput) (*models.StockLedgerEntry, error)
	UpdateThresholds(ctx context.Context, input UpdateThresholdsInput) (*models.StockLedgerEntry, error)
	Retire(ctx context.Context, productID uuid.UUID, actorID *uuid.UUID, reason *string) error
	ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.StockLedgerEntry, error)
	ListTransactions(ctx context.Context, input ListTransactionsInput) ([]models.StockTransaction, error)
	VerifyLedger(ctx context.Context, productID uuid.UUID) (*LedgerVerification, error)
}

// Deps collects the service's collaborators.
type Deps struct {
	Tx      TxRunner
	Repo    Repository
	Alerts  alerts.Service
	Audit   audit.Service
	Outbox  *outbox.Service
	Logger  *logger.Logger
	Metrics *metrics.InventoryMetrics
	Config  config.InventoryConfig
}

type service struct {
	tx      TxRunner
	repo    Repository
	alerts  alerts.Service
	audit   audit.Service
	outbox  *outbox.Service
	logg    *logger.Logger
	metrics *metrics.InventoryMetrics
	cfg     config.InventoryConfig
}

// NewService wires the ledger service.
func NewService(deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "tx runner required")
	}
	if deps.Repo == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "inventory repository required")
	}
	if deps.Alerts == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "alert service required")
	}
	if deps.Audit == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "audit service required")
	}
	if deps.Config.ConflictRetries <= 0 {
		deps.Config.ConflictRetries = 3
	}
	return &service{
		tx:      deps.Tx,
		repo:    deps.Repo,
		alerts:  deps.Alerts,
		audit:   deps.Audit,
		outbox:  deps.Outbox,
		logg:    deps.Logger,
		metrics: deps.Metrics,
		cfg:     deps.Config,
	}, nil
}

// runSerialized retries fn on serialization/deadlock failures up to the
// configured retry count, then surfaces TransientConflict.
func (s *service) runSerialized(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var lastErr error
	for attempt := 0; attempt < s.cfg.ConflictRetries; attempt++ {
		lastErr = s.tx.WithTx(ctx, fn)
		if lastErr == nil || !dbpkg.IsSerializationFailure(lastErr) {
			return lastErr
		}
		if s.metrics != nil {
			s.metrics.IncConflictRetry()
		}
	}
	return apperrors.Wrap(apperrors.CodeTransientConflict, lastErr, "row contention persisted, retry the operation")
}

func (s *service) Initialize(ctx context.Context, input InitializeInput) (*models.StockLedgerEntry, error) {
	if input.ProductID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	if input.SellerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "seller id is required")
	}
	if input.InitialStock < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "initial stock must not be negative")
	}
	if input.MinimumThreshold < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "minimum threshold must not be negative")
	}
	if input.AlertFrequencyHours <= 0 {
		input.AlertFrequencyHours = 24
	}
	if input.ForecastMethod == "" {
		input.ForecastMethod = enums.ForecastMethodMovingAverage
	}
	if !input.ForecastMethod.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid forecast method")
	}

	entry := &models.StockLedgerEntry{
		ProductID:           input.ProductID,
		SellerID:            input.SellerID,
		SKU:                 input.SKU,
		CurrentStock:        input.InitialStock,
		MinimumThreshold:    input.MinimumThreshold,
		ReorderQuantity:     input.ReorderQuantity,
		AlertFrequencyHours: input.AlertFrequencyHours,
		ForecastMethod:      input.ForecastMethod,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByID(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperrors.New(apperrors.CodeConflict, "ledger entry already exists for product")
		}
		if err := repo.Create(ctx, entry); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return apperrors.Wrap(apperrors.CodeConflict, err, "ledger entry already exists for product")
			}
			return err
		}
		if input.InitialStock > 0 {
			note := "initial stock"
			if err := repo.InsertTransaction(ctx, &models.StockTransaction{
				ProductID:     input.ProductID,
				Type:          enums.TransactionTypePurchase,
				Quantity:      input.InitialStock,
				PreviousStock: 0,
				NewStock:      input.InitialStock,
				ActorID:       input.ActorID,
				Note:          &note,
			}); err != nil {
				return err
			}
		}
		if input.ActorID != nil {
			if _, err := s.audit.RecordTx(ctx, tx, audit.RecordEntryInput{
				ProductID: input.ProductID,
				UserID:    *input.ActorID,
				Action:    enums.AuditActionInitialize,
				OldValue:  "0",
				NewValue:  strconv.Itoa(input.InitialStock),
			}); err != nil {
				return err
			}
		}
		return s.alerts.EvaluateTx(ctx, tx, entry, time.Now())
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithProductID(ctx, input.ProductID.String()), "ledger entry initialized")
	}
	return entry, nil
}

func (s *service) GetStock(ctx context.Context, productID uuid.UUID) (*models.StockLedgerEntry, error) {
	if productID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	entry, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "ledger entry not found")
	}
	return entry, nil
}

var adjustableTypes = map[enums.TransactionType]bool{
	enums.TransactionTypePurchase:   true,
	enums.TransactionTypeAdjustment: true,
	enums.TransactionTypeRestock:    true,
	enums.TransactionTypeDamage:     true,
	enums.TransactionTypeReturn:     true,
}

func (s *service) AdjustStock(ctx context.Context, input AdjustStockInput) (*models.StockLedgerEntry, error) {
	if input.ProductID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	if input.Delta == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "delta must not be zero")
	}
	if !adjustableTypes[input.Type] {
		return nil, apperrors.New(apperrors.CodeValidation, "transaction type not allowed for direct adjustment")
	}

	var result *models.StockLedgerEntry
	err := s.runSerialized(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entry, err := repo.FindByIDForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if entry == nil {
			return apperrors.New(apperrors.CodeNotFound, "ledger entry not found")
		}

		previous := entry.CurrentStock
		next := previous + input.Delta
		if next < 0 || next < entry.ReservedStock {
			return apperrors.New(apperrors.CodeWouldUnderflow, "adjustment would breach stock invariant").
				WithDetails(map[string]any{
					"current_stock":  previous,
					"reserved_stock": entry.ReservedStock,
					"delta":          input.Delta,
				})
		}

		now := time.Now()
		entry.CurrentStock = next
		if input.Delta > 0 && (input.Type == enums.TransactionTypeRestock || input.Type == enums.TransactionTypePurchase) {
			entry.LastRestockedAt = &now
		}
		if err := repo.Save(ctx, entry); err != nil {
			return err
		}
		if err := repo.InsertTransaction(ctx, &models.StockTransaction{
			ProductID:     input.ProductID,
			Type:          input.Type,
			Quantity:      input.Delta,
			PreviousStock: previous,
			NewStock:      next,
			ReferenceID:   input.ReferenceID,
			ActorID:       input.ActorID,
			Note:          input.Reason,
		}); err != nil {
			return err
		}
		if input.ActorID != nil {
			if _, err := s.audit.RecordTx(ctx, tx, audit.RecordEntryInput{
				ProductID: input.ProductID,
				UserID:    *input.ActorID,
				Action:    enums.AuditActionStockAdjusted,
				OldValue:  strconv.Itoa(previous),
				NewValue:  strconv.Itoa(next),
				Reason:    input.Reason,
			}); err != nil {
				return err
			}
		}
		if s.outbox != nil {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventStockAdjusted,
				AggregateType: enums.AggregateStockItem,
				AggregateID:   input.ProductID,
				Version:       1,
				OccurredAt:    now,
				Data: payloads.StockAdjustedEvent{
					ProductID:     input.ProductID,
					SellerID:      entry.SellerID,
					Type:          input.Type,
					Quantity:      input.Delta,
					PreviousStock: previous,
					NewStock:      next,
				},
			}); err != nil {
				return err
			}
		}
		if err := s.alerts.EvaluateTx(ctx, tx, entry, now); err != nil {
			return err
		}
		result = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncAdjustment(string(input.Type))
	}
	return result, nil
}

func (s *service) UpdateThresholds(ctx context.Context, input UpdateThresholdsInput) (*models.StockLedgerEntry, error) {
	if input.ProductID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	if input.ActorID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "actor id is required")
	}
	if input.MinimumThreshold == nil && input.ReorderQuantity == nil && input.AlertFrequencyHours == nil && input.ForecastMethod == nil {
		return nil, apperrors.New(apperrors.CodeValidation, "nothing to update")
	}
	if input.MinimumThreshold != nil && *input.MinimumThreshold < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "minimum threshold must not be negative")
	}
	if input.AlertFrequencyHours != nil && *input.AlertFrequencyHours <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "alert frequency must be positive")
	}
	if input.ForecastMethod != nil && !input.ForecastMethod.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid forecast method")
	}

	var result *models.StockLedgerEntry
	err := s.runSerialized(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entry, err := repo.FindByIDForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if entry == nil {
			return apperrors.New(apperrors.CodeNotFound, "ledger entry not found")
		}

		oldThreshold := entry.MinimumThreshold
		if input.MinimumThreshold != nil {
			entry.MinimumThreshold = *input.MinimumThreshold
		}
		if input.ReorderQuantity != nil {
			entry.ReorderQuantity = *input.ReorderQuantity
		}
		if input.AlertFrequencyHours != nil {
			entry.AlertFrequencyHours = *input.AlertFrequencyHours
		}
		if input.ForecastMethod != nil {
			entry.ForecastMethod = *input.ForecastMethod
		}
		if err := repo.Save(ctx, entry); err != nil {
			return err
		}
		if _, err := s.audit.RecordTx(ctx, tx, audit.RecordEntryInput{
			ProductID: input.ProductID,
			UserID:    input.ActorID,
			Action:    enums.AuditActionThresholdChange,
			OldValue:  strconv.Itoa(oldThreshold),
			NewValue:  strconv.Itoa(entry.MinimumThreshold),
			Reason:    input.Reason,
		}); err != nil {
			return err
		}
		if err := s.alerts.EvaluateTx(ctx, tx, entry, time.Now()); err != nil {
			return err
		}
		result = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Retire removes a product's ledger entry. The teardown is explicit rather
// than a schema cascade: it refuses while reservations are outstanding.
func (s *service) Retire(ctx context.Context, productID uuid.UUID, actorID *uuid.UUID, reason *string) error {
	if productID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	return s.runSerialized(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		entry, err := repo.FindByIDForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if entry == nil {
			return apperrors.New(apperrors.CodeNotFound, "ledger entry not found")
		}
		if entry.ReservedStock > 0 {
			return apperrors.New(apperrors.CodeStateConflict, "cannot retire product with outstanding reservations").
				WithDetails(map[string]any{"reserved_stock": entry.ReservedStock})
		}
		if actorID != nil {
			if _, err := s.audit.RecordTx(ctx, tx, audit.RecordEntryInput{
				ProductID: productID,
				UserID:    *actorID,
				Action:    enums.AuditActionRetire,
				OldValue:  strconv.Itoa(entry.CurrentStock),
				NewValue:  "0",
				Reason:    reason,
			}); err != nil {
				return err
			}
		}
		return repo.Delete(ctx, productID)
	})
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.StockLedgerEntry, error) {
	if sellerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "seller id is required")
	}
	return s.repo.ListBySeller(ctx, sellerID, params)
}

func (s *service) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]models.StockTransaction, error) {
	if input.ProductID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	return s.repo.ListTransactions(ctx, input)
}

// VerifyLedger folds the product's stock-moving transactions and compares
// the result against the ledger's current stock.
func (s *service) VerifyLedger(ctx context.Context, productID uuid.UUID) (*LedgerVerification, error) {
	entry, err := s.GetStock(ctx, productID)
	if err != nil {
		return nil, err
	}
	folded, err := s.repo.SumTransactions(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &LedgerVerification{
		ProductID:    productID,
		CurrentStock: entry.CurrentStock,
		FoldedStock:  folded,
		Consistent:   folded == entry.CurrentStock,
	}, nil
}
