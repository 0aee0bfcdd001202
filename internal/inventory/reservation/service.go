package reservation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimarket/inventory-engine/internal/alerts"
	"github.com/agrimarket/inventory-engine/internal/inventory"
	"github.com/agrimarket/inventory-engine/pkg/config"
	dbpkg "github.com/agrimarket/inventory-engine/pkg/db"
	"github.com/agrimarket/inventory-engine/pkg/db/models"
	"github.com/agrimarket/inventory-engine/pkg/enums"
	apperrors "github.com/agrimarket/inventory-engine/pkg/errors"
	"github.com/agrimarket/inventory-engine/pkg/logger"
	"github.com/agrimarket/inventory-engine/pkg/metrics"
	"github.com/agrimarket/inventory-engine/pkg/outbox"
	"github.com/agrimarket/inventory-engine/pkg/outbox/payloads"
)

// ReserveInput carries a hold request.
type ReserveInput struct {
	ProductID      uuid.UUID
	OrderID        uuid.UUID
	Quantity       int
	IdempotencyKey *string
	ActorID        *uuid.UUID
}

// CommitInput finalizes a hold into a sale. ActualQuantity may differ from
// the reserved quantity when the fulfilled amount changed after checkout.
type CommitInput struct {
	ReservationID  uuid.UUID
	ActualQuantity int
	Override       bool
	ActorID        *uuid.UUID
}

// Service is the reservation engine: it places, releases, commits, and
// expires holds against the stock ledger.
type Service interface {
	Reserve(ctx context.Context, input ReserveInput) (*models.StockReservation, error)
	Release(ctx context.Context, reservationID uuid.UUID) (*models.StockReservation, error)
	Commit(ctx context.Context, input CommitInput) (*models.StockReservation, error)
	Get(ctx context.Context, reservationID uuid.UUID) (*models.StockReservation, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.StockReservation, error)
	ExpireStale(ctx context.Context, now time.Time, batchSize int) (int, error)
}

// Deps collects the engine's collaborators.
type Deps struct {
	Tx        inventory.TxRunner
	Repo      Repository
	Inventory inventory.Repository
	Alerts    alerts.Service
	Outbox    *outbox.Service
	Logger    *logger.Logger
	Metrics   *metrics.InventoryMetrics
	Config    config.InventoryConfig
}

type service struct {
	tx      inventory.TxRunner
	repo    Repository
	ledger  inventory.Repository
	alerts  alerts.Service
	outbox  *outbox.Service
	logg    *logger.Logger
	metrics *metrics.InventoryMetrics
	cfg     config.InventoryConfig
}

// NewService wires the reservation engine.
func NewService(deps Deps) (Service, error) {
	if deps.Tx == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "tx runner required")
	}
	if deps.Repo == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "reservation repository required")
	}
	if deps.Inventory == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "inventory repository required")
	}
	if deps.Alerts == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "alert service required")
	}
	if deps.Config.ConflictRetries <= 0 {
		deps.Config.ConflictRetries = 3
	}
	if deps.Config.ReservationTTL <= 0 {
		deps.Config.ReservationTTL = 24 * time.Hour
	}
	return &service{
		tx:      deps.Tx,
		repo:    deps.Repo,
		ledger:  deps.Inventory,
		alerts:  deps.Alerts,
		outbox:  deps.Outbox,
		logg:    deps.Logger,
		metrics: deps.Metrics,
		cfg:     deps.Config,
	}, nil
}

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

// Reserve places a hold: available stock is checked under a row lock, the
// ledger's reserved count grows, and a hold transaction records the event.
// A repeated idempotency key returns the original reservation untouched.
func (s *service) Reserve(ctx context.Context, input ReserveInput) (*models.StockReservation, error) {
	if input.ProductID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "product id is required")
	}
	if input.OrderID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order id is required")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "quantity must be positive")
	}

	if input.IdempotencyKey != nil && *input.IdempotencyKey != "" {
		existing, err := s.repo.FindByIdempotencyKey(ctx, *input.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	var result *models.StockReservation
	err := s.runSerialized(ctx, func(tx *gorm.DB) error {
		ledger := s.ledger.WithTx(tx)
		entry, err := ledger.FindByIDForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if entry == nil {
			return apperrors.New(apperrors.CodeNotFound, "ledger entry not found")
		}
		if entry.Available() < input.Quantity {
			if s.metrics != nil {
				s.metrics.IncInsufficientStock()
			}
			return apperrors.New(apperrors.CodeInsufficientStock, "not enough available stock").
				WithDetails(map[string]any{
					"available": entry.Available(),
					"requested": input.Quantity,
				})
		}

		entry.ReservedStock += input.Quantity
		if err := ledger.Save(ctx, entry); err != nil {
			return err
		}

		// The ID is assigned up front because the hold transaction
		// references it within the same database transaction.
		reservation := &models.StockReservation{
			ID:             uuid.New(),
			ProductID:      input.ProductID,
			OrderID:        input.OrderID,
			Quantity:       input.Quantity,
			Status:         enums.ReservationStatusActive,
			IdempotencyKey: input.IdempotencyKey,
			ExpiresAt:      time.Now().Add(s.cfg.ReservationTTL),
		}
		if err := s.repo.WithTx(tx).Create(ctx, reservation); err != nil {
			if input.IdempotencyKey != nil && dbpkg.IsUniqueViolation(err, "stock_reservations_idempotency_key_key") {
				return apperrors.Wrap(apperrors.CodeIdempotency, err, "idempotency key already in flight")
			}
			return err
		}

		// Hold transactions do not count toward the stock fold; they
		// document the pending claim.
		if err := ledger.InsertTransaction(ctx, &models.StockTransaction{
			ProductID:     input.ProductID,
			Type:          enums.TransactionTypeReservationHold,
			Quantity:      -input.Quantity,
			PreviousStock: entry.CurrentStock,
			NewStock:      entry.CurrentStock,
			ReferenceID:   &reservation.ID,
			ActorID:       input.ActorID,
		}); err != nil {
			return err
		}
		if err := s.alerts.EvaluateTx(ctx, tx, entry, time.Now()); err != nil {
			return err
		}
		result = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncReservation("reserved")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithReservationID(ctx, result.ID.String()), "stock reserved")
	}
	return result, nil
}

// Release returns a hold's quantity to the available pool. Releasing an
// already released or expired reservation is a no-op; a committed one
// cannot be released.
func (s *service) Release(ctx context.Context, reservationID uuid.UUID) (*models.StockReservation, error) {
	if reservationID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "reservation id is required")
	}
	var result *models.StockReservation
	err := s.runSerialized(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		reservation, err := repo.FindByIDForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if reservation == nil {
			return apperrors.New(apperrors.CodeNotFound, "reservation not found")
		}
		switch reservation.Status {
		case enums.ReservationStatusReleased, enums.ReservationStatusExpired:
			result = reservation
			return nil
		case enums.ReservationStatusCommitted:
			return apperrors.New(apperrors.CodeStateConflict, "committed reservation cannot be released")
		}

		ledger := s.ledger.WithTx(tx)
		entry, err := ledger.FindByIDForUpdate(ctx, reservation.ProductID)
		if err != nil {
			return err
		}
		if entry != nil {
			entry.ReservedStock -= reservation.Quantity
			if entry.ReservedStock < 0 {
				entry.ReservedStock = 0
			}
			if err := ledger.Save(ctx, entry); err != nil {
				return err
			}
		}

		now := time.Now()
		reservation.Status = enums.ReservationStatusReleased
		reservation.ReleasedAt = &now
		if err := repo.Save(ctx, reservation); err != nil {
			return err
		}
		result = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncReservation("released")
	}
	return result, nil
}

// Commit converts an active hold into a completed sale. The sale transaction
// carries the actual fulfilled quantity, which may fall short of the hold for
// partial fulfillment; committing more than was reserved requires Override.
// Any difference is documented by an adjustment record carrying the
// discrepancy in its metadata.
func (s *service) Commit(ctx context.Context, input CommitInput) (*models.StockReservation, error) {
	if input.ReservationID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "reservation id is required")
	}
	if input.ActualQuantity < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "actual quantity must not be negative")
	}

	var result *models.StockReservation
	err := s.runSerialized(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		reservation, err := repo.FindByIDForUpdate(ctx, input.ReservationID)
		if err != nil {
			return err
		}
		if reservation == nil {
			return apperrors.New(apperrors.CodeNotFound, "reservation not found")
		}
		if reservation.Status != enums.ReservationStatusActive {
			return apperrors.New(apperrors.CodeStateConflict, "reservation is not active").
				WithDetails(map[string]any{"status": reservation.Status})
		}
		if input.ActualQuantity > reservation.Quantity && !input.Override {
			return apperrors.New(apperrors.CodeMismatch, "actual quantity exceeds reserved quantity").
				WithDetails(map[string]any{
					"reserved": reservation.Quantity,
					"actual":   input.ActualQuantity,
				})
		}

		ledger := s.ledger.WithTx(tx)
		entry, err := ledger.FindByIDForUpdate(ctx, reservation.ProductID)
		if err != nil {
			return err
		}
		if entry == nil {
			return apperrors.New(apperrors.CodeNotFound, "ledger entry not found")
		}
		if input.ActualQuantity > entry.CurrentStock {
			return apperrors.New(apperrors.CodeWouldUnderflow, "actual quantity exceeds on-hand stock").
				WithDetails(map[string]any{
					"current_stock": entry.CurrentStock,
					"actual":        input.ActualQuantity,
				})
		}

		previous := entry.CurrentStock
		entry.CurrentStock -= input.ActualQuantity
		entry.ReservedStock -= reservation.Quantity
		if entry.ReservedStock < 0 {
			entry.ReservedStock = 0
		}
		if err := ledger.Save(ctx, entry); err != nil {
			return err
		}

		now := time.Now()
		if input.ActualQuantity > 0 {
			if err := ledger.InsertTransaction(ctx, &models.StockTransaction{
				ProductID:     reservation.ProductID,
				Type:          enums.TransactionTypeSale,
				Quantity:      -input.ActualQuantity,
				PreviousStock: previous,
				NewStock:      entry.CurrentStock,
				ReferenceID:   &reservation.ID,
				ActorID:       input.ActorID,
			}); err != nil {
				return err
			}
		}
		if input.ActualQuantity != reservation.Quantity {
			// The sale row already folded the actual quantity, so this
			// row carries zero and documents the discrepancy instead.
			note := "commit quantity differed from reserved quantity"
			meta, err := json.Marshal(map[string]int{
				"reserved": reservation.Quantity,
				"actual":   input.ActualQuantity,
				"delta":    reservation.Quantity - input.ActualQuantity,
			})
			if err != nil {
				return err
			}
			if err := ledger.InsertTransaction(ctx, &models.StockTransaction{
				ProductID:     reservation.ProductID,
				Type:          enums.TransactionTypeAdjustment,
				Quantity:      0,
				PreviousStock: entry.CurrentStock,
				NewStock:      entry.CurrentStock,
				ReferenceID:   &reservation.ID,
				ActorID:       input.ActorID,
				Note:          &note,
				Metadata:      meta,
			}); err != nil {
				return err
			}
		}

		reservation.Status = enums.ReservationStatusCommitted
		reservation.CommittedAt = &now
		if err := repo.Save(ctx, reservation); err != nil {
			return err
		}
		if err := s.alerts.EvaluateTx(ctx, tx, entry, now); err != nil {
			return err
		}
		result = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncReservation("committed")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithReservationID(ctx, input.ReservationID.String()), "reservation committed")
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, reservationID uuid.UUID) (*models.StockReservation, error) {
	if reservationID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "reservation id is required")
	}
	reservation, err := s.repo.FindByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "reservation not found")
	}
	return reservation, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.StockReservation, error) {
	if orderID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order id is required")
	}
	return s.repo.ListByOrderID(ctx, orderID)
}

// ExpireStale sweeps active reservations whose TTL lapsed, returning their
// quantity to the available pool. Each reservation expires in its own
// transaction so one poisoned row cannot stall the sweep.
func (s *service) ExpireStale(ctx context.Context, now time.Time, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	stale, err := s.repo.FindActiveExpiredBefore(ctx, now, batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		id := stale[i].ID
		err := s.runSerialized(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			reservation, err := repo.FindByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			// Raced with a release or commit between the scan and the lock.
			if reservation == nil || reservation.Status != enums.ReservationStatusActive {
				return nil
			}

			ledger := s.ledger.WithTx(tx)
			entry, err := ledger.FindByIDForUpdate(ctx, reservation.ProductID)
			if err != nil {
				return err
			}
			if entry != nil {
				entry.ReservedStock -= reservation.Quantity
				if entry.ReservedStock < 0 {
					entry.ReservedStock = 0
				}
				if err := ledger.Save(ctx, entry); err != nil {
					return err
				}
			}

			reservation.Status = enums.ReservationStatusExpired
			reservation.ReleasedAt = &now
			if err := repo.Save(ctx, reservation); err != nil {
				return err
			}
			if s.outbox != nil {
				var sellerID uuid.UUID
				if entry != nil {
					sellerID = entry.SellerID
				}
				if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
					EventType:     enums.EventReservationExpired,
					AggregateType: enums.AggregateReservation,
					AggregateID:   reservation.ID,
					Version:       1,
					OccurredAt:    now,
					Data: payloads.ReservationExpiredEvent{
						ReservationID: reservation.ID,
						ProductID:     reservation.ProductID,
						SellerID:      sellerID,
						OrderID:       reservation.OrderID,
						Quantity:      reservation.Quantity,
						ExpiredAt:     now,
					},
				}); err != nil {
					return err
				}
			}
			expired++
			return nil
		})
		if err != nil {
			if s.logg != nil {
				s.logg.Error(s.logg.WithReservationID(ctx, id.String()), "failed to expire reservation", err)
			}
			continue
		}
	}
	if expired > 0 && s.metrics != nil {
		for i := 0; i < expired; i++ {
			s.metrics.IncReservation("expired")
		}
	}
	return expired, nil
}
